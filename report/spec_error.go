package report

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/width"
)

// SpecError is an error detected in a grammar source. It renders with
// the offending source line and a caret when the source is available.
type SpecError struct {
	Cause      error
	Code       Code
	Detail     string
	FilePath   string
	SourceName string
	Row        int
	Col        int
}

func (e *SpecError) Error() string {
	var b strings.Builder
	if e.SourceName != "" {
		fmt.Fprintf(&b, "%v: ", e.SourceName)
	}
	if e.Row != 0 {
		fmt.Fprintf(&b, "%v: ", e.Row)
	}
	fmt.Fprintf(&b, "error: %v", e.Cause)
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %v", e.Detail)
	}

	line := readLine(e.FilePath, e.Row)
	if line != "" {
		fmt.Fprintf(&b, "\n    %v", line)
		if e.Col > 0 {
			fmt.Fprintf(&b, "\n    %v^", strings.Repeat(" ", caretIndent(line, e.Col)))
		}
	}

	return b.String()
}

func (e *SpecError) Unwrap() error {
	return e.Cause
}

// caretIndent counts the display cells preceding the column col so the
// caret lines up under wide characters as well.
func caretIndent(line string, col int) int {
	n := 0
	i := 1
	for _, c := range line {
		if i >= col {
			break
		}
		switch width.LookupRune(c).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
		i++
	}
	return n
}

func readLine(filePath string, row int) string {
	if filePath == "" || row <= 0 {
		return ""
	}

	f, err := os.Open(filePath)
	if err != nil {
		return ""
	}
	defer f.Close()

	i := 1
	s := bufio.NewScanner(f)
	for s.Scan() {
		if i == row {
			return s.Text()
		}
		i++
	}

	return ""
}

// SpecErrors aggregates multiple spec errors into one error value.
type SpecErrors []*SpecError

func (e SpecErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v", e[0])
	for _, err := range e[1:] {
		fmt.Fprintf(&b, "\n%v", err)
	}
	return b.String()
}
