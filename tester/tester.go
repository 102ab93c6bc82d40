// Package tester replays a compiled grammar against inputs and
// collects the parse trace, so table changes can be checked against
// known derivations.
package tester

import (
	"fmt"
	"io"
	"strings"

	"github.com/hakosu/grackle/driver/parser"
	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// Result is one conformance run.
type Result struct {
	Events       []*parser.Event
	SyntaxErrors []*parser.SyntaxError
	Tree         *parser.Node
}

// Accepted reports whether the parse ran to acceptance.
func (r *Result) Accepted() bool {
	return len(r.Events) > 0 && r.Events[len(r.Events)-1].Kind == parser.EventAccept
}

// Trace renders the parse events one per line. Two generator runs over
// the same grammar must produce identical traces for the same input.
func (r *Result) Trace() string {
	var b strings.Builder
	for _, e := range r.Events {
		fmt.Fprintf(&b, "%v\n", e)
	}
	return b.String()
}

// Run parses src with the given tables.
func Run(c *machine.Compiled, src io.Reader, sink report.Sink) (*Result, error) {
	p, err := parser.New(c, src, sink)
	if err != nil {
		return nil, err
	}
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return &Result{
		Events:       p.Events(),
		SyntaxErrors: p.SyntaxErrors(),
		Tree:         p.Tree(),
	}, nil
}

// RunString is Run over an in-memory input.
func RunString(c *machine.Compiled, src string, sink report.Sink) (*Result, error) {
	return Run(c, strings.NewReader(src), sink)
}
