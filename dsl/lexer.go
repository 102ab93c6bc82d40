// Package dsl parses grammar source files and fills the grammar model
// through the programmatic builder, so both construction modes produce
// the same value.
package dsl

import (
	"fmt"
	"io"
	"strings"
)

type tokenKind string

const (
	tokenKindIdent     = tokenKind("identifier")
	tokenKindLiteral   = tokenKind("literal")
	tokenKindRegex     = tokenKind("regex")
	tokenKindColon     = tokenKind(":")
	tokenKindSemicolon = tokenKind(";")
	tokenKindVBar      = tokenKind("|")
	tokenKindLBracket  = tokenKind("[")
	tokenKindRBracket  = tokenKind("]")
	tokenKindDirective = tokenKind("directive")
	tokenKindEOF       = tokenKind("eof")
	tokenKindInvalid   = tokenKind("invalid")
)

type token struct {
	kind tokenKind

	// text is the identifier, the unquoted literal or regex body, or
	// the directive name without the leading '%'.
	text string

	row int
	col int
}

// lexer tokenizes grammar source. Line comments run from '#' to the
// end of the line.
type lexer struct {
	src []rune
	pos int
	row int
	col int

	// prevRow and prevCol allow one level of unread.
	prevRow int
	prevCol int

	peeked *token
}

func newLexer(r io.Reader) (*lexer, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &lexer{
		src: []rune(string(b)),
		row: 1,
	}, nil
}

func (l *lexer) peek() (*token, error) {
	if l.peeked != nil {
		return l.peeked, nil
	}
	tok, err := l.lex()
	if err != nil {
		return nil, err
	}
	l.peeked = tok
	return tok, nil
}

func (l *lexer) next() (*token, error) {
	if l.peeked != nil {
		tok := l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.lex()
}

func (l *lexer) read() (rune, bool) {
	if l.pos >= len(l.src) {
		return 0, false
	}
	c := l.src[l.pos]
	l.pos++
	l.prevRow = l.row
	l.prevCol = l.col
	if c == '\n' {
		l.row++
		l.col = 0
	} else {
		l.col++
	}
	return c, true
}

func (l *lexer) unread() {
	l.pos--
	l.row = l.prevRow
	l.col = l.prevCol
}

func (l *lexer) lex() (*token, error) {
	for {
		c, ok := l.read()
		if !ok {
			return &token{
				kind: tokenKindEOF,
				row:  l.row,
				col:  l.col,
			}, nil
		}
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			continue
		case c == '#':
			for {
				c, ok := l.read()
				if !ok || c == '\n' {
					break
				}
			}
			continue
		}

		row, col := l.row, l.col
		switch c {
		case ':':
			return &token{kind: tokenKindColon, row: row, col: col}, nil
		case ';':
			return &token{kind: tokenKindSemicolon, row: row, col: col}, nil
		case '|':
			return &token{kind: tokenKindVBar, row: row, col: col}, nil
		case '[':
			return &token{kind: tokenKindLBracket, row: row, col: col}, nil
		case ']':
			return &token{kind: tokenKindRBracket, row: row, col: col}, nil
		case '%':
			name, err := l.lexIdentBody()
			if err != nil {
				return nil, err
			}
			if name == "" {
				return &token{kind: tokenKindInvalid, text: "%", row: row, col: col}, nil
			}
			return &token{kind: tokenKindDirective, text: name, row: row, col: col}, nil
		case '\'':
			text, err := l.lexQuoted('\'')
			if err != nil {
				return nil, fmt.Errorf("%v: %v", row, err)
			}
			return &token{kind: tokenKindLiteral, text: text, row: row, col: col}, nil
		case '"':
			text, err := l.lexQuoted('"')
			if err != nil {
				return nil, fmt.Errorf("%v: %v", row, err)
			}
			return &token{kind: tokenKindRegex, text: text, row: row, col: col}, nil
		}

		if isIdentHead(c) {
			l.unread()
			name, err := l.lexIdentBody()
			if err != nil {
				return nil, err
			}
			return &token{kind: tokenKindIdent, text: name, row: row, col: col}, nil
		}

		return &token{kind: tokenKindInvalid, text: string(c), row: row, col: col}, nil
	}
}

func (l *lexer) lexIdentBody() (string, error) {
	var b strings.Builder
	for {
		c, ok := l.read()
		if !ok {
			break
		}
		if !isIdentRune(c) {
			l.unread()
			break
		}
		b.WriteRune(c)
	}
	return b.String(), nil
}

// lexQuoted reads to the closing quote. A backslash before the quote
// yields the quote alone; every other escape, a doubled backslash
// included, is kept verbatim (both characters) for the regex compiler.
func (l *lexer) lexQuoted(quote rune) (string, error) {
	var b strings.Builder
	for {
		c, ok := l.read()
		if !ok {
			return "", fmt.Errorf("unclosed %q", quote)
		}
		if c == quote {
			return b.String(), nil
		}
		if c == '\\' {
			e, ok := l.read()
			if !ok {
				return "", fmt.Errorf("unclosed %q", quote)
			}
			if e == quote {
				b.WriteRune(e)
				continue
			}
			b.WriteRune('\\')
			b.WriteRune(e)
			continue
		}
		b.WriteRune(c)
	}
}

func isIdentHead(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentRune(c rune) bool {
	return isIdentHead(c) || (c >= '0' && c <= '9')
}
