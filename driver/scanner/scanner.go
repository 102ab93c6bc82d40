// Package scanner drives a generated lexer state machine over an
// input stream: it skips whitespace, matches the longest token,
// invokes lexer-action handlers, and yields (terminal, lexeme) pairs.
package scanner

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// Token is one scanner result.
type Token struct {
	// Terminal is a terminal index of the parser state machine. The
	// EOF token carries the end-symbol index.
	Terminal int

	Lexeme string

	// Row and Col locate the first character of the lexeme. Rows
	// count line feeds; columns count code points.
	Row int
	Col int

	EOF bool
}

// ActionContext is handed to a lexer-action handler when an accepting
// state with an attached action is reached. The handler may rewrite
// the lexeme, override the terminal, and consume further input (block
// comments, string escapes).
type ActionContext struct {
	s *Scanner

	// Begin and End are byte offsets of the match. End is advanced by
	// Consume.
	Begin int
	End   int

	// Lexeme is the token text to emit; pre-filled with the matched
	// text.
	Lexeme string

	// Terminal is the terminal index to emit; pre-filled with the
	// DFA's accept symbol. Set to Discard to emit no token.
	Terminal int
}

// Discard makes an action swallow its token.
const Discard = -1

// Rest returns the unconsumed input after End.
func (c *ActionContext) Rest() []byte {
	return c.s.src[c.End:]
}

// Consume extends the match by n bytes.
func (c *ActionContext) Consume(n int) {
	if c.End+n > len(c.s.src) {
		n = len(c.s.src) - c.End
	}
	c.End += n
}

// ActionFunc is a lexer-action handler, registered by identifier.
type ActionFunc func(ctx *ActionContext) error

type position struct {
	offset int
	row    int
	col    int
}

// Scanner is the runtime over one input. Scanners sharing the same
// state machine may run concurrently; the tables are read-only.
type Scanner struct {
	lex  *machine.LexerStateMachine
	end  int
	sink report.Sink

	src  []byte
	pos  position
	full bool

	actions []ActionFunc
}

// New reads the whole source and returns a scanner positioned at its
// start. Diagnostics go to sink; a nil sink uses the default.
func New(c *machine.Compiled, src io.Reader, sink report.Sink) (*Scanner, error) {
	b, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if sink == nil {
		sink = report.DefaultSink()
	}
	return &Scanner{
		lex:  c.Lexer,
		end:  c.Parser.EndSymbol,
		sink: sink,
		src:  b,
		pos: position{
			row: 1,
		},
		actions: make([]ActionFunc, len(c.Lexer.ActionNames)),
	}, nil
}

// RegisterAction installs the handler for a lexer-action identifier.
// Unknown identifiers report an error; a missing handler means the
// token is accepted as lexed.
func (s *Scanner) RegisterAction(identifier string, fn ActionFunc) error {
	for i, name := range s.lex.ActionNames {
		if name == identifier {
			s.actions[i] = fn
			return nil
		}
	}
	return fmt.Errorf("the lexer state machine has no action named %q", identifier)
}

// Full reports whether the scanner has yielded the EOF token.
func (s *Scanner) Full() bool {
	return s.full
}

// Next advances the scanner one step: skip whitespace, match the
// longest token, run its action. Unmatchable characters are reported
// to the sink and skipped.
func (s *Scanner) Next() (*Token, error) {
	for {
		s.skipWhitespace()

		if s.pos.offset >= len(s.src) {
			s.full = true
			return &Token{
				Terminal: s.end,
				Row:      s.pos.row,
				Col:      s.pos.col,
				EOF:      true,
			}, nil
		}

		start := s.pos
		accepted, acceptPos, acceptSym, acceptAct := s.match(s.lex.Token)
		// A zero-length match cannot make progress; treat it like no
		// match at all.
		if !accepted || acceptPos.offset == start.offset {
			c, size := utf8.DecodeRune(s.src[start.offset:])
			s.sink.Error(start.row, report.CodeLexerFailure, fmt.Sprintf("no token matches at %q", string(c)))
			s.pos = start
			s.advance(size)
			continue
		}

		s.pos = acceptPos
		tok := &Token{
			Terminal: int(acceptSym),
			Lexeme:   string(s.src[start.offset:acceptPos.offset]),
			Row:      start.row,
			Col:      start.col,
		}

		if acceptAct != machine.NoAction && s.actions[acceptAct] != nil {
			ctx := &ActionContext{
				s:        s,
				Begin:    start.offset,
				End:      acceptPos.offset,
				Lexeme:   tok.Lexeme,
				Terminal: tok.Terminal,
			}
			if err := s.actions[acceptAct](ctx); err != nil {
				return nil, err
			}
			if ctx.End > acceptPos.offset {
				s.advance(ctx.End - acceptPos.offset)
			}
			if ctx.Terminal == Discard {
				continue
			}
			tok.Lexeme = ctx.Lexeme
			tok.Terminal = ctx.Terminal
		}

		return tok, nil
	}
}

// skipWhitespace runs the whitespace DFA repeatedly; every successful
// match advances the position.
func (s *Scanner) skipWhitespace() {
	if !s.lex.HasWhitespace() {
		return
	}
	for {
		accepted, acceptPos, _, _ := s.match(s.lex.Whitespace)
		if !accepted || acceptPos.offset == s.pos.offset {
			return
		}
		s.pos = acceptPos
	}
}

// match runs a DFA from the current position, remembering the last
// accepting point. The scanner's position is left untouched; the
// caller commits by assigning the returned position.
func (s *Scanner) match(d *machine.DFA) (bool, position, int32, int32) {
	saved := s.pos
	state := d.InitialState
	accepted := false
	var acceptPos position
	var acceptSym, acceptAct int32

	if sym, ok := d.Accept(state); ok {
		accepted = true
		acceptPos = s.pos
		acceptSym = sym
		acceptAct = d.States[state].Action
	}

	for s.pos.offset < len(s.src) {
		c, size := utf8.DecodeRune(s.src[s.pos.offset:])
		next, ok := d.Next(state, c)
		if !ok {
			break
		}
		state = next
		s.advance(size)
		if sym, ok := d.Accept(state); ok {
			accepted = true
			acceptPos = s.pos
			acceptSym = sym
			acceptAct = d.States[state].Action
		}
	}

	s.pos = saved
	return accepted, acceptPos, acceptSym, acceptAct
}

// advance moves the position n bytes forward, counting rows and
// columns. Columns count code points; a line feed ends a row.
func (s *Scanner) advance(n int) {
	target := s.pos.offset + n
	for s.pos.offset < target && s.pos.offset < len(s.src) {
		c, size := utf8.DecodeRune(s.src[s.pos.offset:])
		s.pos.offset += size
		if c == '\n' {
			s.pos.row++
			s.pos.col = 0
		} else {
			s.pos.col++
		}
	}
}
