package scanner

import (
	"strings"
	"testing"

	"github.com/hakosu/grackle/grammar"
	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// genNumberMachine compiles a grammar with tokens `[0-9]+` and
// whitespace `[ \t\n]+`.
func genNumberMachine(t *testing.T) *machine.Compiled {
	t.Helper()

	b := grammar.NewBuilder("numbers")
	b.Whitespace(1).Regex("[ \\t\\n]+", 1)
	b.Production("list", 2).
		Identifier("list", 2).Regex("[0-9]+", 2).EndExpression(2).
		EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	return res.Machine
}

func terminalIndex(t *testing.T, c *machine.Compiled, lexeme string) int {
	t.Helper()

	for i, text := range c.Parser.Terminals {
		if text == lexeme {
			return i
		}
	}
	t.Fatalf("terminal %q was not found", lexeme)
	return -1
}

func scanAll(t *testing.T, s *Scanner) []*Token {
	t.Helper()

	var toks []*Token
	for {
		tok, err := s.Next()
		if err != nil {
			t.Fatal(err)
		}
		toks = append(toks, tok)
		if tok.EOF {
			return toks
		}
	}
}

// Whitespace never surfaces: "  12  34" yields 12, 34, then EOF.
func TestScanner_skipsWhitespace(t *testing.T) {
	c := genNumberMachine(t)
	s, err := New(c, strings.NewReader("  12  34"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	toks := scanAll(t, s)
	if len(toks) != 3 {
		t.Fatalf("want 12, 34, eof, got %v tokens", len(toks))
	}
	num := terminalIndex(t, c, "[0-9]+")
	if toks[0].Terminal != num || toks[0].Lexeme != "12" {
		t.Fatalf("unexpected first token: %+v", toks[0])
	}
	if toks[1].Terminal != num || toks[1].Lexeme != "34" {
		t.Fatalf("unexpected second token: %+v", toks[1])
	}
	if !toks[2].EOF || toks[2].Terminal != c.Parser.EndSymbol {
		t.Fatalf("the last token must be EOF with the end symbol: %+v", toks[2])
	}
	if !s.Full() {
		t.Fatalf("the scanner must be full after EOF")
	}
}

// Longest match wins, and ties break toward the earlier declaration.
func TestScanner_longestMatch(t *testing.T) {
	b := grammar.NewBuilder("words")
	b.Whitespace(1).Regex("[ ]+", 1)
	b.Production("s", 2).
		Literal("if", 2).Regex("[a-z]+", 2).EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	c := res.Machine

	ifIdx := terminalIndex(t, c, "if")
	identIdx := terminalIndex(t, c, "[a-z]+")

	tests := []struct {
		input string
		want  []struct {
			terminal int
			lexeme   string
		}
	}{
		{
			input: "ifxy",
			want: []struct {
				terminal int
				lexeme   string
			}{
				{terminal: identIdx, lexeme: "ifxy"},
			},
		},
		{
			input: "if zz",
			want: []struct {
				terminal int
				lexeme   string
			}{
				{terminal: ifIdx, lexeme: "if"},
				{terminal: identIdx, lexeme: "zz"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, err := New(c, strings.NewReader(tt.input), report.NullSink{})
			if err != nil {
				t.Fatal(err)
			}
			toks := scanAll(t, s)
			if len(toks) != len(tt.want)+1 {
				t.Fatalf("want %v tokens plus eof, got %v", len(tt.want), len(toks))
			}
			for i, want := range tt.want {
				if toks[i].Terminal != want.terminal || toks[i].Lexeme != want.lexeme {
					t.Fatalf("token %v: want (%v, %q), got (%v, %q)", i, want.terminal, want.lexeme, toks[i].Terminal, toks[i].Lexeme)
				}
			}
		})
	}
}

// An unmatchable character reports a lexer failure, skips one
// character, and scanning resumes.
func TestScanner_failureRecovery(t *testing.T) {
	c := genNumberMachine(t)
	sink := report.NewCountingSink(report.NullSink{})
	s, err := New(c, strings.NewReader("12 @@ 34"), sink)
	if err != nil {
		t.Fatal(err)
	}

	toks := scanAll(t, s)
	if len(toks) != 3 {
		t.Fatalf("want 12, 34, eof, got %v tokens", len(toks))
	}
	if toks[0].Lexeme != "12" || toks[1].Lexeme != "34" {
		t.Fatalf("scanning must resume after the failure: %+v %+v", toks[0], toks[1])
	}
	if sink.ErrorCount() != 2 {
		t.Fatalf("each offending character reports once, want 2 got %v", sink.ErrorCount())
	}
}

func TestScanner_positions(t *testing.T) {
	c := genNumberMachine(t)
	s, err := New(c, strings.NewReader("1\n 23\n45"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	toks := scanAll(t, s)
	wants := []struct {
		row int
		col int
	}{
		{row: 1, col: 0},
		{row: 2, col: 1},
		{row: 3, col: 0},
	}
	for i, want := range wants {
		if toks[i].Row != want.row || toks[i].Col != want.col {
			t.Fatalf("token %v: want %v:%v, got %v:%v", i, want.row, want.col, toks[i].Row, toks[i].Col)
		}
	}
}

// A lexer action can rewrite the lexeme, retype the token, and consume
// further input.
func TestScanner_actions(t *testing.T) {
	b := grammar.NewBuilder("actions")
	b.Whitespace(1).Regex("[ ]+", 1)
	b.Production("s", 2).
		Regex("[0-9]+", 2).Regex("/\\*:block_comment:", 2).EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	c := res.Machine

	if len(c.Lexer.ActionNames) != 1 || c.Lexer.ActionNames[0] != "block_comment" {
		t.Fatalf("the machine must carry the block_comment action: %v", c.Lexer.ActionNames)
	}

	s, err := New(c, strings.NewReader("12 /* skip me */ 34"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	err = s.RegisterAction("block_comment", func(ctx *ActionContext) error {
		rest := ctx.Rest()
		for i := 0; i+1 < len(rest); i++ {
			if rest[i] == '*' && rest[i+1] == '/' {
				ctx.Consume(i + 2)
				ctx.Terminal = Discard
				return nil
			}
		}
		ctx.Consume(len(rest))
		ctx.Terminal = Discard
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	toks := scanAll(t, s)
	if len(toks) != 3 {
		t.Fatalf("the comment must be discarded: %v tokens", len(toks))
	}
	if toks[0].Lexeme != "12" || toks[1].Lexeme != "34" {
		t.Fatalf("unexpected tokens: %+v %+v", toks[0], toks[1])
	}

	if err := s.RegisterAction("no_such_action", func(ctx *ActionContext) error { return nil }); err == nil {
		t.Fatalf("registering an unknown action must fail")
	}
}
