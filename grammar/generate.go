package grammar

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/hakosu/grackle/grammar/lexical"
	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// GenerateResult carries the generated machines plus the intermediate
// artifacts the description writer renders.
type GenerateResult struct {
	Grammar  *Grammar
	Machine  *machine.Compiled
	Warnings int

	automaton *lalrAutomaton
	conflicts []conflict
	num       *numbering
	first     *firstSet
	follow    *followSet
}

// Generate runs the whole pipeline over a built grammar: augment,
// validate, FIRST/FOLLOW, the LALR(1) collection, the parser tables
// with conflict resolution, and the scanner DFAs. Diagnostics flow
// through the sink; a fatal diagnostic aborts with no tables. The
// grammar must not be mutated afterwards.
func Generate(g *Grammar, sink report.Sink) (*GenerateResult, error) {
	if sink == nil {
		sink = report.DefaultSink()
	}
	counting := report.NewCountingSink(sink)

	if _, err := g.augment(); err != nil {
		return nil, err
	}

	for _, v := range g.validate() {
		counting.Error(v.line, v.code, v.msg)
	}
	if counting.FatalCount() > 0 {
		return nil, fmt.Errorf("grammar %v has fatal errors", g.Name)
	}

	first, err := genFirstSet(g)
	if err != nil {
		return nil, err
	}
	follow, err := genFollowSet(g, first)
	if err != nil {
		return nil, err
	}

	automaton, err := genLALRAutomaton(g, first)
	if err != nil {
		return nil, err
	}

	tb := &tableBuilder{
		g:         g,
		automaton: automaton,
		num:       genNumbering(g),
	}
	ptab, err := tb.build()
	if err != nil {
		return nil, err
	}

	warnings := 0
	for _, c := range tb.conflicts {
		code := report.CodeShiftReduceConflict
		if _, ok := c.(*reduceReduceConflict); ok {
			code = report.CodeReduceReduceConflict
		}
		counting.Error(0, code, c.describe(g))
		if c.warning() {
			warnings++
		}
	}

	var tokens []*lexical.Entry
	for _, tok := range g.LexerTokens() {
		tokens = append(tokens, &lexical.Entry{
			Kind:    tok.Kind,
			Pattern: tok.Pattern,
			Accept:  int32(tb.num.termIdx[tok.Sym]),
			Line:    tok.Line,
		})
	}
	var whitespace []*lexical.Entry
	for i, tok := range g.Whitespace() {
		whitespace = append(whitespace, &lexical.Entry{
			Kind:    tok.Kind,
			Pattern: tok.Pattern,
			Accept:  int32(i),
			Line:    tok.Line,
		})
	}
	ltab, cerrs := lexical.Compile(tokens, whitespace)
	if len(cerrs) > 0 {
		for _, cerr := range cerrs {
			counting.Error(cerr.Line, report.CodeSyntaxError, cerr.Error())
		}
		return nil, fmt.Errorf("grammar %v has malformed patterns", g.Name)
	}

	return &GenerateResult{
		Grammar: g,
		Machine: &machine.Compiled{
			Name:        g.Name,
			Fingerprint: g.fingerprint(),
			Lexer:       ltab,
			Parser:      ptab,
		},
		Warnings: warnings,

		automaton: automaton,
		conflicts: tb.conflicts,
		num:       tb.num,
		first:     first,
		follow:    follow,
	}, nil
}

// fingerprint hashes the canonical serialization of the grammar, so
// the identity of a table file can be traced back to its source
// independent of internal representation changes.
func (g *Grammar) fingerprint() [32]byte {
	var b strings.Builder
	fmt.Fprintf(&b, "grammar %v\n", g.Name)
	for _, dir := range g.directives {
		fmt.Fprintf(&b, "dir %v %v", dir.Num, dir.Assoc)
		for _, id := range dir.Symbols {
			fmt.Fprintf(&b, " %q", g.Syms.Get(id).Lexeme)
		}
		fmt.Fprintf(&b, "\n")
	}
	for _, sym := range g.Syms.Symbols() {
		fmt.Fprintf(&b, "sym %q %v %v %v %v\n", sym.Lexeme, sym.Kind, sym.LexemeKind, sym.Assoc, sym.Prec)
	}
	for _, prod := range g.prods {
		if prod == nil {
			continue
		}
		fmt.Fprintf(&b, "prod %v %q ←", prod.Num, g.Syms.Get(prod.LHS).Lexeme)
		for _, id := range prod.RHS {
			fmt.Fprintf(&b, " %q", g.Syms.Get(id).Lexeme)
		}
		if prod.Action != ActionNil {
			fmt.Fprintf(&b, " [%v]", g.actions[prod.Action].Identifier)
		}
		if !prod.PrecSym.IsNil() {
			fmt.Fprintf(&b, " prec %q", g.Syms.Get(prod.PrecSym).Lexeme)
		}
		fmt.Fprintf(&b, "\n")
	}
	for _, ws := range g.whitespace {
		fmt.Fprintf(&b, "ws %v %q\n", ws.Kind, ws.Pattern)
	}
	return sha256.Sum256([]byte(b.String()))
}
