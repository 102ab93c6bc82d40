// Package grammar holds the in-memory grammar model and the LALR(1)
// parser generator that turns it into executable tables.
package grammar

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/symbol"
)

// ActionNil marks a production without a semantic action.
const ActionNil = -1

// Action is a named semantic hook attached to a production. Indices
// are assigned in declaration order starting at 0.
type Action struct {
	Num        int
	Identifier string
}

// Production is a rewrite rule LHS → RHS[0] … RHS[n-1]. Symbol
// references are table handles; the grammar's symbol table owns the
// symbols themselves.
type Production struct {
	// Num is globally unique. Number 0 is the augmented start
	// production the generator appends.
	Num int

	LHS symbol.ID
	RHS []symbol.ID

	// Action is an index into the grammar's action list, or ActionNil.
	Action int

	// PrecSym is an explicit precedence donor declared with
	// %precedence, or IDNil. Without it the rightmost terminal of RHS
	// donates precedence.
	PrecSym symbol.ID

	Line int
}

func (p *Production) IsEmpty() bool {
	return len(p.RHS) == 0
}

// Directive is one precedence group. Directives are numbered 1..N in
// declaration order and every symbol listed inherits that number as
// its precedence.
type Directive struct {
	Num     int
	Assoc   symbol.Associativity
	Symbols []symbol.ID
	Line    int
}

// LexerToken is one scanner token: either the pattern of a terminal
// symbol or an anonymous whitespace pattern.
type LexerToken struct {
	Kind    symbol.LexemeKind
	Line    int
	Sym     symbol.ID // IDNil for whitespace tokens
	Pattern string
}

// Grammar is the top-level container. It owns the symbol table and the
// flat production, action, and directive vectors; everything else
// refers into them by index. A grammar is mutable only while it is
// being built; once handed to Generate it must not change.
type Grammar struct {
	Name string

	Syms *symbol.Table

	// prods[0] is reserved for the augmented start production, which
	// Generate fills in as its first step.
	prods      []*Production
	prodsByLHS map[symbol.ID][]int

	actions       []*Action
	actionsByName map[string]int

	directives []*Directive

	whitespace []*LexerToken
}

func NewGrammar(name string) *Grammar {
	return &Grammar{
		Name:       name,
		Syms:       symbol.NewTable(),
		prods:      []*Production{nil},
		prodsByLHS: map[symbol.ID][]int{},

		actionsByName: map[string]int{},
	}
}

// Productions returns the production vector indexed by production
// number. Slot 0 is nil until Generate runs.
func (g *Grammar) Productions() []*Production {
	return g.prods
}

// Production returns the production with the given number.
func (g *Grammar) Production(num int) *Production {
	return g.prods[num]
}

// ProductionsOf returns the numbers of the productions whose LHS is
// sym, in declaration order.
func (g *Grammar) ProductionsOf(sym symbol.ID) []int {
	return g.prodsByLHS[sym]
}

// AppendProduction adds a rule to the grammar.
func (g *Grammar) AppendProduction(lhs symbol.ID, rhs []symbol.ID, action int, precSym symbol.ID, line int) *Production {
	prod := &Production{
		Num:     len(g.prods),
		LHS:     lhs,
		RHS:     rhs,
		Action:  action,
		PrecSym: precSym,
		Line:    line,
	}
	g.prods = append(g.prods, prod)
	g.prodsByLHS[lhs] = append(g.prodsByLHS[lhs], prod.Num)
	return prod
}

// Actions returns the action vector indexed by action number.
func (g *Grammar) Actions() []*Action {
	return g.actions
}

// InternAction returns the number of the action with the given
// identifier, registering it on first use.
func (g *Grammar) InternAction(identifier string) int {
	if num, ok := g.actionsByName[identifier]; ok {
		return num
	}
	act := &Action{
		Num:        len(g.actions),
		Identifier: identifier,
	}
	g.actions = append(g.actions, act)
	g.actionsByName[identifier] = act.Num
	return act.Num
}

// Directives returns the precedence groups in declaration order.
func (g *Grammar) Directives() []*Directive {
	return g.directives
}

// AppendDirective opens a new precedence group and returns it.
func (g *Grammar) AppendDirective(assoc symbol.Associativity, line int) *Directive {
	dir := &Directive{
		Num:   len(g.directives) + 1,
		Assoc: assoc,
		Line:  line,
	}
	g.directives = append(g.directives, dir)
	return dir
}

// Whitespace returns the whitespace token list.
func (g *Grammar) Whitespace() []*LexerToken {
	return g.whitespace
}

// AppendWhitespace adds a whitespace pattern.
func (g *Grammar) AppendWhitespace(kind symbol.LexemeKind, pattern string, line int) {
	g.whitespace = append(g.whitespace, &LexerToken{
		Kind:    kind,
		Line:    line,
		Sym:     symbol.IDNil,
		Pattern: pattern,
	})
}

// LexerTokens returns the scanner tokens of all terminal symbols that
// carry a lexeme, in declaration order. The end and error symbols
// never match input and are excluded.
func (g *Grammar) LexerTokens() []*LexerToken {
	var toks []*LexerToken
	for _, sym := range g.Syms.Terminals() {
		if sym.ID == g.Syms.End().ID || sym.ID == g.Syms.Error().ID {
			continue
		}
		kind := sym.LexemeKind
		if kind == symbol.LexemeNull {
			// A terminal declared only by a directive matches its own
			// lexeme literally.
			kind = symbol.LexemeLiteral
		}
		toks = append(toks, &LexerToken{
			Kind:    kind,
			Line:    sym.Line,
			Sym:     sym.ID,
			Pattern: sym.Lexeme,
		})
	}
	return toks
}

// startSymbol returns the user's start symbol: the first declared
// nonterminal.
func (g *Grammar) startSymbol() (*symbol.Symbol, error) {
	for _, sym := range g.Syms.Symbols() {
		if sym.ID == g.Syms.Start().ID {
			continue
		}
		if sym.IsNonTerminal() {
			return sym, nil
		}
	}
	return nil, fmt.Errorf("grammar %v declares no nonterminal", g.Name)
}

// augment appends the production .start → S .end with number 0, where
// S is the first declared nonterminal. Generate calls this exactly
// once as its first step.
func (g *Grammar) augment() (*Production, error) {
	if g.prods[0] != nil {
		return nil, fmt.Errorf("grammar %v is already augmented", g.Name)
	}
	start, err := g.startSymbol()
	if err != nil {
		return nil, err
	}
	prod := &Production{
		Num:    0,
		LHS:    g.Syms.Start().ID,
		RHS:    []symbol.ID{start.ID, g.Syms.End().ID},
		Action: ActionNil,

		PrecSym: symbol.IDNil,
	}
	g.prods[0] = prod
	g.prodsByLHS[prod.LHS] = []int{0}
	return prod, nil
}

// productionPrecedence resolves the precedence donor of a production:
// the explicit %precedence symbol when present, otherwise the
// rightmost terminal of the RHS.
func (g *Grammar) productionPrecedence(prod *Production) (int, symbol.Associativity) {
	donor := prod.PrecSym
	if donor.IsNil() {
		for i := len(prod.RHS) - 1; i >= 0; i-- {
			if g.Syms.Get(prod.RHS[i]).IsTerminal() {
				donor = prod.RHS[i]
				break
			}
		}
	}
	if donor.IsNil() {
		return symbol.PrecNil, symbol.AssocNone
	}
	sym := g.Syms.Get(donor)
	return sym.Prec, sym.Assoc
}
