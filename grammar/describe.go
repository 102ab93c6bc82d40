package grammar

import (
	"fmt"
	"io"
	"strings"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	"github.com/hakosu/grackle/grammar/symbol"
)

// Describe renders the generated automaton in a human-readable form:
// conflicts, the symbol tables, the productions, and every state with
// its kernel items and actions.
func (r *GenerateResult) Describe(w io.Writer) {
	g := r.Grammar

	fmt.Fprintf(w, "# Conflicts\n\n")
	if len(r.conflicts) > 0 {
		fmt.Fprintf(w, "%v conflicts:\n\n", len(r.conflicts))
		for _, c := range r.conflicts {
			fmt.Fprintf(w, "%v\n", c.describe(g))
		}
		fmt.Fprintf(w, "\n")
	} else {
		fmt.Fprintf(w, "no conflicts\n\n")
	}

	fmt.Fprintf(w, "# Terminals\n\n%v symbols:\n\n", len(r.num.terms))
	for i, sym := range r.num.terms {
		fmt.Fprintf(w, "%4v %v\n", i, r.symbolText(sym.ID))
	}

	fmt.Fprintf(w, "\n# Nonterminals\n\n%v symbols:\n\n", len(r.num.nonTerms))
	for i, sym := range r.num.nonTerms {
		fmt.Fprintf(w, "%4v %v\n", i, sym.Lexeme)
	}

	fmt.Fprintf(w, "\n# Productions\n\n%v productions:\n\n", len(g.Productions()))
	for _, prod := range g.Productions() {
		if prod == nil {
			continue
		}
		fmt.Fprintf(w, "%4v %v\n", prod.Num, r.productionText(prod, -1))
	}

	fmt.Fprintf(w, "\n# States\n\n%v states:\n\n", len(r.automaton.states))
	for _, state := range r.automaton.states {
		fmt.Fprintf(w, "state %v\n", state.num)

		for _, c := range state.kernelCores() {
			fmt.Fprintf(w, "    %v\n", r.productionText(g.Production(c.prod), c.dot))
		}
		fmt.Fprintf(w, "\n")

		expected := treeset.NewWith(utils.IntComparator)
		next := symbolIDSet{}
		for sym := range state.next {
			next.add(sym)
		}
		for _, sym := range next.sorted() {
			target := state.next[sym]
			if g.Syms.Get(sym).IsTerminal() {
				expected.Add(r.num.termIdx[sym])
				fmt.Fprintf(w, "    shift  %4v on %v\n", target, r.symbolText(sym))
			} else {
				fmt.Fprintf(w, "    goto   %4v on %v\n", target, g.Syms.Get(sym).Lexeme)
			}
		}
		for _, item := range r.automaton.reducibleItems(state) {
			if item.core.prod == 0 {
				continue
			}
			for _, la := range item.lookAhead.sorted() {
				expected.Add(r.num.termIdx[la])
				fmt.Fprintf(w, "    reduce %4v on %v\n", item.core.prod, r.symbolText(la))
			}
		}
		if _, ok := r.automaton.acceptCore(state); ok {
			expected.Add(r.num.termIdx[g.Syms.End().ID])
			fmt.Fprintf(w, "    accept on %v\n", g.Syms.End().Lexeme)
		}

		if !expected.Empty() {
			var names []string
			for _, v := range expected.Values() {
				names = append(names, r.symbolText(r.num.terms[v.(int)].ID))
			}
			fmt.Fprintf(w, "\n    expected: %v\n", strings.Join(names, ", "))
		}
		fmt.Fprintf(w, "\n")
	}
}

func (r *GenerateResult) productionText(prod *Production, dot int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", r.Grammar.Syms.Get(prod.LHS).Lexeme)
	for i, id := range prod.RHS {
		if i == dot {
			fmt.Fprintf(&b, " ・")
		}
		fmt.Fprintf(&b, " %v", r.symbolText(id))
	}
	if dot == len(prod.RHS) {
		fmt.Fprintf(&b, " ・")
	}
	return b.String()
}

func (r *GenerateResult) symbolText(id symbol.ID) string {
	sym := r.Grammar.Syms.Get(id)
	switch sym.LexemeKind {
	case symbol.LexemeLiteral:
		return fmt.Sprintf("'%v'", sym.Lexeme)
	case symbol.LexemeRegularExpression:
		return fmt.Sprintf("%q", sym.Lexeme)
	}
	return sym.Lexeme
}
