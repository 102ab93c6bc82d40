package grammar

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/report"
)

// validation is one finding of the semantic checks.
type validation struct {
	code report.Code
	line int
	msg  string
}

// validate runs the semantic analyses over an augmented grammar:
// symbols referenced but never declared, nonterminals that cannot
// derive any terminal string, and nonterminals unreachable from the
// start symbol.
func (g *Grammar) validate() []*validation {
	var findings []*validation

	// Undeclared: a symbol still unclassified after the whole grammar
	// was built never appeared on a left-hand side and was not
	// declared as a terminal by a directive or by its lexeme form.
	for _, sym := range g.Syms.Symbols() {
		if sym.Kind == symbol.KindNull {
			findings = append(findings, &validation{
				code: report.CodeUndeclaredSymbol,
				line: sym.Line,
				msg:  fmt.Sprintf("symbol %q is referenced but never declared", sym.Lexeme),
			})
		}
	}

	// Unproductive: fixed point over "can derive a terminal string".
	productive := symbolIDSet{}
	for _, sym := range g.Syms.Symbols() {
		if sym.IsTerminal() {
			productive.add(sym.ID)
		}
	}
	for {
		changed := false
		for _, prod := range g.Productions() {
			if prod == nil || productive.has(prod.LHS) {
				continue
			}
			ok := true
			for _, id := range prod.RHS {
				if !productive.has(id) {
					ok = false
					break
				}
			}
			if ok {
				productive.add(prod.LHS)
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	for _, sym := range g.Syms.NonTerminals() {
		if !productive.has(sym.ID) {
			findings = append(findings, &validation{
				code: report.CodeUnproductiveSymbol,
				line: sym.Line,
				msg:  fmt.Sprintf("nonterminal %q cannot derive any terminal string", sym.Lexeme),
			})
		}
	}

	// Unreachable: breadth-first walk from the augmented start symbol.
	reached := symbolIDSet{}
	reached.add(g.Syms.Start().ID)
	frontier := []symbol.ID{g.Syms.Start().ID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, prodNum := range g.ProductionsOf(id) {
			for _, rhs := range g.Production(prodNum).RHS {
				if reached.add(rhs) && g.Syms.Get(rhs).IsNonTerminal() {
					frontier = append(frontier, rhs)
				}
			}
		}
	}
	for _, sym := range g.Syms.NonTerminals() {
		if !reached.has(sym.ID) {
			findings = append(findings, &validation{
				code: report.CodeUnreachableSymbol,
				line: sym.Line,
				msg:  fmt.Sprintf("nonterminal %q is not reachable from the start symbol", sym.Lexeme),
			})
		}
	}

	return findings
}
