package grammar

import (
	"testing"

	"github.com/hakosu/grackle/grammar/symbol"
)

func TestBuilder_scopes(t *testing.T) {
	b := NewBuilder("test")
	b.Left(1).Literal("+", 1).Literal("-", 1)
	b.Right(2).Literal("^", 2)
	b.Whitespace(3).Regex("[ \\t]+", 3)
	b.Production("expr", 4).
		Identifier("expr", 4).Literal("+", 4).Identifier("expr", 4).Action("add", 4).
		Literal("n", 4).EndExpression(4)

	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	plus := mustFindSymbol(t, g, "+")
	if plus.Kind != symbol.KindTerminal || plus.Prec != 1 || plus.Assoc != symbol.AssocLeft {
		t.Fatalf("unexpected '+': kind: %v, prec: %v, assoc: %v", plus.Kind, plus.Prec, plus.Assoc)
	}
	caret := mustFindSymbol(t, g, "^")
	if caret.Prec != 2 || caret.Assoc != symbol.AssocRight {
		t.Fatalf("unexpected '^': prec: %v, assoc: %v", caret.Prec, caret.Assoc)
	}

	if len(g.Whitespace()) != 1 || g.Whitespace()[0].Pattern != "[ \\t]+" {
		t.Fatalf("unexpected whitespace set: %+v", g.Whitespace())
	}

	expr := mustFindSymbol(t, g, "expr")
	if expr.Kind != symbol.KindNonTerminal {
		t.Fatalf("expr must be a nonterminal: %v", expr.Kind)
	}
	prods := g.ProductionsOf(expr.ID)
	if len(prods) != 2 {
		t.Fatalf("expr must have 2 productions: %v", len(prods))
	}
	add := g.Production(prods[0])
	if add.Action == ActionNil || g.Actions()[add.Action].Identifier != "add" {
		t.Fatalf("the first alternative must carry the add action")
	}
	if g.Production(prods[1]).Action != ActionNil {
		t.Fatalf("the second alternative must carry no action")
	}
}

func TestBuilder_emptyAlternativeIsEpsilonProduction(t *testing.T) {
	b := NewBuilder("test")
	b.Production("S", 1).
		Literal("a", 1).EndExpression(1).
		EndExpression(1)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	s := mustFindSymbol(t, g, "S")
	prods := g.ProductionsOf(s.ID)
	if len(prods) != 2 {
		t.Fatalf("S must have 2 productions: %v", len(prods))
	}
	if !g.Production(prods[1]).IsEmpty() {
		t.Fatalf("the second alternative must be an ε-production")
	}
}

func TestBuilder_precedenceDonorIsNotPartOfRHS(t *testing.T) {
	b := NewBuilder("test")
	b.Left(1).Literal("u", 1)
	b.Production("E", 2).
		Literal("-", 2).Identifier("E", 2).Precedence().Literal("u", 2).EndExpression(2).
		Literal("n", 2).EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}

	e := mustFindSymbol(t, g, "E")
	neg := g.Production(g.ProductionsOf(e.ID)[0])
	if len(neg.RHS) != 2 {
		t.Fatalf("the donor must not join the RHS: %v symbols", len(neg.RHS))
	}
	u := mustFindSymbol(t, g, "u")
	if neg.PrecSym != u.ID {
		t.Fatalf("the production must take its precedence from 'u'")
	}
	prec, assoc := g.productionPrecedence(neg)
	if prec != 1 || assoc != symbol.AssocLeft {
		t.Fatalf("unexpected production precedence: %v %v", prec, assoc)
	}
}

func TestBuilder_rightmostTerminalDonatesPrecedence(t *testing.T) {
	g := genCalcGrammar(t)
	e := mustFindSymbol(t, g, "E")
	add := g.Production(g.ProductionsOf(e.ID)[0])
	prec, assoc := g.productionPrecedence(add)
	if prec != 1 || assoc != symbol.AssocLeft {
		t.Fatalf("E → E + T must inherit the precedence of '+': %v %v", prec, assoc)
	}
}

func TestBuilder_staleScopeIsAnError(t *testing.T) {
	b := NewBuilder("test")
	dir := b.Left(1)
	b.Production("S", 2).Literal("a", 2).EndExpression(2)
	dir.Literal("+", 3)

	_, err := b.Build()
	if err == nil {
		t.Fatalf("using a displaced scope must fail the build")
	}
}

func TestBuilder_conflictingClassificationIsAnError(t *testing.T) {
	b := NewBuilder("test")
	b.Production("S", 1).Identifier("x", 1).EndExpression(1)
	// x was referenced, then declared a nonterminal: fine.
	b.Production("x", 2).Literal("a", 2).EndExpression(2)
	// Declaring the nonterminal S as a terminal in a directive is not.
	b.Left(3).Identifier("S", 3)

	_, err := b.Build()
	if err == nil {
		t.Fatalf("conflicting classifications must fail the build")
	}
}
