package grammar

import (
	"testing"

	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/report"
)

// genCalcGrammar builds the classic precedence-disambiguated
// expression grammar:
//
//	%left '+'; %left '*';
//	E: E '+' T | T; T: T '*' F | F; F: '(' E ')' | 'n';
func genCalcGrammar(t *testing.T) *Grammar {
	t.Helper()

	b := NewBuilder("calc")
	b.Left(1).Literal("+", 1)
	b.Left(2).Literal("*", 2)
	b.Production("E", 3).
		Identifier("E", 3).Literal("+", 3).Identifier("T", 3).EndExpression(3).
		Identifier("T", 3).EndExpression(3)
	b.Production("T", 4).
		Identifier("T", 4).Literal("*", 4).Identifier("F", 4).EndExpression(4).
		Identifier("F", 4).EndExpression(4)
	b.Production("F", 5).
		Literal("(", 5).Identifier("E", 5).Literal(")", 5).EndExpression(5).
		Literal("n", 5).EndExpression(5)

	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

// genMatchedGrammar builds S: 'a' S 'b' | ;
func genMatchedGrammar(t *testing.T) *Grammar {
	t.Helper()

	b := NewBuilder("matched")
	b.Production("S", 1).
		Literal("a", 1).Identifier("S", 1).Literal("b", 1).EndExpression(1).
		EndExpression(1)

	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func mustGenerate(t *testing.T, g *Grammar) *GenerateResult {
	t.Helper()

	res, err := Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func mustFindSymbol(t *testing.T, g *Grammar, lexeme string) *symbol.Symbol {
	t.Helper()

	sym, ok := g.Syms.Find(lexeme)
	if !ok {
		t.Fatalf("symbol %q was not found", lexeme)
	}
	return sym
}
