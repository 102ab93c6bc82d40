package grammar

import (
	"testing"

	"github.com/hakosu/grackle/report"
)

func findValidation(findings []*validation, code report.Code) *validation {
	for _, v := range findings {
		if v.code == code {
			return v
		}
	}
	return nil
}

func TestValidate(t *testing.T) {
	t.Run("clean grammar has no findings", func(t *testing.T) {
		g := genCalcGrammar(t)
		if _, err := g.augment(); err != nil {
			t.Fatal(err)
		}
		if findings := g.validate(); len(findings) != 0 {
			t.Fatalf("want no findings, got %v", len(findings))
		}
	})

	t.Run("undeclared symbol", func(t *testing.T) {
		b := NewBuilder("test")
		b.Production("S", 1).
			Identifier("missing", 1).EndExpression(1)
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.augment(); err != nil {
			t.Fatal(err)
		}
		v := findValidation(g.validate(), report.CodeUndeclaredSymbol)
		if v == nil {
			t.Fatalf("want an undeclared-symbol finding")
		}
	})

	t.Run("unproductive symbol", func(t *testing.T) {
		b := NewBuilder("test")
		b.Production("S", 1).
			Literal("a", 1).EndExpression(1).
			Identifier("L", 1).EndExpression(1)
		// L only derives itself and can never bottom out.
		b.Production("L", 2).
			Identifier("L", 2).Literal("x", 2).EndExpression(2)
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.augment(); err != nil {
			t.Fatal(err)
		}
		v := findValidation(g.validate(), report.CodeUnproductiveSymbol)
		if v == nil {
			t.Fatalf("want an unproductive-symbol finding")
		}
	})

	t.Run("unreachable symbol", func(t *testing.T) {
		b := NewBuilder("test")
		b.Production("S", 1).
			Literal("a", 1).EndExpression(1)
		b.Production("orphan", 2).
			Literal("b", 2).EndExpression(2)
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := g.augment(); err != nil {
			t.Fatal(err)
		}
		v := findValidation(g.validate(), report.CodeUnreachableSymbol)
		if v == nil {
			t.Fatalf("want an unreachable-symbol finding")
		}
	})

	t.Run("undeclared symbol aborts generation", func(t *testing.T) {
		b := NewBuilder("test")
		b.Production("S", 1).
			Identifier("missing", 1).EndExpression(1)
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Generate(g, report.NullSink{}); err == nil {
			t.Fatalf("generation must fail on an undeclared symbol")
		}
	})

	t.Run("unreachable symbol does not abort generation", func(t *testing.T) {
		b := NewBuilder("test")
		b.Production("S", 1).
			Literal("a", 1).EndExpression(1)
		b.Production("orphan", 2).
			Literal("b", 2).EndExpression(2)
		g, err := b.Build()
		if err != nil {
			t.Fatal(err)
		}
		sink := report.NewCountingSink(report.NullSink{})
		if _, err := Generate(g, sink); err != nil {
			t.Fatal(err)
		}
		if sink.ErrorCount() == 0 {
			t.Fatalf("the finding must still be reported")
		}
	})
}
