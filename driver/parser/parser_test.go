package parser

import (
	"strings"
	"testing"

	"github.com/hakosu/grackle/grammar"
	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// genCalcMachine compiles
//
//	%left '+'; %left '*';
//	E: E '+' T | T; T: T '*' F | F; F: '(' E ')' | 'n';
func genCalcMachine(t *testing.T) *machine.Compiled {
	t.Helper()

	b := grammar.NewBuilder("calc")
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
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	return res.Machine
}

func reductions(events []*Event) []int {
	var prods []int
	for _, e := range events {
		if e.Kind == EventReduce {
			prods = append(prods, e.Production)
		}
	}
	return prods
}

func accepted(events []*Event) bool {
	return len(events) > 0 && events[len(events)-1].Kind == EventAccept
}

// n+n*n reduces F←n, T←F, E←T, F←n, T←F, F←n, T←T*F, E←E+T, then
// accepts. Production numbers follow declaration order: E→E+T is 1,
// E→T is 2, T→T*F is 3, T→F is 4, F→(E) is 5, F→n is 6.
func TestParser_reductionOrder(t *testing.T) {
	c := genCalcMachine(t)
	p, err := New(c, strings.NewReader("n+n*n"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}

	if !accepted(p.Events()) {
		t.Fatalf("n+n*n must be accepted")
	}
	want := []int{6, 4, 2, 6, 4, 6, 3, 1}
	got := reductions(p.Events())
	if len(got) != len(want) {
		t.Fatalf("want reductions %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("want reductions %v, got %v", want, got)
		}
	}
	if len(p.SyntaxErrors()) != 0 {
		t.Fatalf("a clean parse must record no syntax errors")
	}
}

func TestParser_matchedPairs(t *testing.T) {
	b := grammar.NewBuilder("matched")
	b.Production("S", 1).
		Literal("a", 1).Identifier("S", 1).Literal("b", 1).EndExpression(1).
		EndExpression(1)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("aaabbb accepts", func(t *testing.T) {
		p, err := New(res.Machine, strings.NewReader("aaabbb"), report.NullSink{})
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if !accepted(p.Events()) {
			t.Fatalf("aaabbb must be accepted")
		}
	})

	t.Run("aab fails", func(t *testing.T) {
		sink := report.NewCountingSink(report.NullSink{})
		p, err := New(res.Machine, strings.NewReader("aab"), sink)
		if err != nil {
			t.Fatal(err)
		}
		if err := p.Parse(); err != nil {
			t.Fatal(err)
		}
		if accepted(p.Events()) {
			t.Fatalf("aab must not be accepted")
		}
		if len(p.SyntaxErrors()) != 1 {
			t.Fatalf("want 1 syntax error, got %v", len(p.SyntaxErrors()))
		}
		if sink.ErrorCount() != 1 {
			t.Fatalf("the failure must reach the sink")
		}
	})
}

// E: E '+' E | 'n' with %left '+' parses n+n+n left-associatively:
// the first E+E reduces before the second '+' shifts.
func TestParser_leftAssociativity(t *testing.T) {
	b := grammar.NewBuilder("assoc")
	b.Left(1).Literal("+", 1)
	b.Production("E", 2).
		Identifier("E", 2).Literal("+", 2).Identifier("E", 2).EndExpression(2).
		Literal("n", 2).EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := New(res.Machine, strings.NewReader("n+n+n"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if !accepted(p.Events()) {
		t.Fatalf("n+n+n must be accepted")
	}

	// Left-associative: (n+n)+n reduces E→E+E, then again after the
	// last n; the tree's left child is itself a sum.
	tree := p.Tree()
	if tree == nil || tree.Symbol != "E" || len(tree.Children) != 3 {
		t.Fatalf("unexpected tree root: %+v", tree)
	}
	if len(tree.Children[0].Children) != 3 {
		t.Fatalf("the left operand must be the inner sum")
	}
	if len(tree.Children[2].Children) != 1 {
		t.Fatalf("the right operand must be a plain n")
	}
}

// stmt: expr ';' | error ';' recovers: the parser pops to the trapper
// state, shifts the error symbol, and resumes at ';'.
func TestParser_errorRecovery(t *testing.T) {
	b := grammar.NewBuilder("recovery")
	b.Production("stmt", 1).
		Identifier("expr", 1).Literal(";", 1).EndExpression(1).
		Error(1).Literal(";", 1).EndExpression(1)
	b.Production("expr", 2).
		Literal("n", 2).Literal("+", 2).Literal("n", 2).EndExpression(2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	sink := report.NewCountingSink(report.NullSink{})
	p, err := New(res.Machine, strings.NewReader("n;"), sink)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}

	if !accepted(p.Events()) {
		t.Fatalf("the parse must recover and accept")
	}
	if len(p.SyntaxErrors()) != 1 {
		t.Fatalf("want 1 syntax error, got %v", len(p.SyntaxErrors()))
	}

	// The recovery path reduces stmt ← .error ';'.
	stmtErr := -1
	stmt, _ := g.Syms.Find("stmt")
	for _, num := range g.ProductionsOf(stmt.ID) {
		if len(g.Production(num).RHS) == 2 && g.Production(num).RHS[0] == g.Syms.Error().ID {
			stmtErr = num
		}
	}
	found := false
	for _, prod := range reductions(p.Events()) {
		if prod == stmtErr {
			found = true
		}
	}
	if !found {
		t.Fatalf("the error production must reduce during recovery")
	}
}

func TestParser_unrecoverableHalts(t *testing.T) {
	c := genCalcMachine(t)
	p, err := New(c, strings.NewReader("+"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if accepted(p.Events()) {
		t.Fatalf("a bare '+' must not be accepted")
	}
	if len(p.SyntaxErrors()) != 1 {
		t.Fatalf("want 1 syntax error, got %v", len(p.SyntaxErrors()))
	}
	synErr := p.SyntaxErrors()[0]
	if len(synErr.Expected) == 0 {
		t.Fatalf("the error must list the expected terminals")
	}
}

// Reduce handlers replace the default tree nodes; unhandled actions
// pass through.
func TestParser_reduceActions(t *testing.T) {
	b := grammar.NewBuilder("sum")
	b.Left(1).Literal("+", 1)
	b.Production("E", 2).
		Identifier("E", 2).Literal("+", 2).Identifier("E", 2).Action("add", 2).
		Regex("[0-9]+", 2).Action("num", 2)
	g, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	p, err := New(res.Machine, strings.NewReader("1+2+3"), report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	err = p.RegisterAction("num", func(args []*Node) (*Node, error) {
		v := 0
		for _, c := range args[0].Lexeme {
			v = v*10 + int(c-'0')
		}
		return &Node{Symbol: "E", Value: v}, nil
	})
	if err != nil {
		t.Fatal(err)
	}
	err = p.RegisterAction("add", func(args []*Node) (*Node, error) {
		return &Node{
			Symbol: "E",
			Value:  args[0].Value.(int) + args[2].Value.(int),
		}, nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := p.Parse(); err != nil {
		t.Fatal(err)
	}
	if !accepted(p.Events()) {
		t.Fatalf("1+2+3 must be accepted")
	}
	if v := p.Tree().Value.(int); v != 6 {
		t.Fatalf("want 6, got %v", v)
	}

	if err := p.RegisterAction("no_such_action", func(args []*Node) (*Node, error) { return nil, nil }); err == nil {
		t.Fatalf("registering an unknown action must fail")
	}
}

func TestPrintTree(t *testing.T) {
	var b strings.Builder
	PrintTree(&b, &Node{
		Symbol: "E",
		Children: []*Node{
			{Symbol: "n", Lexeme: "1"},
		},
	})
	out := b.String()
	if !strings.Contains(out, "E") || !strings.Contains(out, `"1"`) {
		t.Fatalf("unexpected rendering:\n%v", out)
	}
}
