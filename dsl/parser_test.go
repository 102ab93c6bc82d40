package dsl

import (
	"strings"
	"testing"

	"github.com/hakosu/grackle/grammar"
	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/report"
	"github.com/hakosu/grackle/tester"
)

const calcSource = `
calc;

# precedence climbs downward
%left '+' '-';
%left '*' '/';
%whitespace "[ \t\n]+";

expr: expr '+' expr [add]
    | expr '-' expr [sub]
    | expr '*' expr [mul]
    | expr '/' expr [div]
    | "[0-9]+" [num]
    ;
`

func TestParse(t *testing.T) {
	g, err := Parse(strings.NewReader(calcSource), "calc")
	if err != nil {
		t.Fatal(err)
	}

	if g.Name != "calc" {
		t.Fatalf("want grammar name calc, got %v", g.Name)
	}

	dirs := g.Directives()
	if len(dirs) != 2 {
		t.Fatalf("want 2 directives, got %v", len(dirs))
	}
	if dirs[0].Num != 1 || dirs[0].Assoc != symbol.AssocLeft || len(dirs[0].Symbols) != 2 {
		t.Fatalf("unexpected first directive: %+v", dirs[0])
	}

	star, ok := g.Syms.Find("*")
	if !ok || star.Prec != 2 || star.Assoc != symbol.AssocLeft || star.Kind != symbol.KindTerminal {
		t.Fatalf("unexpected '*': %+v", star)
	}

	if len(g.Whitespace()) != 1 {
		t.Fatalf("want 1 whitespace pattern, got %v", len(g.Whitespace()))
	}

	expr, ok := g.Syms.Find("expr")
	if !ok || expr.Kind != symbol.KindNonTerminal {
		t.Fatalf("expr must be a nonterminal")
	}
	prods := g.ProductionsOf(expr.ID)
	if len(prods) != 5 {
		t.Fatalf("want 5 productions of expr, got %v", len(prods))
	}
	acts := g.Actions()
	if len(acts) != 5 {
		t.Fatalf("want 5 actions, got %v", len(acts))
	}
	if acts[0].Identifier != "add" || acts[4].Identifier != "num" {
		t.Fatalf("actions must intern in declaration order: %v, %v", acts[0].Identifier, acts[4].Identifier)
	}

	num, ok := g.Syms.Find("[0-9]+")
	if !ok || num.LexemeKind != symbol.LexemeRegularExpression {
		t.Fatalf("the number token must be a regex terminal")
	}
}

func TestParse_endToEnd(t *testing.T) {
	g, err := Parse(strings.NewReader(calcSource), "calc")
	if err != nil {
		t.Fatal(err)
	}
	res, err := grammar.Generate(g, report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}

	result, err := tester.RunString(res.Machine, "1 + 2 * 3", report.NullSink{})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Accepted() {
		t.Fatalf("1 + 2 * 3 must be accepted:\n%v", result.Trace())
	}
}

func TestParse_epsilonAlternative(t *testing.T) {
	src := `
matched;
s: 'a' s 'b' | ;
`
	g, err := Parse(strings.NewReader(src), "matched")
	if err != nil {
		t.Fatal(err)
	}
	s, _ := g.Syms.Find("s")
	prods := g.ProductionsOf(s.ID)
	if len(prods) != 2 || !g.Production(prods[1]).IsEmpty() {
		t.Fatalf("the second alternative must be an ε-production")
	}
}

func TestParse_errorSymbolAndPrecedenceOverride(t *testing.T) {
	src := `
stmts;
%left '+';
%left u;
stmt: expr ';' | error ';' ;
expr: expr '+' expr
    | '-' expr %precedence u
    | 'n'
    ;
`
	g, err := Parse(strings.NewReader(src), "stmts")
	if err != nil {
		t.Fatal(err)
	}

	stmt, _ := g.Syms.Find("stmt")
	prods := g.ProductionsOf(stmt.ID)
	if g.Production(prods[1]).RHS[0] != g.Syms.Error().ID {
		t.Fatalf("the error keyword must reference the built-in error symbol")
	}

	expr, _ := g.Syms.Find("expr")
	neg := g.Production(g.ProductionsOf(expr.ID)[1])
	u, _ := g.Syms.Find("u")
	if neg.PrecSym != u.ID {
		t.Fatalf("%%precedence must set the donor, got %v", neg.PrecSym)
	}
	if len(neg.RHS) != 2 {
		t.Fatalf("the donor must not join the RHS: %v symbols", len(neg.RHS))
	}
}

func TestParse_syntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{name: "missing grammar name", src: `: ;`},
		{name: "missing name terminator", src: `calc`},
		{name: "unknown directive", src: "calc;\n%foo 'x';\ns: 'a';"},
		{name: "unclosed literal", src: "calc;\ns: 'a;\n"},
		{name: "action without identifier", src: "calc;\ns: 'a' [ ];"},
		{name: "two actions in one alternative", src: "calc;\ns: 'a' [x] [y];"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.src), "test"); err == nil {
				t.Fatalf("source must not parse:\n%v", tt.src)
			}
		})
	}
}
