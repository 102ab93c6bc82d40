// Package symbol defines the grammar symbol entity and the flat table
// that owns all symbols of a grammar. Cross-references between
// entities are integer IDs indexing the table, which keeps the
// ownership graph tree-shaped.
package symbol

import (
	"fmt"
	"strings"
)

// Kind classifies a symbol. A symbol starts out as KindNull when it is
// referenced before anything declares what it is; the first non-null
// classification wins and later conflicting classifications are
// rejected.
type Kind int

const (
	KindNull Kind = iota
	KindTerminal
	KindNonTerminal
	KindEnd
)

func (k Kind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindNonTerminal:
		return "non-terminal"
	case KindEnd:
		return "end"
	}
	return "null"
}

// LexemeKind tells how a terminal's lexeme matches input.
type LexemeKind int

const (
	LexemeNull LexemeKind = iota

	// LexemeLiteral matches the lexeme byte-for-byte. The lexeme is
	// compiled without regex parsing, so metacharacters in it match
	// themselves.
	LexemeLiteral

	// LexemeRegularExpression matches via full regex semantics.
	LexemeRegularExpression
)

func (k LexemeKind) String() string {
	switch k {
	case LexemeLiteral:
		return "literal"
	case LexemeRegularExpression:
		return "regular expression"
	}
	return "null"
}

// Associativity of a terminal, set by a precedence directive.
type Associativity int

const (
	AssocNone Associativity = iota
	AssocLeft
	AssocRight
	AssocNonassoc
)

func (a Associativity) String() string {
	switch a {
	case AssocLeft:
		return "left"
	case AssocRight:
		return "right"
	case AssocNonassoc:
		return "nonassoc"
	}
	return "none"
}

// ID is a handle to a symbol: the index of the symbol in its table.
type ID int

const IDNil = ID(-1)

func (id ID) Int() int {
	return int(id)
}

func (id ID) IsNil() bool {
	return id == IDNil
}

// PrecNil marks a symbol that no precedence directive mentions.
const PrecNil = 0

// Symbol is a named grammar entity. Symbols are mutable while the
// grammar is being built and must not change once generation starts.
type Symbol struct {
	// Lexeme is the text the symbol was declared with. It is unique
	// within a table.
	Lexeme string

	// Identifier is the sanitized form of the lexeme, usable as an
	// identifier in generated artifacts.
	Identifier string

	Kind       Kind
	LexemeKind LexemeKind
	Assoc      Associativity

	// Prec is the number of the precedence directive that listed this
	// symbol, or PrecNil.
	Prec int

	// ID is the symbol's index in its table, assigned at registration.
	// Registration order is declaration order, which makes the ID
	// double as the declaration index the scanner uses to break
	// longest-match ties.
	ID ID

	// Line is the grammar source line the symbol first appeared on.
	Line int
}

func (s *Symbol) IsTerminal() bool {
	return s.Kind == KindTerminal || s.Kind == KindEnd
}

func (s *Symbol) IsNonTerminal() bool {
	return s.Kind == KindNonTerminal
}

// Distinguished symbol lexemes. The leading dot keeps them out of the
// user's namespace.
const (
	LexemeStart = ".start"
	LexemeEnd   = ".end"
	LexemeError = ".error"
)

// Table owns every symbol of one grammar. The distinguished symbols
// .start, .end, and .error always exist and occupy the first three
// slots.
type Table struct {
	symbols  []*Symbol
	byLexeme map[string]ID
}

func NewTable() *Table {
	t := &Table{
		byLexeme: map[string]ID{},
	}
	start, _ := t.register(LexemeStart)
	start.Kind = KindNonTerminal
	end, _ := t.register(LexemeEnd)
	end.Kind = KindEnd
	errSym, _ := t.register(LexemeError)
	errSym.Kind = KindTerminal
	return t
}

// Start returns the augmented start symbol.
func (t *Table) Start() *Symbol {
	return t.symbols[0]
}

// End returns the end-of-input symbol.
func (t *Table) End() *Symbol {
	return t.symbols[1]
}

// Error returns the error-recovery symbol.
func (t *Table) Error() *Symbol {
	return t.symbols[2]
}

func (t *Table) register(lexeme string) (*Symbol, bool) {
	if id, ok := t.byLexeme[lexeme]; ok {
		return t.symbols[id], false
	}
	sym := &Symbol{
		Lexeme:     lexeme,
		Identifier: sanitize(lexeme),
		ID:         ID(len(t.symbols)),
	}
	t.symbols = append(t.symbols, sym)
	t.byLexeme[lexeme] = sym.ID
	return sym, true
}

// Register returns the symbol with the given lexeme, creating it as
// KindNull when it doesn't exist yet. Lexeme equality is identity:
// declaring the same lexeme twice yields the same symbol.
func (t *Table) Register(lexeme string, line int) *Symbol {
	sym, created := t.register(lexeme)
	if created {
		sym.Line = line
	}
	return sym
}

// Classify assigns a kind to a symbol. The first non-null
// classification wins; a conflicting second classification is an
// error.
func (t *Table) Classify(sym *Symbol, kind Kind) error {
	if sym.Kind == KindNull {
		sym.Kind = kind
		return nil
	}
	if sym.Kind != kind {
		return fmt.Errorf("symbol %q is already declared as a %v, cannot redeclare as a %v", sym.Lexeme, sym.Kind, kind)
	}
	return nil
}

// ClassifyLexeme assigns a lexeme kind under the same first-wins rule.
func (t *Table) ClassifyLexeme(sym *Symbol, kind LexemeKind) error {
	if sym.LexemeKind == LexemeNull {
		sym.LexemeKind = kind
		return nil
	}
	if sym.LexemeKind != kind {
		return fmt.Errorf("symbol %q is already declared as a %v, cannot redeclare as a %v", sym.Lexeme, sym.LexemeKind, kind)
	}
	return nil
}

// Find looks a symbol up by lexeme.
func (t *Table) Find(lexeme string) (*Symbol, bool) {
	id, ok := t.byLexeme[lexeme]
	if !ok {
		return nil, false
	}
	return t.symbols[id], true
}

// Get returns the symbol a handle refers to.
func (t *Table) Get(id ID) *Symbol {
	return t.symbols[id]
}

// Len returns the number of symbols, distinguished ones included.
func (t *Table) Len() int {
	return len(t.symbols)
}

// Symbols returns all symbols in registration order. The slice is the
// table's own storage; callers must not modify it.
func (t *Table) Symbols() []*Symbol {
	return t.symbols
}

// Terminals returns the terminal symbols (the end symbol included) in
// registration order.
func (t *Table) Terminals() []*Symbol {
	var syms []*Symbol
	for _, sym := range t.symbols {
		if sym.IsTerminal() {
			syms = append(syms, sym)
		}
	}
	return syms
}

// NonTerminals returns the nonterminal symbols in registration order.
func (t *Table) NonTerminals() []*Symbol {
	var syms []*Symbol
	for _, sym := range t.symbols {
		if sym.IsNonTerminal() {
			syms = append(syms, sym)
		}
	}
	return syms
}

func sanitize(lexeme string) string {
	var b strings.Builder
	for _, c := range lexeme {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
