package grammar

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/report"
)

// Builder assembles a Grammar programmatically. At most one scope — a
// precedence directive, the whitespace block, or a production — is
// open at a time; opening a new scope closes the previous one, and
// each scope type exposes only the operations legal inside it.
type Builder struct {
	g     *Grammar
	scope interface{ close() }
	errs  report.SpecErrors
}

func NewBuilder(name string) *Builder {
	return &Builder{
		g: NewGrammar(name),
	}
}

func (b *Builder) error(line int, code report.Code, cause error) {
	b.errs = append(b.errs, &report.SpecError{
		Cause: cause,
		Code:  code,
		Row:   line,
	})
}

func (b *Builder) closeScope() {
	if b.scope != nil {
		b.scope.close()
		b.scope = nil
	}
}

// Left opens a left-associative precedence group.
func (b *Builder) Left(line int) *DirectiveScope {
	return b.directive(symbol.AssocLeft, line)
}

// Right opens a right-associative precedence group.
func (b *Builder) Right(line int) *DirectiveScope {
	return b.directive(symbol.AssocRight, line)
}

// None opens a non-associative precedence group. Terminals in the
// group reject chained uses at equal precedence: the conflict
// resolver writes an explicit error entry for them.
func (b *Builder) None(line int) *DirectiveScope {
	return b.directive(symbol.AssocNonassoc, line)
}

func (b *Builder) directive(assoc symbol.Associativity, line int) *DirectiveScope {
	b.closeScope()
	s := &DirectiveScope{
		b:   b,
		dir: b.g.AppendDirective(assoc, line),
	}
	b.scope = s
	return s
}

// Whitespace opens the whitespace block. Patterns appended to it are
// matched and discarded by the scanner between tokens.
func (b *Builder) Whitespace(line int) *WhitespaceScope {
	b.closeScope()
	s := &WhitespaceScope{
		b: b,
	}
	b.scope = s
	return s
}

// Production opens the rules of a nonterminal. Append right-hand-side
// symbols, then Action or EndExpression to finish each alternative.
func (b *Builder) Production(name string, line int) *ProductionScope {
	b.closeScope()
	sym := b.g.Syms.Register(name, line)
	if err := b.g.Syms.Classify(sym, symbol.KindNonTerminal); err != nil {
		b.error(line, report.CodeSyntaxError, err)
	}
	s := &ProductionScope{
		b:       b,
		lhs:     sym,
		line:    line,
		action:  ActionNil,
		precSym: symbol.IDNil,
	}
	b.scope = s
	return s
}

// Build closes any open scope and returns the finished grammar. The
// grammar is not yet validated or augmented; Generate does both.
func (b *Builder) Build() (*Grammar, error) {
	b.closeScope()
	if len(b.errs) > 0 {
		return nil, b.errs
	}
	return b.g, nil
}

// stale reports (and records) the use of a scope that a later scope
// has displaced.
func (b *Builder) stale(s interface{ close() }, line int) bool {
	if b.scope == s {
		return false
	}
	b.error(line, report.CodeSyntaxError, fmt.Errorf("builder scope used after it was closed"))
	return true
}

// DirectiveScope appends terminals to one precedence group.
type DirectiveScope struct {
	b   *Builder
	dir *Directive
}

func (s *DirectiveScope) close() {}

func (s *DirectiveScope) add(lexeme string, lexKind symbol.LexemeKind, line int) *DirectiveScope {
	if s.b.stale(s, line) {
		return s
	}
	sym := s.b.g.Syms.Register(lexeme, line)
	if err := s.b.g.Syms.Classify(sym, symbol.KindTerminal); err != nil {
		s.b.error(line, report.CodeSyntaxError, err)
		return s
	}
	if lexKind != symbol.LexemeNull {
		if err := s.b.g.Syms.ClassifyLexeme(sym, lexKind); err != nil {
			s.b.error(line, report.CodeSyntaxError, err)
			return s
		}
	}
	sym.Prec = s.dir.Num
	sym.Assoc = s.dir.Assoc
	s.dir.Symbols = append(s.dir.Symbols, sym.ID)
	return s
}

// Literal lists a literal terminal in the group.
func (s *DirectiveScope) Literal(lexeme string, line int) *DirectiveScope {
	return s.add(lexeme, symbol.LexemeLiteral, line)
}

// Regex lists a regex terminal in the group.
func (s *DirectiveScope) Regex(pattern string, line int) *DirectiveScope {
	return s.add(pattern, symbol.LexemeRegularExpression, line)
}

// Identifier lists a named terminal in the group.
func (s *DirectiveScope) Identifier(name string, line int) *DirectiveScope {
	return s.add(name, symbol.LexemeNull, line)
}

// WhitespaceScope appends patterns to the whitespace token set.
type WhitespaceScope struct {
	b *Builder
}

func (s *WhitespaceScope) close() {}

// Literal adds a literal whitespace pattern.
func (s *WhitespaceScope) Literal(lexeme string, line int) *WhitespaceScope {
	if s.b.stale(s, line) {
		return s
	}
	s.b.g.AppendWhitespace(symbol.LexemeLiteral, lexeme, line)
	return s
}

// Regex adds a regex whitespace pattern.
func (s *WhitespaceScope) Regex(pattern string, line int) *WhitespaceScope {
	if s.b.stale(s, line) {
		return s
	}
	s.b.g.AppendWhitespace(symbol.LexemeRegularExpression, pattern, line)
	return s
}

// ProductionScope appends the alternatives of one nonterminal.
type ProductionScope struct {
	b    *Builder
	lhs  *symbol.Symbol
	line int

	rhs      []symbol.ID
	action   int
	precSym  symbol.ID
	precNext bool
	open     bool
}

func (s *ProductionScope) close() {
	if s.open {
		s.endExpression(s.line)
	}
}

func (s *ProductionScope) append(sym *symbol.Symbol, line int) {
	s.open = true
	if s.precNext {
		s.precNext = false
		s.precSym = sym.ID
		return
	}
	s.rhs = append(s.rhs, sym.ID)
}

// Identifier appends a symbol reference. The symbol stays unclassified
// until a production or directive declares what it is; symbols still
// unclassified at generation are undeclared.
func (s *ProductionScope) Identifier(name string, line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	s.append(s.b.g.Syms.Register(name, line), line)
	return s
}

// Literal appends a literal terminal.
func (s *ProductionScope) Literal(lexeme string, line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	sym := s.b.g.Syms.Register(lexeme, line)
	if err := s.b.g.Syms.Classify(sym, symbol.KindTerminal); err != nil {
		s.b.error(line, report.CodeSyntaxError, err)
		return s
	}
	if err := s.b.g.Syms.ClassifyLexeme(sym, symbol.LexemeLiteral); err != nil {
		s.b.error(line, report.CodeSyntaxError, err)
		return s
	}
	s.append(sym, line)
	return s
}

// Regex appends a regex terminal.
func (s *ProductionScope) Regex(pattern string, line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	sym := s.b.g.Syms.Register(pattern, line)
	if err := s.b.g.Syms.Classify(sym, symbol.KindTerminal); err != nil {
		s.b.error(line, report.CodeSyntaxError, err)
		return s
	}
	if err := s.b.g.Syms.ClassifyLexeme(sym, symbol.LexemeRegularExpression); err != nil {
		s.b.error(line, report.CodeSyntaxError, err)
		return s
	}
	s.append(sym, line)
	return s
}

// Error appends the built-in error-recovery symbol.
func (s *ProductionScope) Error(line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	s.append(s.b.g.Syms.Error(), line)
	return s
}

// Precedence marks that the next symbol donates its precedence to the
// current alternative instead of joining the right-hand side.
func (s *ProductionScope) Precedence() *ProductionScope {
	if s.b.stale(s, s.line) {
		return s
	}
	s.open = true
	s.precNext = true
	return s
}

// Action attaches the named semantic action and closes the current
// alternative.
func (s *ProductionScope) Action(identifier string, line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	s.open = true
	s.action = s.b.g.InternAction(identifier)
	return s.endExpression(line)
}

// EndExpression closes the current alternative. An alternative with no
// appended symbols registers an ε-production.
func (s *ProductionScope) EndExpression(line int) *ProductionScope {
	if s.b.stale(s, line) {
		return s
	}
	return s.endExpression(line)
}

func (s *ProductionScope) endExpression(line int) *ProductionScope {
	if s.precNext {
		s.b.error(line, report.CodeSyntaxError, fmt.Errorf("%%precedence is not followed by a symbol"))
	}
	s.b.g.AppendProduction(s.lhs.ID, s.rhs, s.action, s.precSym, line)
	s.rhs = nil
	s.action = ActionNil
	s.precSym = symbol.IDNil
	s.precNext = false
	s.open = false
	return s
}
