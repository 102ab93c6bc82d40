// Package parser executes a generated parser state machine over the
// token stream of a scanner: shift, reduce, accept, and recovery
// through the error symbol.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/hakosu/grackle/driver/scanner"
	"github.com/hakosu/grackle/machine"
	"github.com/hakosu/grackle/report"
)

// Node is a semantic value. Without a reduce handler the parser builds
// plain syntax-tree nodes; handlers may return arbitrary replacements
// via Value.
type Node struct {
	// Symbol is the display name of the terminal or nonterminal.
	Symbol string

	// Lexeme is the matched text; empty on interior nodes.
	Lexeme string

	Row int
	Col int

	Children []*Node

	// Value is whatever a reduce handler attached.
	Value interface{}
}

// PrintTree writes an indented rendering of a tree.
func PrintTree(w io.Writer, node *Node) {
	printTree(w, node, 0)
}

func printTree(w io.Writer, node *Node, depth int) {
	if node == nil {
		return
	}
	indent := strings.Repeat("    ", depth)
	if node.Lexeme != "" {
		fmt.Fprintf(w, "%v%v %#v\n", indent, node.Symbol, node.Lexeme)
	} else {
		fmt.Fprintf(w, "%v%v\n", indent, node.Symbol)
	}
	for _, child := range node.Children {
		printTree(w, child, depth+1)
	}
}

// ReduceFunc is a reduce-action handler: it receives the semantic
// values of the right-hand side and returns the value of the
// left-hand side. The registry is keyed by identifier and disjoint
// from the scanner's action registry.
type ReduceFunc func(args []*Node) (*Node, error)

// SyntaxError is one parser failure.
type SyntaxError struct {
	Row      int
	Col      int
	Message  string
	Lexeme   string
	Expected []string
}

// EventKind tags entries of the parse trace.
type EventKind int

const (
	EventShift EventKind = iota
	EventReduce
	EventAccept
)

// Event is one step of the parse, in order. The reduce events replay
// the derivation bottom-up.
type Event struct {
	Kind       EventKind
	Production int
	Symbol     string
	Lexeme     string
}

func (e *Event) String() string {
	switch e.Kind {
	case EventShift:
		return fmt.Sprintf("shift %v", e.Symbol)
	case EventReduce:
		return fmt.Sprintf("reduce %v←%v", e.Symbol, e.Production)
	}
	return "accept"
}

// Parser is the runtime over one input. Parsers sharing the same
// state machine may run concurrently.
type Parser struct {
	m    *machine.ParserStateMachine
	scan *scanner.Scanner
	sink report.Sink

	stateStack []int
	semStack   []*Node

	actions []ReduceFunc

	tree    *Node
	events  []*Event
	synErrs []*SyntaxError

	onError bool
}

// New builds a parser over a compiled grammar and an input. The
// scanner is created internally; use Scanner to register lexer
// actions. A nil sink uses the default.
func New(c *machine.Compiled, src io.Reader, sink report.Sink) (*Parser, error) {
	if sink == nil {
		sink = report.DefaultSink()
	}
	scan, err := scanner.New(c, src, sink)
	if err != nil {
		return nil, err
	}
	return &Parser{
		m:       c.Parser,
		scan:    scan,
		sink:    sink,
		actions: make([]ReduceFunc, len(c.Parser.ActionNames)),
	}, nil
}

// Scanner returns the underlying scanner.
func (p *Parser) Scanner() *scanner.Scanner {
	return p.scan
}

// RegisterAction installs the handler for a reduce-action identifier.
// Productions whose action has no handler pass through: the parser
// builds a plain tree node.
func (p *Parser) RegisterAction(identifier string, fn ReduceFunc) error {
	for i, name := range p.m.ActionNames {
		if name == identifier {
			p.actions[i] = fn
			return nil
		}
	}
	return fmt.Errorf("the parser state machine has no action named %q", identifier)
}

// Parse runs the machine to acceptance or unrecoverable failure.
func (p *Parser) Parse() error {
	p.stateStack = p.stateStack[:0]
	p.semStack = p.semStack[:0]
	p.push(p.m.InitialState)

	tok, err := p.scan.Next()
	if err != nil {
		return err
	}

	for {
		entry := p.m.LookupAction(p.top(), tok.Terminal)
		kind, operand := machine.DecodeAction(entry)
		switch kind {
		case machine.ActionKindShift:
			p.shift(operand, tok)
			p.onError = false
			tok, err = p.scan.Next()
			if err != nil {
				return err
			}
		case machine.ActionKindReduce:
			if err := p.reduce(operand); err != nil {
				return err
			}
		case machine.ActionKindAccept:
			p.events = append(p.events, &Event{
				Kind: EventAccept,
			})
			if len(p.semStack) > 0 {
				p.tree = p.semStack[len(p.semStack)-1]
			}
			return nil
		default:
			tok, err = p.recover(tok)
			if err != nil {
				return err
			}
			if tok == nil {
				return nil
			}
		}
	}
}

// recover reports the failure and attempts the error-symbol path: pop
// states until one can shift .error, shift it, then discard input
// until a token has a non-error entry. A nil token result means the
// parser halts.
func (p *Parser) recover(tok *scanner.Token) (*scanner.Token, error) {
	if !p.onError {
		synErr := &SyntaxError{
			Row:      tok.Row,
			Col:      tok.Col,
			Message:  "unexpected token",
			Lexeme:   tok.Lexeme,
			Expected: p.expected(),
		}
		p.synErrs = append(p.synErrs, synErr)
		p.sink.Error(tok.Row, report.CodeParserFailure,
			fmt.Sprintf("unexpected token %v", tokenText(tok)))
	}
	p.onError = true

	// Pop until a state with an item A → α・.error β.
	for !p.m.ErrorTrapperStates[p.top()] {
		if p.top() == p.m.InitialState {
			return nil, nil
		}
		p.pop(1)
		p.semStack = p.semStack[:len(p.semStack)-1]
	}

	entry := p.m.LookupAction(p.top(), p.m.ErrorSymbol)
	kind, operand := machine.DecodeAction(entry)
	if kind != machine.ActionKindShift {
		return nil, fmt.Errorf("state %v traps errors but cannot shift the error symbol", p.top())
	}
	p.push(operand)
	p.semStack = append(p.semStack, &Node{
		Symbol: p.m.Terminals[p.m.ErrorSymbol],
	})

	// Skim tokens until one is meaningful in the recovery state.
	for {
		if entry := p.m.LookupAction(p.top(), tok.Terminal); entry != machine.ActionError {
			return tok, nil
		}
		if tok.EOF {
			return nil, nil
		}
		var err error
		tok, err = p.scan.Next()
		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) shift(nextState int, tok *scanner.Token) {
	p.push(nextState)
	p.semStack = append(p.semStack, &Node{
		Symbol: p.m.Terminals[tok.Terminal],
		Lexeme: tok.Lexeme,
		Row:    tok.Row,
		Col:    tok.Col,
	})
	p.events = append(p.events, &Event{
		Kind:   EventShift,
		Symbol: p.m.Terminals[tok.Terminal],
		Lexeme: tok.Lexeme,
	})
}

func (p *Parser) reduce(prodNum int) error {
	red := p.m.Reductions[prodNum]
	n := int(red.Length)
	lhs := p.m.NonTerminals[red.Symbol]

	handle := p.semStack[len(p.semStack)-n:]
	var value *Node
	if red.Action != machine.NoAction && p.actions[red.Action] != nil {
		v, err := p.actions[red.Action](handle)
		if err != nil {
			return err
		}
		value = v
	} else {
		children := make([]*Node, n)
		copy(children, handle)
		value = &Node{
			Symbol:   lhs,
			Children: children,
		}
	}

	p.pop(n)
	p.semStack = p.semStack[:len(p.semStack)-n]

	next, ok := p.m.LookupGoTo(p.top(), int(red.Symbol))
	if !ok {
		return fmt.Errorf("state %v has no goto on %v", p.top(), lhs)
	}
	p.push(next)
	p.semStack = append(p.semStack, value)

	p.events = append(p.events, &Event{
		Kind:       EventReduce,
		Production: prodNum,
		Symbol:     lhs,
	})
	return nil
}

func (p *Parser) expected() []string {
	var names []string
	for _, t := range p.m.ExpectedTerminals(p.top()) {
		names = append(names, p.m.Terminals[t])
	}
	return names
}

func tokenText(tok *scanner.Token) string {
	if tok.EOF {
		return "<eof>"
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}

// Tree returns the root semantic value after a successful parse.
func (p *Parser) Tree() *Node {
	return p.tree
}

// Events returns the parse trace.
func (p *Parser) Events() []*Event {
	return p.events
}

// SyntaxErrors returns the failures recorded during the parse.
func (p *Parser) SyntaxErrors() []*SyntaxError {
	return p.synErrs
}

func (p *Parser) top() int {
	return p.stateStack[len(p.stateStack)-1]
}

func (p *Parser) push(state int) {
	p.stateStack = append(p.stateStack, state)
}

func (p *Parser) pop(n int) {
	p.stateStack = p.stateStack[:len(p.stateStack)-n]
}
