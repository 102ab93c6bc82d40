// Package machine defines the deterministic state machines the
// generator emits: a range-keyed scanner DFA pair and a shift/reduce
// parser table. The tables are immutable once built; any number of
// runtime instances may share them.
package machine

import "math"

// Parser action encoding. One int32 per (state, terminal) cell:
// zero is the error entry, negative entries shift to state -n,
// positive entries reduce production n, and ActionAccept accepts.
// State 0 is never a shift target and production 0 (the augmented
// start) is never reduced, so the encodings cannot collide.
const (
	ActionError  = int32(0)
	ActionAccept = int32(math.MaxInt32)
)

func EncodeShift(state int) int32 {
	return int32(-state)
}

func EncodeReduce(prod int) int32 {
	return int32(prod)
}

type ActionKind int

const (
	ActionKindError ActionKind = iota
	ActionKindShift
	ActionKindReduce
	ActionKindAccept
)

// DecodeAction splits an action entry into its kind and operand
// (target state for shifts, production number for reduces).
func DecodeAction(entry int32) (ActionKind, int) {
	switch {
	case entry == ActionError:
		return ActionKindError, 0
	case entry == ActionAccept:
		return ActionKindAccept, 0
	case entry < 0:
		return ActionKindShift, int(-entry)
	}
	return ActionKindReduce, int(entry)
}

// NoAction marks a reduction or accepting state without a handler.
const NoAction = int32(-1)

// Reduction describes one production for the runtime: the nonterminal
// index to goto on, how many states to pop, and the reduce-action
// handler index (NoAction when the production has none).
type Reduction struct {
	Symbol int32
	Length int32
	Action int32
}

// ParserStateMachine is the generated parser table set.
type ParserStateMachine struct {
	Name string

	TerminalCount    int
	NonTerminalCount int
	StateCount       int

	InitialState int

	// EndSymbol and ErrorSymbol are terminal indices.
	EndSymbol   int
	ErrorSymbol int

	// Action is StateCount×TerminalCount, row-major.
	Action []int32

	// GoTo is StateCount×NonTerminalCount, row-major. Zero is the
	// error entry; state 0 is never a goto target.
	GoTo []int32

	// ErrorTrapperStates flags states with an item of the form
	// A → α・.error β.
	ErrorTrapperStates []bool

	// Reductions is indexed by production number. Entry 0 is the
	// augmented start production and is never reduced.
	Reductions []Reduction

	// Terminals and NonTerminals map table indices back to lexemes.
	Terminals    []string
	NonTerminals []string

	// ActionNames maps reduce-action indices to their identifiers.
	ActionNames []string
}

// LookupAction returns the action entry for (state, terminal).
func (m *ParserStateMachine) LookupAction(state, terminal int) int32 {
	return m.Action[state*m.TerminalCount+terminal]
}

// LookupGoTo returns the goto target for (state, nonterminal), or
// false for an error entry.
func (m *ParserStateMachine) LookupGoTo(state, nonTerminal int) (int, bool) {
	next := m.GoTo[state*m.NonTerminalCount+nonTerminal]
	if next == 0 {
		return 0, false
	}
	return int(next), true
}

// ExpectedTerminals returns the terminal indices with a non-error
// entry in the state's action row, the error symbol excluded.
func (m *ParserStateMachine) ExpectedTerminals(state int) []int {
	var terms []int
	base := state * m.TerminalCount
	for t := 0; t < m.TerminalCount; t++ {
		if m.Action[base+t] == ActionError || t == m.ErrorSymbol {
			continue
		}
		terms = append(terms, t)
	}
	return terms
}

// NoAccept marks a scanner state that accepts nothing.
const NoAccept = int32(-1)

// LexerTransition is one DFA edge: inputs in the half-open code-point
// range [Lo, Hi) move to state Next.
type LexerTransition struct {
	Lo   int32
	Hi   int32
	Next int32
}

// LexerState is one DFA state. Its outgoing transitions are the slice
// Transitions[First : First+Count] of the owning DFA, sorted by Lo and
// pairwise disjoint.
type LexerState struct {
	First int32
	Count int32

	// Accept is the index of the accepted token — a terminal index for
	// the token DFA, a whitespace ordinal for the whitespace DFA — or
	// NoAccept.
	Accept int32

	// Action is a lexer-action index or NoAction.
	Action int32
}

// DFA is one minimized scanner automaton.
type DFA struct {
	InitialState int32
	States       []LexerState
	Transitions  []LexerTransition
}

// Next returns the successor of state on input c, or false when no
// range covers c.
func (d *DFA) Next(state int32, c rune) (int32, bool) {
	s := d.States[state]
	trans := d.Transitions[s.First : s.First+s.Count]
	lo, hi := 0, len(trans)
	for lo < hi {
		mid := (lo + hi) / 2
		t := trans[mid]
		switch {
		case c < rune(t.Lo):
			hi = mid
		case c >= rune(t.Hi):
			lo = mid + 1
		default:
			return t.Next, true
		}
	}
	return 0, false
}

// Accept returns the token index accepted in state, or false.
func (d *DFA) Accept(state int32) (int32, bool) {
	a := d.States[state].Accept
	if a == NoAccept {
		return 0, false
	}
	return a, true
}

// LexerStateMachine is the generated scanner table set: the union DFA
// over every terminal pattern and, separately, the whitespace DFA.
type LexerStateMachine struct {
	Token      *DFA
	Whitespace *DFA

	// ActionNames maps lexer-action indices to their identifiers. The
	// table is disjoint from the parser's reduce-action table.
	ActionNames []string
}

// HasWhitespace reports whether the grammar declared any whitespace
// pattern.
func (m *LexerStateMachine) HasWhitespace() bool {
	return m.Whitespace != nil && len(m.Whitespace.States) > 0
}

// Compiled bundles everything generation produces for one grammar.
type Compiled struct {
	Name string

	// Fingerprint is a hash of the canonical serialization of the
	// source grammar; identical grammars produce identical
	// fingerprints.
	Fingerprint [32]byte

	Lexer  *LexerStateMachine
	Parser *ParserStateMachine
}
