package grammar

import (
	"github.com/hakosu/grackle/grammar/symbol"
	"github.com/hakosu/grackle/machine"
)

// numbering assigns the dense per-kind indices the tables are laid out
// with. Terminals and nonterminals are numbered separately, both in
// declaration order, so identical grammars number identically.
type numbering struct {
	terms    []*symbol.Symbol
	nonTerms []*symbol.Symbol

	termIdx    map[symbol.ID]int
	nonTermIdx map[symbol.ID]int
}

func genNumbering(g *Grammar) *numbering {
	n := &numbering{
		terms:      g.Syms.Terminals(),
		nonTerms:   g.Syms.NonTerminals(),
		termIdx:    map[symbol.ID]int{},
		nonTermIdx: map[symbol.ID]int{},
	}
	for i, sym := range n.terms {
		n.termIdx[sym.ID] = i
	}
	for i, sym := range n.nonTerms {
		n.nonTermIdx[sym.ID] = i
	}
	return n
}

// tableBuilder fills the parser action and goto matrices from the
// automaton, resolving conflicts as it writes.
type tableBuilder struct {
	g         *Grammar
	automaton *lalrAutomaton
	num       *numbering

	conflicts []conflict

	// errorCells are cells a nonassoc resolution forced to Error; no
	// later write may repopulate them.
	errorCells map[int]struct{}
}

func (b *tableBuilder) build() (*machine.ParserStateMachine, error) {
	termCount := len(b.num.terms)
	nonTermCount := len(b.num.nonTerms)
	stateCount := len(b.automaton.states)

	m := &machine.ParserStateMachine{
		Name:               b.g.Name,
		TerminalCount:      termCount,
		NonTerminalCount:   nonTermCount,
		StateCount:         stateCount,
		InitialState:       stateNumInitial.Int(),
		EndSymbol:          b.num.termIdx[b.g.Syms.End().ID],
		ErrorSymbol:        b.num.termIdx[b.g.Syms.Error().ID],
		Action:             make([]int32, stateCount*termCount),
		GoTo:               make([]int32, stateCount*nonTermCount),
		ErrorTrapperStates: make([]bool, stateCount),
	}
	b.errorCells = map[int]struct{}{}

	for _, state := range b.automaton.states {
		m.ErrorTrapperStates[state.num] = state.isErrorTrapper

		next := symbolIDSet{}
		for sym := range state.next {
			next.add(sym)
		}
		for _, sym := range next.sorted() {
			target := state.next[sym]
			if b.g.Syms.Get(sym).IsTerminal() {
				b.writeShift(m, state.num, sym, target)
			} else {
				m.GoTo[state.num.Int()*nonTermCount+b.num.nonTermIdx[sym]] = int32(target)
			}
		}

		for _, item := range b.automaton.reducibleItems(state) {
			if item.core.prod == 0 {
				continue
			}
			for _, la := range item.lookAhead.sorted() {
				b.writeReduce(m, state.num, la, item.core.prod)
			}
		}

		if _, ok := b.automaton.acceptCore(state); ok {
			m.Action[state.num.Int()*termCount+m.EndSymbol] = machine.ActionAccept
		}
	}

	reds := make([]machine.Reduction, len(b.g.Productions()))
	for _, prod := range b.g.Productions() {
		if prod == nil {
			continue
		}
		action := machine.NoAction
		if prod.Action != ActionNil {
			action = int32(prod.Action)
		}
		reds[prod.Num] = machine.Reduction{
			Symbol: int32(b.num.nonTermIdx[prod.LHS]),
			Length: int32(len(prod.RHS)),
			Action: action,
		}
	}
	m.Reductions = reds

	m.Terminals = make([]string, termCount)
	for i, sym := range b.num.terms {
		m.Terminals[i] = sym.Lexeme
	}
	m.NonTerminals = make([]string, nonTermCount)
	for i, sym := range b.num.nonTerms {
		m.NonTerminals[i] = sym.Lexeme
	}
	m.ActionNames = make([]string, len(b.g.Actions()))
	for i, act := range b.g.Actions() {
		m.ActionNames[i] = act.Identifier
	}

	return m, nil
}

func (b *tableBuilder) cell(state stateNum, sym symbol.ID) int {
	return state.Int()*len(b.num.terms) + b.num.termIdx[sym]
}

func (b *tableBuilder) writeShift(m *machine.ParserStateMachine, state stateNum, sym symbol.ID, target stateNum) {
	pos := b.cell(state, sym)
	if _, frozen := b.errorCells[pos]; frozen {
		return
	}
	entry := m.Action[pos]
	kind, operand := machine.DecodeAction(entry)
	if kind == machine.ActionKindReduce {
		chosen, method := b.g.resolveShiftReduce(b.g.Syms.Get(sym), operand)
		b.conflicts = append(b.conflicts, &shiftReduceConflict{
			stateN:     state,
			sym:        sym,
			nextState:  target,
			prodNum:    operand,
			resolvedBy: method,
			adopted:    chosen,
		})
		switch chosen {
		case machineActionShift:
			m.Action[pos] = machine.EncodeShift(target.Int())
		case machineActionError:
			m.Action[pos] = machine.ActionError
			b.errorCells[pos] = struct{}{}
		}
		return
	}
	m.Action[pos] = machine.EncodeShift(target.Int())
}

func (b *tableBuilder) writeReduce(m *machine.ParserStateMachine, state stateNum, sym symbol.ID, prodNum int) {
	pos := b.cell(state, sym)
	if _, frozen := b.errorCells[pos]; frozen {
		return
	}
	entry := m.Action[pos]
	kind, operand := machine.DecodeAction(entry)
	switch kind {
	case machine.ActionKindReduce:
		if operand == prodNum {
			return
		}
		b.conflicts = append(b.conflicts, &reduceReduceConflict{
			stateN:     state,
			sym:        sym,
			prodNum1:   operand,
			prodNum2:   prodNum,
			resolvedBy: resolvedByProdOrder,
		})
		m.Action[pos] = machine.EncodeReduce(min(operand, prodNum))
	case machine.ActionKindShift:
		chosen, method := b.g.resolveShiftReduce(b.g.Syms.Get(sym), prodNum)
		b.conflicts = append(b.conflicts, &shiftReduceConflict{
			stateN:     state,
			sym:        sym,
			nextState:  stateNum(operand),
			prodNum:    prodNum,
			resolvedBy: method,
			adopted:    chosen,
		})
		switch chosen {
		case machineActionReduce:
			m.Action[pos] = machine.EncodeReduce(prodNum)
		case machineActionError:
			m.Action[pos] = machine.ActionError
			b.errorCells[pos] = struct{}{}
		}
	case machine.ActionKindAccept:
		// The accept entry never competes with a reduction on a
		// well-formed automaton.
	default:
		m.Action[pos] = machine.EncodeReduce(prodNum)
	}
}
