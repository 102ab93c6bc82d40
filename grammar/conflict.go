package grammar

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/symbol"
)

// resolutionMethod records how a conflict was settled.
type resolutionMethod int

const (
	// resolvedByDefaultShift: one side had no precedence; the shift
	// wins and the conflict is warned about.
	resolvedByDefaultShift resolutionMethod = iota + 1

	// resolvedByPrec: the sides had different precedences.
	resolvedByPrec

	// resolvedByAssoc: equal precedence, settled by the terminal's
	// associativity.
	resolvedByAssoc

	// resolvedByError: equal precedence on a nonassociative terminal;
	// the cell becomes an explicit error entry.
	resolvedByError

	// resolvedByProdOrder: reduce/reduce, settled in favor of the
	// production with the smaller number.
	resolvedByProdOrder
)

func (m resolutionMethod) String() string {
	switch m {
	case resolvedByDefaultShift:
		return "shift (no precedence)"
	case resolvedByPrec:
		return "precedence"
	case resolvedByAssoc:
		return "associativity"
	case resolvedByError:
		return "error (nonassoc)"
	case resolvedByProdOrder:
		return "production order"
	}
	return "unknown"
}

type conflict interface {
	conflict()
	state() stateNum
	describe(g *Grammar) string
	warning() bool
}

type shiftReduceConflict struct {
	stateN     stateNum
	sym        symbol.ID
	nextState  stateNum
	prodNum    int
	resolvedBy resolutionMethod
	adopted    machineActionKind
}

func (c *shiftReduceConflict) conflict() {}

func (c *shiftReduceConflict) state() stateNum {
	return c.stateN
}

func (c *shiftReduceConflict) warning() bool {
	return c.resolvedBy == resolvedByDefaultShift
}

func (c *shiftReduceConflict) describe(g *Grammar) string {
	return fmt.Sprintf("state %v: shift/reduce conflict (shift %v, reduce %v) on %v, resolved by %v",
		c.stateN, c.nextState, c.prodNum, g.Syms.Get(c.sym).Lexeme, c.resolvedBy)
}

type reduceReduceConflict struct {
	stateN     stateNum
	sym        symbol.ID
	prodNum1   int
	prodNum2   int
	resolvedBy resolutionMethod
}

func (c *reduceReduceConflict) conflict() {}

func (c *reduceReduceConflict) state() stateNum {
	return c.stateN
}

func (c *reduceReduceConflict) warning() bool {
	return false
}

func (c *reduceReduceConflict) describe(g *Grammar) string {
	return fmt.Sprintf("state %v: reduce/reduce conflict (reduce %v and %v) on %v, kept %v",
		c.stateN, c.prodNum1, c.prodNum2, g.Syms.Get(c.sym).Lexeme, min(c.prodNum1, c.prodNum2))
}

var (
	_ conflict = &shiftReduceConflict{}
	_ conflict = &reduceReduceConflict{}
)

// machineActionKind mirrors the runtime action kinds during table
// construction.
type machineActionKind int

const (
	machineActionError machineActionKind = iota
	machineActionShift
	machineActionReduce
)

// resolveShiftReduce applies the resolution policy: an unspecified
// precedence keeps the shift with a warning; otherwise the higher
// precedence wins, and a tie falls back to the terminal's
// associativity (left reduces, right shifts, nonassoc errors).
func (g *Grammar) resolveShiftReduce(term *symbol.Symbol, prodNum int) (machineActionKind, resolutionMethod) {
	symPrec := term.Prec
	prodPrec, _ := g.productionPrecedence(g.Production(prodNum))
	if symPrec == symbol.PrecNil || prodPrec == symbol.PrecNil {
		return machineActionShift, resolvedByDefaultShift
	}
	if prodPrec > symPrec {
		return machineActionReduce, resolvedByPrec
	}
	if prodPrec < symPrec {
		return machineActionShift, resolvedByPrec
	}
	switch term.Assoc {
	case symbol.AssocLeft:
		return machineActionReduce, resolvedByAssoc
	case symbol.AssocRight:
		return machineActionShift, resolvedByAssoc
	case symbol.AssocNonassoc:
		return machineActionError, resolvedByError
	}
	return machineActionShift, resolvedByDefaultShift
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
