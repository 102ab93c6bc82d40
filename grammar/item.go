package grammar

import (
	"encoding/binary"
	"sort"

	"github.com/hakosu/grackle/grammar/symbol"
)

// itemCore identifies an item ignoring lookahead: a production with a
// dot marking progress through its right-hand side. Two items with the
// same core unify by merging lookaheads, which is what makes the
// construction LALR(1) rather than canonical LR(1).
type itemCore struct {
	prod int
	dot  int
}

// lrItem is an item inside one state: a core plus the lookahead
// terminals under which the item's production may reduce.
type lrItem struct {
	core      itemCore
	lookAhead symbolIDSet
}

func (g *Grammar) dottedSymbol(c itemCore) symbol.ID {
	prod := g.Production(c.prod)
	if c.dot >= len(prod.RHS) {
		return symbol.IDNil
	}
	return prod.RHS[c.dot]
}

func (g *Grammar) reducible(c itemCore) bool {
	return c.dot >= len(g.Production(c.prod).RHS)
}

func sortedCores(cores []itemCore) []itemCore {
	sort.Slice(cores, func(i, j int) bool {
		if cores[i].prod != cores[j].prod {
			return cores[i].prod < cores[j].prod
		}
		return cores[i].dot < cores[j].dot
	})
	return cores
}

// coreKey builds a map key identifying a kernel by its cores alone.
func coreKey(cores []itemCore) string {
	sortedCores(cores)
	buf := make([]byte, 0, len(cores)*4)
	tmp := make([]byte, binary.MaxVarintLen64)
	for _, c := range cores {
		n := binary.PutUvarint(tmp, uint64(c.prod))
		buf = append(buf, tmp[:n]...)
		n = binary.PutUvarint(tmp, uint64(c.dot))
		buf = append(buf, tmp[:n]...)
	}
	// The byte sequence is not UTF-8; it is only ever used as a map
	// key.
	return string(buf)
}

type stateNum int

const stateNumInitial = stateNum(0)

func (n stateNum) Int() int {
	return int(n)
}

// lrState is one parser state: a kernel, its closure, and the
// transition map. The closure is recomputed whenever a lookahead merge
// grows the kernel.
type lrState struct {
	num stateNum

	// kernel maps each kernel core to its lookahead set. Kernel
	// lookaheads are the merge targets of §4.3; everything else is
	// derived.
	kernel map[itemCore]symbolIDSet

	// closure holds every item of the state, kernel items included.
	closure map[itemCore]*lrItem

	next map[symbol.ID]stateNum

	// isErrorTrapper is true when some item has the dot immediately
	// before the error symbol.
	isErrorTrapper bool
}

func (s *lrState) kernelCores() []itemCore {
	cores := make([]itemCore, 0, len(s.kernel))
	for c := range s.kernel {
		cores = append(cores, c)
	}
	return sortedCores(cores)
}

func (s *lrState) closureCores() []itemCore {
	cores := make([]itemCore, 0, len(s.closure))
	for c := range s.closure {
		cores = append(cores, c)
	}
	return sortedCores(cores)
}

// mergeKernelLookAhead folds the lookaheads of another kernel with the
// same cores into this state. It reports whether any set grew.
func (s *lrState) mergeKernelLookAhead(kernel map[itemCore]symbolIDSet) bool {
	grown := false
	for c, la := range kernel {
		dst := s.kernel[c]
		for id := range la {
			if dst.add(id) {
				grown = true
			}
		}
	}
	return grown
}
