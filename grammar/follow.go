package grammar

import (
	"fmt"

	"github.com/hakosu/grackle/grammar/symbol"
)

// followEntry is FOLLOW of one nonterminal. The end symbol is a
// regular member of the set because the augmented production carries
// .end explicitly.
type followEntry struct {
	symbols symbolIDSet
}

func newFollowEntry() *followEntry {
	return &followEntry{
		symbols: symbolIDSet{},
	}
}

func (e *followEntry) merge(fst *firstEntry, flw *followEntry) bool {
	changed := false
	if fst != nil {
		for id := range fst.symbols {
			if e.symbols.add(id) {
				changed = true
			}
		}
	}
	if flw != nil {
		for id := range flw.symbols {
			if e.symbols.add(id) {
				changed = true
			}
		}
	}
	return changed
}

type followSet struct {
	set map[symbol.ID]*followEntry
}

func (flw *followSet) find(id symbol.ID) (*followEntry, error) {
	e, ok := flw.set[id]
	if !ok {
		return nil, fmt.Errorf("an entry of FOLLOW was not found; symbol: %v", id)
	}
	return e, nil
}

// genFollowSet computes FOLLOW by fixed-point iteration over the
// productions: for A → α B β, FIRST(β) minus ε joins FOLLOW(B), and
// when β is nullable FOLLOW(A) joins FOLLOW(B) as well. FOLLOW of the
// user's start symbol picks up .end from the augmented production.
func genFollowSet(g *Grammar, first *firstSet) (*followSet, error) {
	flw := &followSet{
		set: map[symbol.ID]*followEntry{},
	}
	for _, prod := range g.Productions() {
		if prod == nil {
			continue
		}
		if _, ok := flw.set[prod.LHS]; ok {
			continue
		}
		flw.set[prod.LHS] = newFollowEntry()
	}

	for {
		more := false
		for _, prod := range g.Productions() {
			if prod == nil {
				continue
			}
			for i, id := range prod.RHS {
				if !g.Syms.Get(id).IsNonTerminal() {
					continue
				}
				e, err := flw.find(id)
				if err != nil {
					return nil, err
				}
				fst, err := first.find(prod, i+1)
				if err != nil {
					return nil, err
				}
				if e.merge(fst, nil) {
					more = true
				}
				if fst.empty {
					lhsFlw, err := flw.find(prod.LHS)
					if err != nil {
						return nil, err
					}
					if e.merge(nil, lhsFlw) {
						more = true
					}
				}
			}
		}
		if !more {
			break
		}
	}

	return flw, nil
}
