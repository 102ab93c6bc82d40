package grammar

import (
	"fmt"
	"sort"

	"github.com/hakosu/grackle/grammar/symbol"
)

// symbolIDSet is a set of symbol handles. Iteration over the map is
// nondeterministic; use sorted() wherever ordering reaches the output.
type symbolIDSet map[symbol.ID]struct{}

func (s symbolIDSet) add(id symbol.ID) bool {
	if _, ok := s[id]; ok {
		return false
	}
	s[id] = struct{}{}
	return true
}

func (s symbolIDSet) has(id symbol.ID) bool {
	_, ok := s[id]
	return ok
}

func (s symbolIDSet) sorted() []symbol.ID {
	ids := make([]symbol.ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// firstEntry is FIRST of one nonterminal. empty is true when the
// nonterminal is nullable.
type firstEntry struct {
	symbols symbolIDSet
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: symbolIDSet{},
	}
}

func (e *firstEntry) add(id symbol.ID) bool {
	return e.symbols.add(id)
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	if target == nil {
		return false
	}
	changed := false
	for id := range target.symbols {
		if e.add(id) {
			changed = true
		}
	}
	return changed
}

// firstSet holds FIRST for every nonterminal that appears as an LHS.
type firstSet struct {
	g   *Grammar
	set map[symbol.ID]*firstEntry
}

// find computes the ε-free FIRST of prod.RHS[head:]. The entry's empty
// flag is set when the whole suffix is nullable.
func (fst *firstSet) find(prod *Production, head int) (*firstEntry, error) {
	entry := newFirstEntry()
	if len(prod.RHS) <= head {
		entry.addEmpty()
		return entry, nil
	}
	for _, id := range prod.RHS[head:] {
		if fst.g.Syms.Get(id).IsTerminal() {
			entry.add(id)
			return entry, nil
		}

		e := fst.findBySymbol(id)
		if e == nil {
			return nil, fmt.Errorf("an entry of FIRST was not found; symbol: %v", fst.g.Syms.Get(id).Lexeme)
		}
		for s := range e.symbols {
			entry.add(s)
		}
		if !e.empty {
			return entry, nil
		}
	}
	entry.addEmpty()
	return entry, nil
}

func (fst *firstSet) findBySymbol(id symbol.ID) *firstEntry {
	return fst.set[id]
}

// nullable reports whether the nonterminal can derive ε.
func (fst *firstSet) nullable(id symbol.ID) bool {
	e := fst.set[id]
	return e != nil && e.empty
}

// genFirstSet computes FIRST by fixed-point iteration: a nonterminal
// is nullable iff some production's RHS is empty or all-nullable, and
// FIRST(A) collects the terminals that can begin any derivation of A.
// Productions are visited in number order so the iteration is
// deterministic.
func genFirstSet(g *Grammar) (*firstSet, error) {
	fst := &firstSet{
		g:   g,
		set: map[symbol.ID]*firstEntry{},
	}
	for _, prod := range g.Productions() {
		if prod == nil {
			continue
		}
		if _, ok := fst.set[prod.LHS]; ok {
			continue
		}
		fst.set[prod.LHS] = newFirstEntry()
	}

	for {
		more := false
		for _, prod := range g.Productions() {
			if prod == nil {
				continue
			}
			e := fst.findBySymbol(prod.LHS)
			changed, err := genProdFirstEntry(g, fst, e, prod)
			if err != nil {
				return nil, err
			}
			if changed {
				more = true
			}
		}
		if !more {
			break
		}
	}

	return fst, nil
}

func genProdFirstEntry(g *Grammar, fst *firstSet, acc *firstEntry, prod *Production) (bool, error) {
	if prod.IsEmpty() {
		return acc.addEmpty(), nil
	}

	changed := false
	for _, id := range prod.RHS {
		if g.Syms.Get(id).IsTerminal() {
			if acc.add(id) {
				changed = true
			}
			return changed, nil
		}

		e := fst.findBySymbol(id)
		if e == nil {
			return false, fmt.Errorf("an entry of FIRST was not found; symbol: %v", g.Syms.Get(id).Lexeme)
		}
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if !e.empty {
			return changed, nil
		}
	}
	if acc.addEmpty() {
		changed = true
	}
	return changed, nil
}
