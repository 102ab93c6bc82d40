package grammar

import (
	"github.com/hakosu/grackle/grammar/symbol"
)

// lalrAutomaton is the canonical LALR(1) collection: states keyed by
// kernel core, with lookaheads merged on collision and re-propagated
// until no state is dirty.
type lalrAutomaton struct {
	g      *Grammar
	first  *firstSet
	states []*lrState

	coreToState map[string]stateNum
}

// genLALRAutomaton builds the collection. State 0 is the closure of
// the augmented item .start → ・S .end with lookahead {.end}.
func genLALRAutomaton(g *Grammar, first *firstSet) (*lalrAutomaton, error) {
	a := &lalrAutomaton{
		g:           g,
		first:       first,
		coreToState: map[string]stateNum{},
	}

	endID := g.Syms.End().ID

	initial := itemCore{prod: 0, dot: 0}
	a.addState(map[itemCore]symbolIDSet{
		initial: {endID: struct{}{}},
	})

	dirty := []stateNum{stateNumInitial}
	queued := map[stateNum]struct{}{stateNumInitial: {}}
	for len(dirty) > 0 {
		num := dirty[0]
		dirty = dirty[1:]
		delete(queued, num)

		state := a.states[num]
		if err := a.close(state); err != nil {
			return nil, err
		}

		for _, tran := range a.transitions(state) {
			// The end symbol terminates input; the accept action
			// covers it and no state lies beyond it.
			if tran.sym == endID {
				continue
			}

			var target stateNum
			if existing, ok := a.coreToState[tran.key]; ok {
				target = existing
				if a.states[existing].mergeKernelLookAhead(tran.kernel) {
					// A merge grew a lookahead set; the state must
					// re-propagate.
					if _, ok := queued[existing]; !ok {
						dirty = append(dirty, existing)
						queued[existing] = struct{}{}
					}
				}
			} else {
				target = a.addState(tran.kernel).num
				dirty = append(dirty, target)
				queued[target] = struct{}{}
			}
			state.next[tran.sym] = target
		}
	}

	return a, nil
}

func (a *lalrAutomaton) addState(kernel map[itemCore]symbolIDSet) *lrState {
	cores := make([]itemCore, 0, len(kernel))
	for c := range kernel {
		cores = append(cores, c)
	}
	state := &lrState{
		num:    stateNum(len(a.states)),
		kernel: kernel,
		next:   map[symbol.ID]stateNum{},
	}
	a.states = append(a.states, state)
	a.coreToState[coreKey(cores)] = state.num
	return state
}

// close computes the closure of the state's kernel: for each item
// A → α・B β with lookahead L and each production B → γ, the item
// B → ・γ joins the set with lookahead FIRST(β L). The loop runs to a
// fixed point because lookaheads merged into an existing item can feed
// items reached through it.
func (a *lalrAutomaton) close(state *lrState) error {
	items := map[itemCore]*lrItem{}
	for c, la := range state.kernel {
		copied := symbolIDSet{}
		for id := range la {
			copied.add(id)
		}
		items[c] = &lrItem{
			core:      c,
			lookAhead: copied,
		}
	}

	errID := a.g.Syms.Error().ID
	trapper := false
	for {
		changed := false
		cores := make([]itemCore, 0, len(items))
		for c := range items {
			cores = append(cores, c)
		}
		for _, c := range sortedCores(cores) {
			item := items[c]
			dotted := a.g.dottedSymbol(c)
			if dotted == errID {
				trapper = true
			}
			if dotted.IsNil() || !a.g.Syms.Get(dotted).IsNonTerminal() {
				continue
			}

			prod := a.g.Production(c.prod)
			fst, err := a.first.find(prod, c.dot+1)
			if err != nil {
				return err
			}

			la := symbolIDSet{}
			for id := range fst.symbols {
				la.add(id)
			}
			if fst.empty {
				for id := range item.lookAhead {
					la.add(id)
				}
			}

			for _, prodNum := range a.g.ProductionsOf(dotted) {
				c2 := itemCore{prod: prodNum, dot: 0}
				target, ok := items[c2]
				if !ok {
					target = &lrItem{
						core:      c2,
						lookAhead: symbolIDSet{},
					}
					items[c2] = target
					changed = true
				}
				for id := range la {
					if target.lookAhead.add(id) {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	state.closure = items
	state.isErrorTrapper = trapper
	return nil
}

// transition is the kernel reached from a state on one symbol.
type transition struct {
	sym    symbol.ID
	key    string
	kernel map[itemCore]symbolIDSet
}

// transitions computes Goto(I, X) kernels for every symbol X with an
// item A → α・X β in I, in symbol order.
func (a *lalrAutomaton) transitions(state *lrState) []*transition {
	bySym := map[symbol.ID]map[itemCore]symbolIDSet{}
	for _, c := range state.closureCores() {
		item := state.closure[c]
		dotted := a.g.dottedSymbol(c)
		if dotted.IsNil() {
			continue
		}
		kernel, ok := bySym[dotted]
		if !ok {
			kernel = map[itemCore]symbolIDSet{}
			bySym[dotted] = kernel
		}
		advanced := itemCore{prod: c.prod, dot: c.dot + 1}
		la, ok := kernel[advanced]
		if !ok {
			la = symbolIDSet{}
			kernel[advanced] = la
		}
		for id := range item.lookAhead {
			la.add(id)
		}
	}

	syms := symbolIDSet{}
	for sym := range bySym {
		syms.add(sym)
	}

	var trans []*transition
	for _, sym := range syms.sorted() {
		kernel := bySym[sym]
		cores := make([]itemCore, 0, len(kernel))
		for c := range kernel {
			cores = append(cores, c)
		}
		trans = append(trans, &transition{
			sym:    sym,
			key:    coreKey(cores),
			kernel: kernel,
		})
	}
	return trans
}

// reducibleItems returns the closure items with the dot at the end of
// their production, in core order.
func (a *lalrAutomaton) reducibleItems(state *lrState) []*lrItem {
	var items []*lrItem
	for _, c := range state.closureCores() {
		if a.g.reducible(c) {
			items = append(items, state.closure[c])
		}
	}
	return items
}

// acceptCore is the item .start → S・.end: the parser accepts when the
// end symbol arrives in a state containing it.
func (a *lalrAutomaton) acceptCore(state *lrState) (itemCore, bool) {
	c := itemCore{prod: 0, dot: 1}
	_, ok := state.closure[c]
	return c, ok
}

// initialState returns state 0.
func (a *lalrAutomaton) initialState() *lrState {
	return a.states[stateNumInitial]
}
