package dfa

import (
	"fmt"
	"sort"

	"github.com/hakosu/grackle/grammar/lexical/regex"
	"github.com/hakosu/grackle/machine"
)

// Pattern is one token fed to the subset construction: a parsed regex
// tree, the index the scanner reports on acceptance, and an optional
// lexer-action index.
type Pattern struct {
	Root   regex.Node
	Accept int32
	Action int32
}

// dfaState is one state of the unminimized DFA: a set of leaf
// positions.
type dfaState struct {
	num    int
	set    posSet
	trans  []span
	accept int32
	action int32
}

// span is one outgoing transition over the inclusive code-point range
// [from, to].
type span struct {
	from rune
	to   rune
	next int
}

// Compile runs the direct DFA construction over the union of the
// patterns, minimizes the result, and emits the runtime table.
// Accepting states report the pattern with the lowest declaration
// index when several patterns accept simultaneously.
func Compile(patterns []*Pattern) (*machine.DFA, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("the subset construction needs at least one pattern")
	}

	ps := newPositions()
	start := posSet{}
	for _, pat := range patterns {
		sets := ps.walk(pat.Root)
		if sets == nil {
			return nil, fmt.Errorf("pattern has an unknown node kind")
		}
		start.merge(ps.augment(sets, pat.Accept, pat.Action))
	}

	states := subsets(ps, start)
	states = minimize(states)
	return emit(states), nil
}

// subsets is the subset construction: each DFA state is a set of
// positions, and the successor on a code point c unions followpos of
// every member position whose range covers c. Transitions are keyed by
// the disjoint ranges the member ranges cut the alphabet into.
func subsets(ps *positions, start posSet) []*dfaState {
	initial := &dfaState{
		num: 0,
		set: start,
	}
	byKey := map[string]*dfaState{
		start.key(): initial,
	}
	states := []*dfaState{initial}

	worklist := []*dfaState{initial}
	for len(worklist) > 0 {
		state := worklist[0]
		worklist = worklist[1:]

		// Cut the alphabet at every boundary of every member range so
		// each sub-range lies fully inside or outside each range.
		var cuts []rune
		for p := range state.set {
			r, ok := ps.ranges[p]
			if !ok {
				continue
			}
			cuts = append(cuts, r.from, r.to+1)
		}
		cuts = sortedUniqueRunes(cuts)

		for i := 0; i+1 < len(cuts); i++ {
			from, to := cuts[i], cuts[i+1]-1
			target := posSet{}
			for p := range state.set {
				r, ok := ps.ranges[p]
				if !ok || r.from > from || r.to < from {
					continue
				}
				target.merge(ps.follow[p])
			}
			if len(target) == 0 {
				continue
			}
			key := target.key()
			next, ok := byKey[key]
			if !ok {
				next = &dfaState{
					num: len(states),
					set: target,
				}
				byKey[key] = next
				states = append(states, next)
				worklist = append(worklist, next)
			}
			state.trans = append(state.trans, span{
				from: from,
				to:   to,
				next: next.num,
			})
		}
		state.trans = mergeSpans(state.trans)
	}

	for _, state := range states {
		state.accept = machine.NoAccept
		state.action = machine.NoAction
		for _, p := range state.set.sorted() {
			end, ok := ps.ends[p]
			if !ok {
				continue
			}
			if state.accept == machine.NoAccept || end.accept < state.accept {
				state.accept = end.accept
				state.action = end.action
			}
		}
	}

	return states
}

// mergeSpans coalesces adjacent spans with the same target.
func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool {
		return spans[i].from < spans[j].from
	})
	var out []span
	for _, s := range spans {
		if n := len(out); n > 0 && out[n-1].next == s.next && out[n-1].to+1 == s.from {
			out[n-1].to = s.to
			continue
		}
		out = append(out, s)
	}
	return out
}

func sortedUniqueRunes(rs []rune) []rune {
	sort.Slice(rs, func(i, j int) bool {
		return rs[i] < rs[j]
	})
	var out []rune
	for _, r := range rs {
		if len(out) > 0 && out[len(out)-1] == r {
			continue
		}
		out = append(out, r)
	}
	return out
}

// emit renumbers the states breadth-first from the initial state and
// packs them into the flat runtime layout.
func emit(states []*dfaState) *machine.DFA {
	renum := map[int]int32{states[0].num: 0}
	order := []*dfaState{states[0]}
	byNum := map[int]*dfaState{}
	for _, s := range states {
		byNum[s.num] = s
	}
	for i := 0; i < len(order); i++ {
		for _, t := range order[i].trans {
			if _, ok := renum[t.next]; ok {
				continue
			}
			renum[t.next] = int32(len(order))
			order = append(order, byNum[t.next])
		}
	}

	d := &machine.DFA{
		InitialState: 0,
		States:       make([]machine.LexerState, len(order)),
	}
	for i, s := range order {
		first := int32(len(d.Transitions))
		for _, t := range s.trans {
			d.Transitions = append(d.Transitions, machine.LexerTransition{
				Lo:   int32(t.from),
				Hi:   int32(t.to) + 1,
				Next: renum[t.next],
			})
		}
		d.States[i] = machine.LexerState{
			First:  first,
			Count:  int32(len(s.trans)),
			Accept: s.accept,
			Action: s.action,
		}
	}
	return d
}
