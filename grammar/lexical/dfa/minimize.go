package dfa

import (
	"fmt"
	"strings"
)

// minimize merges indistinguishable states by Moore partition
// refinement. The initial partition groups states by what they accept;
// refinement splits groups whose members disagree on the group of some
// successor. Ranges are compared over the global cut points of the
// whole automaton, so two states compare equal only when they agree on
// every code point.
func minimize(states []*dfaState) []*dfaState {
	if len(states) <= 1 {
		return states
	}

	var cuts []rune
	for _, s := range states {
		for _, t := range s.trans {
			cuts = append(cuts, t.from, t.to+1)
		}
	}
	cuts = sortedUniqueRunes(cuts)

	// next returns the state reached from s on the range starting at
	// c, or -1.
	next := func(s *dfaState, c rune) int {
		for _, t := range s.trans {
			if c >= t.from && c <= t.to {
				return t.next
			}
		}
		return -1
	}

	part := make([]int, len(states))
	{
		groups := map[string]int{}
		for _, s := range states {
			k := fmt.Sprintf("%v/%v", s.accept, s.action)
			id, ok := groups[k]
			if !ok {
				id = len(groups)
				groups[k] = id
			}
			part[s.num] = id
		}
	}

	for {
		groups := map[string]int{}
		refined := make([]int, len(states))
		for _, s := range states {
			var b strings.Builder
			fmt.Fprintf(&b, "%v", part[s.num])
			for i := 0; i+1 < len(cuts); i++ {
				n := next(s, cuts[i])
				if n < 0 {
					fmt.Fprintf(&b, ",.")
					continue
				}
				fmt.Fprintf(&b, ",%v", part[n])
			}
			k := b.String()
			id, ok := groups[k]
			if !ok {
				id = len(groups)
				groups[k] = id
			}
			refined[s.num] = id
		}
		same := true
		for i := range part {
			if part[i] != refined[i] {
				same = false
				break
			}
		}
		part = refined
		if same {
			break
		}
	}

	// Pick the lowest-numbered member of each group as its
	// representative; the initial state's group comes first.
	reps := map[int]*dfaState{}
	for _, s := range states {
		if r, ok := reps[part[s.num]]; !ok || s.num < r.num {
			reps[part[s.num]] = s
		}
	}
	groupOrder := []int{part[states[0].num]}
	seen := map[int]struct{}{part[states[0].num]: {}}
	for _, s := range states {
		g := part[s.num]
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		groupOrder = append(groupOrder, g)
	}

	newNum := map[int]int{}
	for i, g := range groupOrder {
		newNum[g] = i
	}

	out := make([]*dfaState, len(groupOrder))
	for i, g := range groupOrder {
		rep := reps[g]
		var trans []span
		for _, t := range rep.trans {
			trans = append(trans, span{
				from: t.from,
				to:   t.to,
				next: newNum[part[t.next]],
			})
		}
		out[i] = &dfaState{
			num:    i,
			set:    rep.set,
			trans:  mergeSpans(trans),
			accept: rep.accept,
			action: rep.action,
		}
	}
	return out
}
