// Package dfa turns regex syntax trees into minimized DFAs keyed by
// disjoint code-point ranges, via the direct construction over
// nullable/firstpos/lastpos/followpos.
package dfa

import (
	"encoding/binary"
	"sort"

	"github.com/hakosu/grackle/grammar/lexical/regex"
)

// posSet is a set of leaf positions.
type posSet map[int]struct{}

func (s posSet) add(p int) bool {
	if _, ok := s[p]; ok {
		return false
	}
	s[p] = struct{}{}
	return true
}

func (s posSet) merge(t posSet) {
	for p := range t {
		s[p] = struct{}{}
	}
}

func (s posSet) sorted() []int {
	ps := make([]int, 0, len(s))
	for p := range s {
		ps = append(ps, p)
	}
	sort.Ints(ps)
	return ps
}

// key converts the set to a map key. The byte sequence is built from
// varints and is not UTF-8; it is only ever used as a key.
func (s posSet) key() string {
	var buf []byte
	tmp := make([]byte, binary.MaxVarintLen64)
	for _, p := range s.sorted() {
		n := binary.PutUvarint(tmp, uint64(p))
		buf = append(buf, tmp[:n]...)
	}
	return string(buf)
}

// charRange is an inclusive code-point range attached to one leaf
// position.
type charRange struct {
	from rune
	to   rune
}

// endMark records what an end-marker position accepts.
type endMark struct {
	accept int32
	action int32
}

// positions numbers the leaves of all pattern trees and holds the
// followpos table.
type positions struct {
	// ranges[p] is the code-point range of position p; end-marker
	// positions are absent.
	ranges map[int]charRange

	// ends[p] is set for end-marker positions.
	ends map[int]*endMark

	follow map[int]posSet

	next int
}

func newPositions() *positions {
	return &positions{
		ranges: map[int]charRange{},
		ends:   map[int]*endMark{},
		follow: map[int]posSet{},
		next:   1,
	}
}

func (ps *positions) alloc() int {
	p := ps.next
	ps.next++
	return p
}

func (ps *positions) addFollow(p int, set posSet) {
	f, ok := ps.follow[p]
	if !ok {
		f = posSet{}
		ps.follow[p] = f
	}
	f.merge(set)
}

// nodeSets is the (nullable, firstpos, lastpos) triple of one node.
type nodeSets struct {
	nullable bool
	first    posSet
	last     posSet
}

// walk numbers the leaves of a tree in source order and computes the
// position sets, filling the followpos table as it goes.
func (ps *positions) walk(node regex.Node) *nodeSets {
	switch n := node.(type) {
	case *regex.RangeNode:
		p := ps.alloc()
		ps.ranges[p] = charRange{
			from: n.From,
			to:   n.To,
		}
		set := posSet{p: {}}
		return &nodeSets{
			first: set,
			last:  set,
		}
	case *regex.AltNode:
		left := ps.walk(n.Left)
		right := ps.walk(n.Right)
		first := posSet{}
		first.merge(left.first)
		first.merge(right.first)
		last := posSet{}
		last.merge(left.last)
		last.merge(right.last)
		return &nodeSets{
			nullable: left.nullable || right.nullable,
			first:    first,
			last:     last,
		}
	case *regex.ConcatNode:
		left := ps.walk(n.Left)
		right := ps.walk(n.Right)
		for p := range left.last {
			ps.addFollow(p, right.first)
		}
		first := posSet{}
		first.merge(left.first)
		if left.nullable {
			first.merge(right.first)
		}
		last := posSet{}
		last.merge(right.last)
		if right.nullable {
			last.merge(left.last)
		}
		return &nodeSets{
			nullable: left.nullable && right.nullable,
			first:    first,
			last:     last,
		}
	case *regex.StarNode:
		child := ps.walk(n.Left)
		for p := range child.last {
			ps.addFollow(p, child.first)
		}
		return &nodeSets{
			nullable: true,
			first:    child.first,
			last:     child.last,
		}
	case *regex.OptionNode:
		child := ps.walk(n.Left)
		return &nodeSets{
			nullable: true,
			first:    child.first,
			last:     child.last,
		}
	}
	return nil
}

// augment appends the end-marker position of one pattern: the tree
// behaves as concat(root, #).
func (ps *positions) augment(sets *nodeSets, accept, action int32) posSet {
	end := ps.alloc()
	ps.ends[end] = &endMark{
		accept: accept,
		action: action,
	}
	endSet := posSet{end: {}}
	for p := range sets.last {
		ps.addFollow(p, endSet)
	}
	start := posSet{}
	start.merge(sets.first)
	if sets.nullable {
		start.merge(endSet)
	}
	return start
}
