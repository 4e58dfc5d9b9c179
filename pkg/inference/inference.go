// Package inference derives a member's family from sparse relationship edges.
//
// The stored graph only records what a user entered: a FATHER edge and its
// CHILD mirror, a pair of SPOUSE edges. [Resolve] turns those into the
// spouses, children and parents a member has, including step relations:
//
//   - direct: the member's own SPOUSE, FATHER, MOTHER and CHILD edges
//   - through spouses: a spouse's children are the member's children
//   - through parents: a parent's spouses are the member's parents
//
// Each extra hop is one bounded pass, never a traversal, so cyclic or
// malformed data cannot make the result grow without limit. Edges whose
// counterpart is not in the [Neighborhood] are skipped.
package inference

import (
	"github.com/matzehuels/kintree/pkg/family"
)

// Resolve computes the family of memberID from n. Lists are de-duplicated,
// in order of first discovery, and never contain memberID.
func Resolve(memberID int64, n Neighborhood) family.View {
	spouses := newSet(n)
	children := newSet(n)
	parents := newSet(n)

	// Direct pass.
	for _, e := range n.Outgoing[memberID] {
		switch code := e.Code(); {
		case code == family.CodeSpouse:
			spouses.add(e.ToMemberID)
		case family.IsParentCode(code):
			children.add(e.ToMemberID)
		case code == family.CodeChild:
			parents.add(e.ToMemberID)
		}
	}
	for _, e := range n.Incoming[memberID] {
		switch code := e.Code(); {
		case code == family.CodeSpouse:
			spouses.add(e.FromMemberID)
		case family.IsParentCode(code):
			parents.add(e.FromMemberID)
		case code == family.CodeChild:
			children.add(e.FromMemberID)
		}
	}

	// A spouse's children are the member's children. Only the edges that
	// point down from the spouse are followed.
	for _, sp := range spouses.ids() {
		for _, e := range n.Outgoing[sp] {
			if family.IsParentCode(e.Code()) {
				children.add(e.ToMemberID)
			}
		}
		for _, e := range n.Incoming[sp] {
			if e.Code() == family.CodeChild {
				children.add(e.FromMemberID)
			}
		}
	}

	// A parent's spouses are the member's parents.
	for _, p := range parents.ids() {
		for _, e := range n.Outgoing[p] {
			if e.Code() == family.CodeSpouse {
				parents.add(e.ToMemberID)
			}
		}
		for _, e := range n.Incoming[p] {
			if e.Code() == family.CodeSpouse {
				parents.add(e.FromMemberID)
			}
		}
	}

	return family.View{
		Spouses:  spouses.without(memberID),
		Children: children.without(memberID),
		Parents:  parents.without(memberID),
	}
}

// set is an insertion-ordered set of member ids backed by the arena.
type set struct {
	arena map[int64]family.Summary
	seen  map[int64]bool
	order []int64
}

func newSet(n Neighborhood) *set {
	return &set{arena: n.Members, seen: make(map[int64]bool)}
}

func (s *set) add(id int64) {
	if s.seen[id] {
		return
	}
	if _, ok := s.arena[id]; !ok {
		return
	}
	s.seen[id] = true
	s.order = append(s.order, id)
}

// ids returns a snapshot so passes can add while iterating.
func (s *set) ids() []int64 {
	return append([]int64(nil), s.order...)
}

func (s *set) without(self int64) []family.Summary {
	out := make([]family.Summary, 0, len(s.order))
	for _, id := range s.order {
		if id != self {
			out = append(out, s.arena[id])
		}
	}
	return out
}
