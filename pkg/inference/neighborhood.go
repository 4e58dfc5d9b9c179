package inference

import (
	"cmp"
	"context"
	"slices"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// Neighborhood is an id-indexed snapshot of members and the edges touching
// them. Edge lists are kept in ascending edge id order.
type Neighborhood struct {
	Members  map[int64]family.Summary
	Outgoing map[int64][]family.ResolvedEdge
	Incoming map[int64][]family.ResolvedEdge
}

// NewNeighborhood indexes members and edges. Edges are de-duplicated by id.
func NewNeighborhood(members []family.Member, edges []family.ResolvedEdge) Neighborhood {
	n := Neighborhood{
		Members:  make(map[int64]family.Summary, len(members)),
		Outgoing: make(map[int64][]family.ResolvedEdge),
		Incoming: make(map[int64][]family.ResolvedEdge),
	}
	for _, m := range members {
		n.Members[m.ID] = m.Summary()
	}
	sorted := slices.Clone(edges)
	slices.SortFunc(sorted, func(a, b family.ResolvedEdge) int { return cmp.Compare(a.ID, b.ID) })
	sorted = slices.CompactFunc(sorted, func(a, b family.ResolvedEdge) bool { return a.ID == b.ID })
	for _, e := range sorted {
		n.Outgoing[e.FromMemberID] = append(n.Outgoing[e.FromMemberID], e)
		n.Incoming[e.ToMemberID] = append(n.Incoming[e.ToMemberID], e)
	}
	return n
}

// Build loads the neighborhood needed to resolve memberID: its own edges,
// the edges of every member one hop away, and every member those edges name.
func Build(ctx context.Context, s store.Store, memberID int64) (Neighborhood, error) {
	self, err := s.GetMember(ctx, memberID)
	if err != nil {
		return Neighborhood{}, err
	}
	direct, err := edgesOf(ctx, s, memberID)
	if err != nil {
		return Neighborhood{}, err
	}

	all := direct
	hop := make(map[int64]bool)
	for _, e := range direct {
		hop[e.FromMemberID] = true
		hop[e.ToMemberID] = true
	}
	delete(hop, memberID)
	for _, id := range sortedKeys(hop) {
		es, err := edgesOf(ctx, s, id)
		if err != nil {
			return Neighborhood{}, err
		}
		all = append(all, es...)
	}

	ids := map[int64]bool{memberID: true}
	for _, e := range all {
		ids[e.FromMemberID] = true
		ids[e.ToMemberID] = true
	}
	members, err := s.GetMembers(ctx, sortedKeys(ids))
	if err != nil {
		return Neighborhood{}, err
	}
	if !slices.ContainsFunc(members, func(m family.Member) bool { return m.ID == self.ID }) {
		members = append(members, self)
	}
	return NewNeighborhood(members, all), nil
}

func edgesOf(ctx context.Context, s store.Store, id int64) ([]family.ResolvedEdge, error) {
	out, err := s.ListEdges(ctx, store.EdgeFilter{FromID: id})
	if err != nil {
		return nil, err
	}
	in, err := s.ListEdges(ctx, store.EdgeFilter{ToID: id})
	if err != nil {
		return nil, err
	}
	return append(out, in...), nil
}

func sortedKeys(m map[int64]bool) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
