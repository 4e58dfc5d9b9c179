// Package treesort orders members so that a paginated listing walks the tree
// family by family instead of in insertion order.
//
// Roots (members without a FATHER or MOTHER edge pointing at them) come first,
// oldest first when birth dates are known. Each root is followed by its
// descendants in depth-first pre-order. Members unreachable from any root are
// appended in id order, so every member appears exactly once.
package treesort

import (
	"cmp"
	"slices"
	"time"

	"github.com/matzehuels/kintree/pkg/family"
)

// Node is the part of a member the sorter looks at.
type Node struct {
	ID  int64
	DOB *time.Time
}

// NodeOf projects a member onto a Node.
func NodeOf(m family.Member) Node {
	return Node{ID: m.ID, DOB: m.DOB}
}

// Order returns every member id exactly once. Only FATHER and MOTHER edges
// shape the order; edges naming unknown members are ignored.
func Order(members []Node, edges []family.ResolvedEdge) []int64 {
	nodes := slices.Clone(members)
	slices.SortFunc(nodes, func(a, b Node) int { return cmp.Compare(a.ID, b.ID) })
	nodes = slices.CompactFunc(nodes, func(a, b Node) bool { return a.ID == b.ID })

	known := make(map[int64]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	children := make(map[int64][]int64)
	hasParent := make(map[int64]bool)
	for _, e := range edges {
		if !family.IsParentCode(e.Code()) || !known[e.FromMemberID] || !known[e.ToMemberID] {
			continue
		}
		children[e.FromMemberID] = append(children[e.FromMemberID], e.ToMemberID)
		hasParent[e.ToMemberID] = true
	}
	for p, cs := range children {
		slices.Sort(cs)
		children[p] = slices.Compact(cs)
	}

	var roots []Node
	for _, n := range nodes {
		if !hasParent[n.ID] {
			roots = append(roots, n)
		}
	}
	slices.SortStableFunc(roots, compareRoots)

	out := make([]int64, 0, len(nodes))
	visited := make(map[int64]bool, len(nodes))
	visit := func(start int64) {
		stack := []int64{start}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[id] {
				continue
			}
			visited[id] = true
			out = append(out, id)
			cs := children[id]
			for i := len(cs) - 1; i >= 0; i-- {
				if !visited[cs[i]] {
					stack = append(stack, cs[i])
				}
			}
		}
	}
	for _, r := range roots {
		visit(r.ID)
	}
	for _, n := range nodes {
		visit(n.ID)
	}
	return out
}

// compareRoots orders two dated roots by birth date and everything else by id.
func compareRoots(a, b Node) int {
	if a.DOB != nil && b.DOB != nil {
		if c := a.DOB.Compare(*b.DOB); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.ID, b.ID)
}

// Meta describes one page of a listing.
type Meta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewMeta computes page metadata for total items.
func NewMeta(total, page, limit int) Meta {
	m := Meta{Total: total, Page: page, Limit: limit}
	if limit > 0 {
		m.TotalPages = (total + limit - 1) / limit
	}
	return m
}

// Page slices ids for the 1-based page. Pages past the end are empty.
func Page(ids []int64, page, limit int) ([]int64, Meta) {
	page = max(page, 1)
	meta := NewMeta(len(ids), page, limit)
	if limit <= 0 {
		return slices.Clone(ids), meta
	}
	start := (page - 1) * limit
	if start >= len(ids) {
		return []int64{}, meta
	}
	end := min(start+limit, len(ids))
	return slices.Clone(ids[start:end]), meta
}

// Reorder returns the items whose id is in ids, in the order of ids. Items
// missing from ids are dropped and ids without an item are skipped.
func Reorder[T any](ids []int64, items []T, id func(T) int64) []T {
	byID := make(map[int64]T, len(items))
	for _, it := range items {
		byID[id(it)] = it
	}
	out := make([]T, 0, len(ids))
	for _, i := range ids {
		if it, ok := byID[i]; ok {
			out = append(out, it)
		}
	}
	return out
}
