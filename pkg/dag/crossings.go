package dag

import (
	"cmp"
	"slices"
)

// CountCrossings sums [CountLayerCrossings] over each pair of adjacent rows
// using the graph's current row order.
func CountCrossings(g *DAG) int {
	rows := g.RowIDs()
	total := 0
	for i := 0; i+1 < len(rows); i++ {
		if rows[i+1] != rows[i]+1 {
			continue
		}
		total += CountLayerCrossings(g, NodeIDs(g.NodesInRow(rows[i])), NodeIDs(g.NodesInRow(rows[i+1])))
	}
	return total
}

// CountLayerCrossings counts crossing edge pairs between two adjacent rows.
//
// Edges (u1,v1) and (u2,v2) cross when u1 is left of u2 and v1 right of v2,
// so the count equals the inversions among lower positions once edges are
// sorted by upper position. A Fenwick tree counts them in O(E log V).
func CountLayerCrossings(g *DAG, upper, lower []string) int {
	if len(upper) == 0 || len(lower) == 0 {
		return 0
	}
	lowerPos := PosMap(lower)

	type span struct{ upper, lower int }
	spans := make([]span, 0, len(upper)*2)
	for i, id := range upper {
		for _, c := range g.Children(id) {
			if p, ok := lowerPos[c]; ok {
				spans = append(spans, span{i, p})
			}
		}
	}
	if len(spans) < 2 {
		return 0
	}
	slices.SortFunc(spans, func(a, b span) int {
		if c := cmp.Compare(a.upper, b.upper); c != 0 {
			return c
		}
		return cmp.Compare(a.lower, b.lower)
	})

	tree := make([]int, len(lower)+1)
	crossings, seen := 0, 0
	for _, s := range spans {
		atMost := 0
		for i := s.lower + 1; i > 0; i -= i & -i {
			atMost += tree[i]
		}
		crossings += seen - atMost
		seen++
		for i := s.lower + 1; i < len(tree); i += i & -i {
			tree[i]++
		}
	}
	return crossings
}
