package transform

import (
	"cmp"
	"maps"
	"slices"

	"github.com/matzehuels/kintree/pkg/dag"
)

// OrderRows reduces edge crossings with the barycenter heuristic.
//
// Each sweep walks the rows downward, sorting every row by the mean position
// of its parents in the row above, then upward using children. A node
// without neighbours on the reference side keeps its position. The ordering
// with the fewest crossings seen is kept and its crossing count returned.
// g must be layered with consecutive-row edges (see [Subdivide]).
func OrderRows(g *dag.DAG, sweeps int) int {
	rows := g.RowIDs()
	best := snapshot(g, rows)
	bestCrossings := dag.CountCrossings(g)

	for i := 0; i < sweeps && bestCrossings > 0; i++ {
		for j := 1; j < len(rows); j++ {
			reorder(g, rows[j], rows[j-1], g.Parents)
		}
		for j := len(rows) - 2; j >= 0; j-- {
			reorder(g, rows[j], rows[j+1], g.Children)
		}
		if c := dag.CountCrossings(g); c < bestCrossings {
			bestCrossings = c
			best = snapshot(g, rows)
		}
	}

	for _, r := range slices.Sorted(maps.Keys(best)) {
		g.SetRowOrder(r, best[r])
	}
	return bestCrossings
}

func reorder(g *dag.DAG, row, ref int, neighbours func(string) []string) {
	refPos := dag.PosMap(dag.NodeIDs(g.NodesInRow(ref)))
	ids := dag.NodeIDs(g.NodesInRow(row))

	type keyed struct {
		id  string
		key float64
		pos int
	}
	ks := make([]keyed, len(ids))
	for i, id := range ids {
		sum, n := 0.0, 0
		for _, nb := range neighbours(id) {
			if p, ok := refPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		key := float64(i)
		if n > 0 {
			key = sum / float64(n)
		}
		ks[i] = keyed{id, key, i}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.pos, b.pos)
	})
	for i, k := range ks {
		ids[i] = k.id
	}
	g.SetRowOrder(row, ids)
}

func snapshot(g *dag.DAG, rows []int) map[int][]string {
	out := make(map[int][]string, len(rows))
	for _, r := range rows {
		out[r] = dag.NodeIDs(g.NodesInRow(r))
	}
	return out
}
