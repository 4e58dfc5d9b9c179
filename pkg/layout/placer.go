package layout

import (
	"context"
	"math"
	"slices"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/dag/transform"
	"github.com/matzehuels/kintree/pkg/graph"
)

// Placer assigns a center point to every unit of the hierarchy. Points are in
// final orientation: generations run along y for TB and along x for LR.
type Placer interface {
	Place(ctx context.Context, h *dag.DAG, opts Options) (map[string]graph.Point, error)
}

// PlacerFunc adapts a function to [Placer].
type PlacerFunc func(ctx context.Context, h *dag.DAG, opts Options) (map[string]graph.Point, error)

// Place calls f.
func (f PlacerFunc) Place(ctx context.Context, h *dag.DAG, opts Options) (map[string]graph.Point, error) {
	return f(ctx, h, opts)
}

// LayeredPlacer is a Sugiyama-style placer written in Go. It never mutates
// the hierarchy it is given.
type LayeredPlacer struct {
	// Passes bounds the compaction passes. Zero means 8.
	Passes int
}

// Place implements [Placer].
func (p LayeredPlacer) Place(ctx context.Context, h *dag.DAG, opts Options) (map[string]graph.Point, error) {
	g := h.Clone()
	transform.BreakCycles(g)
	transform.AssignLayers(g)
	transform.Subdivide(g)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	transform.OrderRows(g, opts.Sweeps)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	horizontal := opts.Horizontal()
	// main is the extent along the generation axis, cross the extent within
	// a generation.
	extents := func(n *dag.Node) (main, cross float64) {
		if horizontal {
			return n.Width, n.Height
		}
		return n.Height, n.Width
	}

	rows := g.RowIDs()
	rank := make(map[int]float64, len(rows))
	offset := 0.0
	for _, r := range rows {
		size := 0.0
		for _, n := range g.NodesInRow(r) {
			m, _ := extents(n)
			size = math.Max(size, m)
		}
		rank[r] = offset + size/2
		offset += size + opts.RankSep
	}

	cross := make(map[string]float64, g.NodeCount())
	for _, r := range rows {
		pos := 0.0
		for i, n := range g.NodesInRow(r) {
			_, c := extents(n)
			if i > 0 {
				pos += opts.NodeSep
			}
			cross[n.ID] = pos + c/2
			pos += c
		}
	}

	passes := p.Passes
	if passes == 0 {
		passes = 8
	}
	for i := 0; i < passes; i++ {
		for j := 1; j < len(rows); j++ {
			align(g, rows[j], g.Parents, cross, extents, opts.NodeSep)
		}
		for j := len(rows) - 2; j >= 0; j-- {
			align(g, rows[j], g.Children, cross, extents, opts.NodeSep)
		}
	}

	lo := math.Inf(1)
	for _, n := range g.Nodes() {
		_, c := extents(n)
		lo = math.Min(lo, cross[n.ID]-c/2)
	}
	out := make(map[string]graph.Point, h.NodeCount())
	for _, n := range g.Nodes() {
		if n.IsDummy() {
			continue
		}
		c, m := cross[n.ID]-lo, rank[n.Row]
		if horizontal {
			out[n.ID] = graph.Point{X: m, Y: c}
		} else {
			out[n.ID] = graph.Point{X: c, Y: m}
		}
	}
	return out, nil
}

// align moves the nodes of one row toward the mean cross position of their
// neighbours while keeping row order and spacing. Two greedy passes (left
// bound and right bound) both satisfy the spacing constraints, so their
// average does too.
func align(g *dag.DAG, row int, neighbours func(string) []string, cross map[string]float64,
	extents func(*dag.Node) (float64, float64), sep float64) {
	nodes := g.NodesInRow(row)
	if len(nodes) == 0 {
		return
	}
	want := make([]float64, len(nodes))
	for i, n := range nodes {
		nbs := neighbours(n.ID)
		if len(nbs) == 0 {
			want[i] = cross[n.ID]
			continue
		}
		sum := 0.0
		for _, nb := range nbs {
			sum += cross[nb]
		}
		want[i] = sum / float64(len(nbs))
	}
	gap := func(i int) float64 {
		_, a := extents(nodes[i-1])
		_, b := extents(nodes[i])
		return (a+b)/2 + sep
	}

	left := slices.Clone(want)
	for i := 1; i < len(left); i++ {
		left[i] = math.Max(left[i], left[i-1]+gap(i))
	}
	right := slices.Clone(want)
	for i := len(right) - 2; i >= 0; i-- {
		right[i] = math.Min(right[i], right[i+1]-gap(i+1))
	}
	for i, n := range nodes {
		cross[n.ID] = (left[i] + right[i]) / 2
	}
}
