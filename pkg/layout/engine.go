package layout

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/graph"
)

// Engine lays out tree data with a pluggable [Placer].
type Engine struct {
	placer Placer
	logger *log.Logger
}

// NewEngine creates an engine. A nil placer selects [LayeredPlacer] and a nil
// logger the default logger.
func NewEngine(placer Placer, logger *log.Logger) *Engine {
	if placer == nil {
		placer = LayeredPlacer{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{placer: placer, logger: logger}
}

// Layout positions every member of in. Members sharing a couple unit appear
// once, as a couple node holding both partners.
func (e *Engine) Layout(ctx context.Context, in graph.TreeData, opts Options) (graph.Layout, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return graph.Layout{}, err
	}
	start := time.Now()
	h, err := buildHierarchy(in, opts)
	if err != nil {
		return graph.Layout{}, errors.Wrap(errors.ErrCodeInternal, err, "build hierarchy")
	}
	centers, err := e.placer.Place(ctx, h.dag, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	out, err := expand(h, centers, opts)
	if err != nil {
		return graph.Layout{}, err
	}
	e.logger.Debug("layout complete",
		"units", h.dag.NodeCount(), "edges", len(out.Edges), "direction", opts.Direction,
		"elapsed", time.Since(start))
	return out, nil
}

func expand(h *hierarchy, centers map[string]graph.Point, opts Options) (graph.Layout, error) {
	out := graph.Layout{
		Direction: opts.Direction,
		Nodes:     make([]graph.LayoutNode, 0, h.dag.NodeCount()),
		Edges:     make([]graph.LayoutEdge, 0, h.dag.EdgeCount()),
	}
	for _, n := range h.dag.Nodes() {
		c, ok := centers[n.ID]
		if !ok {
			return graph.Layout{}, errors.New(errors.ErrCodeInternal, "placer returned no position for %s", n.ID)
		}
		topLeft := graph.Point{X: c.X - n.Width/2, Y: c.Y - n.Height/2}
		ln := graph.LayoutNode{
			ID:       n.ID,
			Type:     graph.NodeTypeMember,
			Position: topLeft,
			Width:    n.Width,
			Height:   n.Height,
		}
		ids := memberIDs(n)
		if n.IsCouple() {
			ln.Type = graph.NodeTypeCouple
			labels := make([]string, len(ids))
			for i, id := range ids {
				data := h.members[id].Data
				labels[i] = data.Label
				ln.Data.Partners = append(ln.Data.Partners, graph.Partner{
					NodeData: data,
					ID:       id,
					Position: graph.Point{X: topLeft.X + float64(i)*n.Width/2, Y: topLeft.Y},
				})
			}
			ln.Data.Label = strings.Join(labels, " & ")
		} else if len(ids) == 1 {
			ln.Data.NodeData = h.members[ids[0]].Data
		}
		out.Nodes = append(out.Nodes, ln)
		out.Width = math.Max(out.Width, topLeft.X+n.Width)
		out.Height = math.Max(out.Height, topLeft.Y+n.Height)
	}
	out.Rows = rowsOf(h.dag, centers, opts)

	edges := h.dag.Edges()
	slices.SortFunc(edges, func(a, b dag.Edge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	for _, e := range edges {
		out.Edges = append(out.Edges, graph.LayoutEdge{
			ID:     "e-" + e.From + "-" + e.To,
			Source: e.From,
			Target: e.To,
			Type:   graph.EdgeTypeStep,
		})
	}
	for _, m := range h.marriages {
		out.Edges = append(out.Edges, graph.LayoutEdge{
			ID:     "s-" + m.from + "-" + m.to,
			Source: m.from,
			Target: m.to,
			Label:  "spouse",
			Type:   graph.EdgeTypeStep,
		})
	}
	return out, nil
}

// rowsOf groups units by their coordinate on the generation axis.
func rowsOf(g *dag.DAG, centers map[string]graph.Point, opts Options) map[int][]string {
	type placed struct {
		id          string
		main, cross float64
	}
	var ps []placed
	for _, n := range g.Nodes() {
		c := centers[n.ID]
		p := placed{id: n.ID, main: c.Y, cross: c.X}
		if opts.Horizontal() {
			p.main, p.cross = c.X, c.Y
		}
		ps = append(ps, p)
	}
	slices.SortStableFunc(ps, func(a, b placed) int {
		if c := cmp.Compare(math.Round(a.main), math.Round(b.main)); c != 0 {
			return c
		}
		return cmp.Compare(a.cross, b.cross)
	})
	rows := make(map[int][]string)
	row := -1
	last := math.Inf(-1)
	for _, p := range ps {
		if m := math.Round(p.main); m != last {
			row++
			last = m
		}
		rows[row] = append(rows[row], p.id)
	}
	return rows
}
