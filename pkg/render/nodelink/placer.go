package nodelink

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/layout"
)

// formatPlain is Graphviz's line-oriented position dump.
const formatPlain graphviz.Format = "plain"

// GraphvizPlacer places units with the Graphviz dot engine.
type GraphvizPlacer struct{}

// Place implements layout.Placer.
func (GraphvizPlacer) Place(ctx context.Context, h *dag.DAG, opts layout.Options) (map[string]graph.Point, error) {
	// Unit ids contain dashes and may not be valid DOT identifiers, so the
	// graph is written with generated names and mapped back.
	byName := make(map[string]string, h.NodeCount())
	i := 0
	dot := toDOT(h, Options{
		Direction: opts.Direction,
		RankSep:   opts.RankSep,
		NodeSep:   opts.NodeSep,
		FixedSize: true,
	}, func(n *dag.Node) string {
		name := "n" + strconv.Itoa(i)
		i++
		byName[name] = n.ID
		return name
	})

	plain, err := render(ctx, dot, formatPlain)
	if err != nil {
		return nil, err
	}
	centers, err := parsePlain(plain)
	if err != nil {
		return nil, err
	}
	out := make(map[string]graph.Point, len(centers))
	for name, p := range centers {
		if id, ok := byName[name]; ok {
			out[id] = p
		}
	}
	if len(out) != h.NodeCount() {
		return nil, fmt.Errorf("graphviz placed %d of %d units", len(out), h.NodeCount())
	}
	return out, nil
}

// parsePlain reads node centers from plain output. Graphviz reports inches
// with the origin at the bottom left; the result is in layout units with the
// origin at the top left.
func parsePlain(data []byte) (map[string]graph.Point, error) {
	var height float64
	out := make(map[string]graph.Point)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		switch f[0] {
		case "graph":
			if len(f) < 4 {
				return nil, fmt.Errorf("plain: short graph line %q", sc.Text())
			}
			h, err := strconv.ParseFloat(f[3], 64)
			if err != nil {
				return nil, fmt.Errorf("plain: graph height: %w", err)
			}
			height = h
		case "node":
			if len(f) < 4 {
				return nil, fmt.Errorf("plain: short node line %q", sc.Text())
			}
			x, errX := strconv.ParseFloat(f[2], 64)
			y, errY := strconv.ParseFloat(f[3], 64)
			if errX != nil || errY != nil {
				return nil, fmt.Errorf("plain: bad position in %q", sc.Text())
			}
			out[f[1]] = graph.Point{X: x * pointsPerInch, Y: (height - y) * pointsPerInch}
		case "stop":
			return out, nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ layout.Placer = GraphvizPlacer{}
