package nodelink

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/kintree/pkg/dag"
)

// pointsPerInch converts layout units to Graphviz inches.
const pointsPerInch = 72.0

// Options configures DOT output.
type Options struct {
	// Direction is TB or LR. Empty means TB.
	Direction string
	// RankSep and NodeSep are in layout units. Zero keeps Graphviz defaults.
	RankSep float64
	NodeSep float64
	// Detailed adds the generation row and metadata to node labels.
	Detailed bool
	// FixedSize pins every node to its Width and Height.
	FixedSize bool
}

// ToDOT converts the hierarchy to Graphviz DOT. Couples are drawn with a
// double border and subdivision dummies as small dashed points.
func ToDOT(g *dag.DAG, opts Options) string {
	return toDOT(g, opts, func(n *dag.Node) string { return fmt.Sprintf("%q", n.ID) })
}

func toDOT(g *dag.DAG, opts Options, name func(*dag.Node) string) string {
	dir := opts.Direction
	if dir == "" {
		dir = "TB"
	}
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=ortho;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14];\n")
	if opts.RankSep > 0 {
		fmt.Fprintf(&buf, "  ranksep=%s;\n", inches(opts.RankSep))
	}
	if opts.NodeSep > 0 {
		fmt.Fprintf(&buf, "  nodesep=%s;\n", inches(opts.NodeSep))
	}
	buf.WriteString("\n")

	names := make(map[string]string, g.NodeCount())
	for _, n := range g.Nodes() {
		names[n.ID] = name(n)
		fmt.Fprintf(&buf, "  %s [%s];\n", names[n.ID], strings.Join(attrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %s -> %s;\n", names[e.From], names[e.To])
	}

	buf.WriteString("}\n")
	return buf.String()
}

func attrs(n *dag.Node, opts Options) []string {
	out := []string{fmt.Sprintf("label=%q", label(n, opts.Detailed))}
	switch {
	case n.IsDummy():
		out = append(out, "shape=point", "style=dashed")
	case n.IsCouple():
		out = append(out, "peripheries=2")
	}
	if opts.FixedSize && !n.IsDummy() {
		out = append(out, "fixedsize=true",
			"width="+inches(n.Width), "height="+inches(n.Height))
	}
	return out
}

func label(n *dag.Node, detailed bool) string {
	text, _ := n.Meta["label"].(string)
	if text == "" {
		text = n.ID
	}
	if !detailed {
		return text
	}
	parts := []string{fmt.Sprintf("row: %d", n.Row), "kind: " + n.Kind.String()}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		if k == "label" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}
	return text + "\n" + strings.Join(parts, "\n")
}

func inches(units float64) string {
	return fmt.Sprintf("%.4f", units/pointsPerInch)
}
