package transform

import "github.com/matzehuels/kintree/pkg/dag"

// AssignLayers sets each node's row to its longest distance from a source,
// so every parent sits above all of its children.
//
// A source that married into the family would otherwise float at row 0 far
// above its children; such nodes are moved down to one row above their
// highest child. g must be acyclic (see [BreakCycles]).
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	indeg := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes {
		indeg[n.ID] = g.InDegree(n.ID)
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range g.Children(cur) {
			rows[c] = max(rows[c], rows[cur]+1)
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	for _, n := range nodes {
		children := g.Children(n.ID)
		if g.InDegree(n.ID) > 0 || len(children) == 0 {
			continue
		}
		top := rows[children[0]]
		for _, c := range children[1:] {
			top = min(top, rows[c])
		}
		rows[n.ID] = max(top-1, 0)
	}

	g.SetRows(rows)
}
