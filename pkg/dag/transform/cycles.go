package transform

import "github.com/matzehuels/kintree/pkg/dag"

// BreakCycles removes the back edges found by a depth-first search started
// from the sources, then from any node not yet reached. It returns the number
// of edges removed. Family data is acyclic unless someone is recorded as
// their own ancestor.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)
	var back [][2]string

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, c := range g.Children(id) {
			switch color[c] {
			case white:
				dfs(c)
			case gray:
				back = append(back, [2]string{id, c})
			}
		}
		color[id] = black
	}
	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range back {
		g.RemoveEdge(e[0], e[1])
	}
	return len(back)
}
