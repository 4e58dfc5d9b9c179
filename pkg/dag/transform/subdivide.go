package transform

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/dag"
)

// Subdivide replaces every edge that spans more than one row with a chain of
// zero-size dummy nodes, one per intermediate row:
//
//	couple-1-2 (row 0) -> m9 (row 3)
//	couple-1-2 -> couple-1-2~m9:1 -> couple-1-2~m9:2 -> m9
//
// Dummies carry the source unit in MasterID. The original edge's metadata
// moves to the last segment. Call after [AssignLayers].
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0
	var long []dag.Edge
	for _, e := range g.Edges() {
		src, okS := g.Node(e.From)
		dst, okD := g.Node(e.To)
		if !okS || !okD || dst.Row <= src.Row+1 {
			continue
		}
		long = append(long, e)
		prev := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(src.ID+"~"+dst.ID, row)
			must(g.AddNode(dag.Node{ID: id, Row: row, Kind: dag.NodeKindDummy, MasterID: src.ID}))
			must(g.AddEdge(dag.Edge{From: prev, To: id}))
			prev = id
			added++
		}
		must(g.AddEdge(dag.Edge{From: prev, To: dst.ID, Meta: e.Meta}))
	}
	for _, e := range long {
		g.RemoveEdge(e.From, e.To)
	}
	return added
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

type idGen struct {
	used map[string]bool
}

func newIDGen(nodes []*dag.Node) *idGen {
	used := make(map[string]bool, len(nodes)*2)
	for _, n := range nodes {
		used[n.ID] = true
	}
	return &idGen{used: used}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s:%d", base, row)
	id := prefix
	for i := 1; gen.used[id]; i++ {
		id = fmt.Sprintf("%s#%d", prefix, i)
	}
	gen.used[id] = true
	return id
}
