package transform_test

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/dag"
	"github.com/matzehuels/kintree/pkg/dag/transform"
)

func Example() {
	g := dag.New(nil)
	for _, id := range []string{"couple-1-2", "m3", "m4", "m5"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "couple-1-2", To: "m3"})
	_ = g.AddEdge(dag.Edge{From: "m3", To: "m4"})
	_ = g.AddEdge(dag.Edge{From: "couple-1-2", To: "m4"})
	_ = g.AddEdge(dag.Edge{From: "m5", To: "m4"})

	transform.BreakCycles(g)
	transform.AssignLayers(g)
	fmt.Println("dummies:", transform.Subdivide(g))
	fmt.Println("crossings:", transform.OrderRows(g, 4))
	for _, r := range g.RowIDs() {
		fmt.Println(r, dag.NodeIDs(g.NodesInRow(r)))
	}
	// Output:
	// dummies: 1
	// crossings: 0
	// 0 [couple-1-2]
	// 1 [m3 m5 couple-1-2~m4:1]
	// 2 [m4]
}
