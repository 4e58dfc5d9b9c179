// Package dag holds the hierarchy graph the layout engine places.
//
// Nodes are layout units rather than members: a couple of spouses is one
// [NodeKindCouple] node, everyone else an [NodeKindIndividual] node. Edges run
// from a parent's unit to a child's unit and there is at most one per pair.
// After layering every node carries a Row (its generation) and the row index
// keeps the left-to-right order chosen by crossing reduction.
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "couple-1-2", Kind: dag.NodeKindCouple, Members: []int64{1, 2}})
//	g.AddNode(dag.Node{ID: "m3", Members: []int64{3}})
//	g.AddEdge(dag.Edge{From: "couple-1-2", To: "m3"})
//
// [CountLayerCrossings] counts crossings between adjacent rows in
// O(E log V). The transform subpackage breaks cycles, assigns rows, inserts
// dummy nodes on long edges and orders rows.
package dag
