// Package transform prepares a unit hierarchy for layered drawing.
//
// The steps run in this order:
//
//	transform.BreakCycles(g)  // drop back edges found by DFS
//	transform.AssignLayers(g) // longest-path rows, parentless units pulled down
//	transform.Subdivide(g)    // dummy nodes so every edge spans one row
//	transform.OrderRows(g, 8) // barycenter sweeps, keeps the fewest crossings
//
// Each step mutates g in place and visits nodes in sorted id order, so the
// result depends only on the graph's contents.
package transform
