// Package graph defines the wire formats around the layout engine.
//
// [TreeData] is the raw family graph: one node per member and one edge per
// stored relationship, labelled for display. [Layout] is what the layout
// engine produces from it: positioned member and couple nodes plus the step
// edges that connect generations.
//
// Both types serialize to JSON for the HTTP API and to BSON-compatible field
// names so they can be cached or stored as documents. Marshal helpers sort
// nothing; the producers already emit nodes and edges in a stable order.
//
//	data, _ := graph.MarshalLayout(l)
//	l, err := graph.UnmarshalLayout(data)
package graph
