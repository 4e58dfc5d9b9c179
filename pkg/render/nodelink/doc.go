// Package nodelink renders family hierarchies as node-link diagrams with
// Graphviz.
//
// # Usage
//
// Convert a hierarchy built by layout.BuildHierarchy to DOT, then render it:
//
//	dot := nodelink.ToDOT(h, nodelink.Options{Direction: "TB"})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// # Placement
//
// [GraphvizPlacer] implements layout.Placer. It lays the hierarchy out with
// the dot engine (network-simplex ranking) and reads node centers back from
// Graphviz's plain output format, converted from inches to layout units with
// y pointing down.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz], which embeds Graphviz as
// WebAssembly, so no system installation is needed.
package nodelink
