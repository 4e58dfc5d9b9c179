// Package render turns laid-out family trees into drawable output.
//
// The [nodelink] subpackage writes the unit hierarchy as Graphviz DOT,
// renders it to SVG in-process and doubles as a Graphviz-backed placer for
// the layout engine.
//
// [nodelink]: github.com/matzehuels/kintree/pkg/render/nodelink
package render
