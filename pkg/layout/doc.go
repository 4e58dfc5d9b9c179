// Package layout arranges a family tree into a generation-ordered pedigree.
//
// # Overview
//
// [Engine.Layout] turns raw tree data (members plus labelled edges) into
// positioned nodes and orthogonal edges ready for drawing:
//
//  1. Edges are classified as spousal, parental or inert from their flags
//     and labels. Labels naming the child side (child, son, daughter) point
//     from child to parent and are reversed.
//  2. Spouses are collapsed into couple units with id couple-<lo>-<hi>, twice
//     as wide as an individual. Members are visited in ascending id order and
//     each pairs with its lowest-id spouse that is still unpaired. Further
//     marriages come out as step edges labelled "spouse" with id
//     s-<unit>-<unit> and do not affect placement.
//  3. Parent to child edges are lifted to unit edges, forming the hierarchy
//     handed to a [Placer].
//  4. The placer returns unit centers. Couples are expanded back so each
//     partner carries its own top-left position.
//
// # Placers
//
// [LayeredPlacer] is the default and runs entirely in Go: cycle breaking,
// longest-path generations, barycenter crossing reduction and a compaction
// pass that pulls parents over their children. The nodelink package provides
// a Graphviz placer with network-simplex ranking.
//
// Layouts are deterministic: identical input produces identical output.
package layout
