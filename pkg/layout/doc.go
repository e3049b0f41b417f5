// Package layout places the nodes of a [graph.Model] on a canvas.
//
// # Engines
//
// Two engines implement [Engine]:
//
//   - [GraphvizEngine]: runs the Graphviz "dot" layered layout through
//     go-graphviz and reads back every node's position
//   - [LevelEngine]: a small deterministic layered placement in pure Go,
//     one row per rank, used when Graphviz is not wanted and in tests
//
// [CachedEngine] wraps either one with a [cache.Cache] so that reloading an
// unchanged topology skips the layout run.
//
// # Options
//
// [Options] mirror the hierarchical layout settings of the two views:
// LevelSeparation is the distance between ranks, NodeSpacing the distance
// between neighbours in a rank, TreeSpacing the gap between disconnected
// components. All distances are canvas units (points).
//
// # Coordinates
//
// Positions are node centers. Y grows downwards and rank 1 is on top, which
// matches the terminal viewer and SVG output.
package layout
