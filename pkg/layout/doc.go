// Package layout groups the position algorithms that write a graph's X and
// Y columns.
//
//   - [circular]: nodes evenly spaced on a circle, the usual seed for a
//     force-directed run.
//   - [noise]: deterministic simplex-noise jitter that separates coincident
//     nodes.
//   - [forceatlas2]: the ForceAtlas2 force-directed layout, in place or on
//     flat buffers in a background goroutine.
//
// Every algorithm is a pure function of the graph columns it reads and must
// run on the goroutine that owns the graph.
package layout
