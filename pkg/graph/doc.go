// Package graph provides the struct-of-arrays graph store consumed by the
// renderer and the layout engines.
//
// # Layout of a Graph
//
// A [Graph] holds two sets of parallel columns indexed by entity id:
//
//   - [Nodes]: X, Y coordinates, a Z draw-order hint and feature columns
//   - [Edges]: From, To node indices, Weight, Z and feature columns
//
// Every feature column is a fixed-width [Column] of float32. Application
// columns come first; the last four columns of each set are reserved for
// visual state:
//
//	count-4  color code (index into ValueChoices colors)
//	count-3  label code (index into ValueChoices labels)
//	count-2  size
//	count-1  flags byte
//
// Reserved positions are always resolved from the current column count with
// [VisualFor], never hard-coded, so plain columns can be prepended without
// renumbering consumers.
//
// # Flags Byte
//
// Node and edge flags are packed into a single byte with [EncodeNodeFlags]
// and [EncodeEdgeFlags]:
//
//	node: bit0 hidden, bit1 highlighted, bit2 forceLabel, bits3-4 type (0-3)
//	edge: bit0 hidden, bit1 forceLabel, bits2-4 type (0-7)
//
// The codecs are total and reversible for every legal input, and they are
// the contract for anything that fills feature columns externally, such as
// the loaders in pkg/io.
//
// # Value Choices
//
// [ValueChoices] maps the small integer codes stored in the color and label
// columns back to strings. Code 0 is the empty string in both tables. A graph
// and its value choices travel together: swapping one without the other
// breaks decoding.
//
// # Lifecycle
//
// A Graph is allocated once with a fixed shape and then mutated in place
// (layout, default visuals, normalization). There is no incremental add or
// remove; replacing the graph is an atomic swap on the renderer. Call
// [Graph.Validate] before handing a graph built elsewhere to the renderer.
package graph
