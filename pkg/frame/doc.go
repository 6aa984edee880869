// Package frame implements the full-refresh pass of the renderer.
//
// A refresh runs whenever the graph was swapped or mutated. It is the only
// place where the spatial index, the label grid and the draw batches are
// written, and it rebuilds all three wholesale:
//
//  1. Clear the spatial index and resize the label grid to the viewport.
//  2. Compute the node extent and frame the graph against it (or against a
//     custom bounding box).
//  3. Optionally overwrite the visual columns with the configured defaults.
//  4. Normalize node coordinates into the unit square in place.
//  5. Tally entities per type, collect forced labels and z extents.
//  6. Reallocate every program with its exact entity count.
//  7. Hand each node to its program at a contiguous slot, insert visible
//     nodes into the index (y flipped, radius divided by the normalization
//     ratio) and into the label grid at their position under the default
//     camera, then organize the grid once.
//  8. Hand each edge to its program the same way.
//
// With the z_index setting on, entities are handed to programs in ascending
// z order so that higher z draws later.
//
// Because normalization happens in place, a second refresh over the same
// graph sees the unit extent and is an identity on coordinates.
package frame
