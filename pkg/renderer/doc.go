// Package renderer orchestrates interactive drawing of a graph.
//
// A [Renderer] owns one graph, one camera and one container. It wires the
// frame compiler, the spatial index, the label grid, the picker and the
// render scheduler together, and hands the per-frame work to pluggable
// draw programs and layers.
//
// # Frames
//
// Two kinds of work reach the next display refresh through the scheduler:
//
//   - a render redraws the batches compiled by the last refresh under the
//     live camera
//   - a refresh first recompiles batches, spatial index and label grid from
//     the graph, then renders
//
// Both coalesce: any number of requests before the frame runs cost one
// frame. Camera updates schedule a render; setting changes, graph swaps and
// bounding-box changes schedule a refresh.
//
// # Execution Context
//
// A renderer is not safe for concurrent use. Every call, including the
// callbacks the frame requester runs, must happen on one goroutine. With a
// [schedule.Ticker] other goroutines submit work through Ticker.Post or
// Ticker.Call.
//
// # Events
//
// Listeners are registered per kind and type and return a remover:
//
//	off := r.OnNode(renderer.Click, func(e renderer.NodeEvent) {
//	    log.Info("clicked", "node", e.Node)
//	    e.Event.PreventDefault()
//	})
//	defer off()
//
// The input captor feeds the renderer through [Renderer.HandleMove] and
// [Renderer.HandlePointer]. Hover notifications come in pairs: moving
// straight from one node to another emits a leave before the enter.
//
// # Errors
//
// Configuration errors are returned by [New], [Renderer.Render] and
// [Renderer.Refresh] with a code from pkg/errors. A scheduled frame that
// fails logs the error and exposes it through [Renderer.Err].
package renderer
