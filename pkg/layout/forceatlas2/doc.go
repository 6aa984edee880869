// Package forceatlas2 implements the ForceAtlas2 force-directed layout.
//
// # Iteration
//
// Each iteration runs over the node coordinates and masses of a graph:
//
//  1. The previous forces become the old forces and the new accumulators
//     are reset.
//  2. Every pair of nodes repels. With AdjustSizes the distance is reduced
//     by both node sizes and overlapping pairs get a 100x linear push.
//  3. Gravity pulls every node toward the origin with strength
//     Gravity/ScalingRatio, constant per unit of mass in strong mode and
//     inverse to the distance otherwise.
//  4. Every edge attracts its endpoints, linearly or with log(1+d)/d in
//     LinLogMode, scaled by weight^EdgeWeightInfluence and divided by the
//     source mass with OutboundAttractionDistribution.
//  5. Each node gets a speed derived from its swinging (mass*|old-new|) and
//     traction (|old+new|/2). With AdjustSizes the force magnitude is first
//     clamped to [MaxForce].
//  6. The node is placed at new + old*speed/SlowDown.
//
// The algorithm is a pure function of positions, sizes, masses and edges.
// It is quadratic in the node count. Linear attraction lets coordinates grow
// without bound on graphs far from equilibrium, while LinLogMode keeps them
// bounded. [Supervisor] stops with [ErrDiverged] once a coordinate stops
// being finite.
//
// # Execution
//
// [Engine] updates a graph in place and must run on the goroutine that owns
// the graph. For background layout, [ToMatrices] copies the graph into flat
// buffers ([NodeStride] floats per node, [EdgeStride] per edge),
// [IterateMatrices] advances them, and [AssignLayoutChanges] copies the
// positions back. [Supervisor] runs that loop on its own goroutine and sends
// copies of the node buffer over a channel:
//
//	sup := forceatlas2.NewSupervisor(g, forceatlas2.DefaultSettings(), forceatlas2.SupervisorOptions{})
//	for nodes := range sup.Start(ctx) {
//		ticker.Post(func() {
//			forceatlas2.AssignLayoutChanges(g, nodes)
//			r.ScheduleRefresh()
//		})
//	}
package forceatlas2
