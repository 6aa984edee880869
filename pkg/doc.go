// Package pkg holds the libraries behind stagegraph, an interactive
// node-link graph renderer.
//
// # Overview
//
// Stagegraph keeps a graph in columnar buffers, projects it through a
// camera, compiles every frame into draw-program calls and answers pointer
// queries against what was drawn. The pkg directory is organized into four
// areas:
//
//  1. Data - [graph], [settings], [io]
//  2. Geometry - [camera], [transform], [spatial], [labels]
//  3. Rendering - [frame], [program], [renderer], [raster], [export], [fonts]
//  4. Plumbing - [pipeline], [layout], [cache], [server], [schedule]
//
// # Architecture
//
// The data flow of one frame:
//
//	graph.Graph + settings.Settings
//	         ↓
//	    [transform] (normalize to the framed graph, camera matrix)
//	         ↓
//	    [frame] (visibility, z-order, program slots, label candidates)
//	         ↓
//	    [program] draw calls on a [raster] surface or [export] writer
//	         ↓
//	    [pick] (node grid and edge pixel probes for pointer events)
//
// [renderer] ties these together and owns the scheduling of refreshes and
// renders on a [schedule] frame source.
//
// # Quick Start
//
// Render a file to PNG with the full pipeline:
//
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "graph.json",
//	    Formats: []string{pipeline.FormatPNG},
//	})
//	os.WriteFile("graph.png", result.Artifacts[pipeline.FormatPNG], 0o644)
//
// Drive a live ForceAtlas2 layout:
//
//	sv := forceatlas2.NewSupervisor(g, forceatlas2.DefaultSettings(), forceatlas2.SupervisorOptions{
//	    BatchIterations: 10,
//	})
//	for nodes := range sv.Start(ctx) {
//	    ticker.Post(func() {
//	        forceatlas2.AssignLayoutChanges(g, nodes)
//	        r.ScheduleRefresh()
//	    })
//	}
//
// # Caching
//
// [cache] stores layouts and rendered artifacts keyed by graph and option
// hashes. Backends are a local directory, badger, Redis or MongoDB, chosen
// by URL with [cache.Open].
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/renderer/... # Specific package
//	go test -run Example       # Examples only
package pkg
