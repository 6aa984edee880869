// Package io reads and writes graphs as "verbose" JSON.
//
// # JSON Format
//
// Nodes carry a unique key and free-form attributes. Edges are flat objects
// whose fields are named by [Options]:
//
//	{
//	  "nodes": [
//	    {"key": "a", "attributes": {"label": "Alpha", "x": 0, "y": 0, "z": 1, "color": "#F00", "size": 4}},
//	    {"key": "b", "attributes": {"label": "Beta", "x": 1, "y": 1}}
//	  ],
//	  "edges": [
//	    {"source": "a", "target": "b", "weight": 2}
//	  ]
//	}
//
// The x, y, z and label attributes are read from every node. Colour, size,
// weight and z-index fields are optional, and extra numeric or boolean
// attributes can be mapped onto plain feature columns in order.
//
// # Import
//
// [ReadJSON] builds a [graph.Graph] together with its [graph.ValueChoices]
// and the node keys in index order:
//
//	g, choices, keys, err := io.ImportJSON("graph.json", io.DefaultOptions())
//
// Labels are interned into a fresh label table, so label codes are dense.
// Colour attributes may be palette codes (numbers) or colour strings, which
// are interned into the default palette. Nodes without a size get
// [DefaultSize].
//
// # Export
//
// [WriteJSON] writes the verbose format back so that [ReadJSON] with
// [DefaultOptions] reproduces the graph. [WritePositions] writes only node
// keys and coordinates, which is what a layout run produces.
package io
