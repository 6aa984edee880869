package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/stagegraph/pkg/graph"
)

// WriteJSON writes g in the verbose format using the field names of
// [DefaultOptions]. Colours are written as strings from choices, labels as
// their text. Plain feature columns are not written.
func WriteJSON(w io.Writer, g *graph.Graph, choices *graph.ValueChoices, keys []string) error {
	if err := checkKeys(g, keys); err != nil {
		return err
	}
	out := verboseGraph{
		Nodes: make([]verboseNode, g.NodeCount()),
		Edges: make([]map[string]any, g.EdgeCount()),
	}
	for i := range out.Nodes {
		attrs := map[string]any{
			"label": choices.Label(g.NodeLabel(i)),
			"x":     g.Nodes.X[i],
			"y":     g.Nodes.Y[i],
			"z":     g.Nodes.Z[i],
			"size":  g.NodeSize(i),
		}
		if c := choices.Color(g.NodeColor(i)); c != "" {
			attrs["color"] = c
		}
		out.Nodes[i] = verboseNode{Key: keys[i], Attributes: attrs}
	}
	lv := g.EdgeVisual().Label
	for i := range out.Edges {
		e := map[string]any{
			"source": keys[g.Edges.From[i]],
			"target": keys[g.Edges.To[i]],
			"weight": g.Edges.Weight[i],
			"z":      g.Edges.Z[i],
			"size":   g.EdgeSize(i),
		}
		if c := choices.Color(g.EdgeColor(i)); c != "" {
			e["color"] = c
		}
		if l := choices.Label(int(g.Edges.Features[lv][i])); l != "" {
			e["label"] = l
		}
		out.Edges[i] = e
	}
	return encode(w, out)
}

// ExportJSON writes g to path with [WriteJSON].
func ExportJSON(path string, g *graph.Graph, choices *graph.ValueChoices, keys []string) error {
	return writeFile(path, func(w io.Writer) error { return WriteJSON(w, g, choices, keys) })
}

// Position is a node location in a layout result.
type Position struct {
	Key string  `json:"key"`
	X   float32 `json:"x"`
	Y   float32 `json:"y"`
}

// WritePositions writes the node keys and coordinates of g as a JSON
// array.
func WritePositions(w io.Writer, g *graph.Graph, keys []string) error {
	if err := checkKeys(g, keys); err != nil {
		return err
	}
	out := make([]Position, g.NodeCount())
	for i := range out {
		out[i] = Position{Key: keys[i], X: g.Nodes.X[i], Y: g.Nodes.Y[i]}
	}
	return encode(w, out)
}

// ReadPositions decodes a [WritePositions] array and applies it to g.
// Unknown keys are ignored.
func ReadPositions(r io.Reader, g *graph.Graph, keys []string) error {
	var in []Position
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("decode positions: %w", err)
	}
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}
	for _, p := range in {
		if i, ok := index[p.Key]; ok && i < g.NodeCount() {
			g.Nodes.X[i], g.Nodes.Y[i] = p.X, p.Y
		}
	}
	return nil
}

func checkKeys(g *graph.Graph, keys []string) error {
	if len(keys) != g.NodeCount() {
		return fmt.Errorf("got %d keys for %d nodes", len(keys), g.NodeCount())
	}
	return nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
