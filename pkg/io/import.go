package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/graph"
)

// DefaultSize is the node and edge size used when no size field is set.
const DefaultSize = 10

// Options name the JSON fields a loader reads.
type Options struct {
	// NodeFeatureFields and EdgeFeatureFields fill the plain feature
	// columns in order.
	NodeFeatureFields []string `toml:"node_feature_fields"`
	EdgeFeatureFields []string `toml:"edge_feature_fields"`

	NodeColorField string `toml:"node_color_field"`
	NodeSizeField  string `toml:"node_size_field"`

	EdgeFromField   string `toml:"edge_from_field"`
	EdgeToField     string `toml:"edge_to_field"`
	EdgeColorField  string `toml:"edge_color_field"`
	EdgeSizeField   string `toml:"edge_size_field"`
	EdgeWeightField string `toml:"edge_weight_field"`
	EdgeZIndexField string `toml:"edge_z_index_field"`
	EdgeLabelField  string `toml:"edge_label_field"`

	// DefaultNodeColor and DefaultEdgeColor are the palette codes of items
	// without a colour field.
	DefaultNodeColor int `toml:"default_node_color"`
	DefaultEdgeColor int `toml:"default_edge_color"`
}

// DefaultOptions returns the field names written by [WriteJSON].
func DefaultOptions() Options {
	return Options{
		NodeColorField:  "color",
		NodeSizeField:   "size",
		EdgeFromField:   "source",
		EdgeToField:     "target",
		EdgeColorField:  "color",
		EdgeSizeField:   "size",
		EdgeWeightField: "weight",
		EdgeZIndexField: "z",
		EdgeLabelField:  "label",

		DefaultNodeColor: 1,
		DefaultEdgeColor: 2,
	}
}

type verboseGraph struct {
	Nodes []verboseNode    `json:"nodes"`
	Edges []map[string]any `json:"edges"`
}

type verboseNode struct {
	Key        string         `json:"key"`
	Attributes map[string]any `json:"attributes"`
}

// ReadJSON decodes a verbose JSON graph from r. It returns the graph, its
// value choices and the node keys, where keys[i] is the key of node i.
//
// ReadJSON returns an error with code [errors.ErrCodeInvalidFormat] for
// malformed JSON or attribute values of the wrong kind, and
// [errors.ErrCodeInvalidGraph] for duplicate keys or edges naming unknown
// nodes. ReadJSON does not close r.
func ReadJSON(r io.Reader, opts Options) (*graph.Graph, *graph.ValueChoices, []string, error) {
	var data verboseGraph
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode graph")
	}
	if opts.EdgeFromField == "" || opts.EdgeToField == "" {
		def := DefaultOptions()
		opts.EdgeFromField, opts.EdgeToField = def.EdgeFromField, def.EdgeToField
	}

	g := graph.NewVisual(len(data.Nodes), len(data.Edges), len(opts.NodeFeatureFields), len(opts.EdgeFeatureFields))
	choices := graph.NewValueChoices([]string{""}, nil)
	keys := make([]string, len(data.Nodes))
	index := make(map[string]int, len(data.Nodes))

	nv := g.NodeVisual()
	for i, n := range data.Nodes {
		if _, dup := index[n.Key]; dup {
			return nil, nil, nil, errors.New(errors.ErrCodeInvalidGraph, "duplicate node key %q", n.Key)
		}
		index[n.Key] = i
		keys[i] = n.Key
		a := n.Attributes

		label, _ := a["label"].(string)
		g.Nodes.Features[nv.Label][i] = float32(choices.InternLabel(label))

		fields := []struct {
			name string
			dst  *float32
		}{{"x", &g.Nodes.X[i]}, {"y", &g.Nodes.Y[i]}}
		for _, f := range fields {
			v, err := number(a, f.name, 0)
			if err != nil {
				return nil, nil, nil, nodeErr(n.Key, err)
			}
			*f.dst = float32(v)
		}
		z, err := number(a, "z", 0)
		if err != nil {
			return nil, nil, nil, nodeErr(n.Key, err)
		}
		g.Nodes.Z[i] = int16(z)

		size, err := number(a, opts.NodeSizeField, DefaultSize)
		if err != nil {
			return nil, nil, nil, nodeErr(n.Key, err)
		}
		g.Nodes.Features[nv.Size][i] = float32(size)

		color, err := colorCode(choices, a, opts.NodeColorField, opts.DefaultNodeColor)
		if err != nil {
			return nil, nil, nil, nodeErr(n.Key, err)
		}
		g.Nodes.Features[nv.Color][i] = float32(color)

		for f, name := range opts.NodeFeatureFields {
			v, err := number(a, name, 0)
			if err != nil {
				return nil, nil, nil, nodeErr(n.Key, err)
			}
			g.Nodes.Features[f][i] = float32(v)
		}
	}

	ev := g.EdgeVisual()
	for i, e := range data.Edges {
		from, to, err := endpoints(e, opts, index)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("edge %d: %w", i, err)
		}
		g.Edges.From[i], g.Edges.To[i] = int32(from), int32(to)

		weight, err := number(e, opts.EdgeWeightField, 1)
		if err != nil {
			return nil, nil, nil, edgeErr(i, err)
		}
		g.Edges.Weight[i] = float32(weight)

		z, err := number(e, opts.EdgeZIndexField, 0)
		if err != nil {
			return nil, nil, nil, edgeErr(i, err)
		}
		g.Edges.Z[i] = int16(z)

		size, err := number(e, opts.EdgeSizeField, DefaultSize)
		if err != nil {
			return nil, nil, nil, edgeErr(i, err)
		}
		g.Edges.Features[ev.Size][i] = float32(size)

		color, err := colorCode(choices, e, opts.EdgeColorField, opts.DefaultEdgeColor)
		if err != nil {
			return nil, nil, nil, edgeErr(i, err)
		}
		g.Edges.Features[ev.Color][i] = float32(color)

		if label, ok := e[opts.EdgeLabelField].(string); ok && opts.EdgeLabelField != "" {
			g.Edges.Features[ev.Label][i] = float32(choices.InternLabel(label))
		}

		for f, name := range opts.EdgeFeatureFields {
			v, err := number(e, name, 0)
			if err != nil {
				return nil, nil, nil, edgeErr(i, err)
			}
			g.Edges.Features[f][i] = float32(v)
		}
	}
	return g, choices, keys, nil
}

// ImportJSON reads the verbose JSON file at path.
func ImportJSON(path string, opts Options) (*graph.Graph, *graph.ValueChoices, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	defer f.Close()
	return ReadJSON(f, opts)
}

func nodeErr(key string, err error) error { return fmt.Errorf("node %s: %w", key, err) }
func edgeErr(i int, err error) error      { return fmt.Errorf("edge %d: %w", i, err) }

func endpoints(e map[string]any, opts Options, index map[string]int) (int, int, error) {
	var ids [2]int
	for i, field := range []string{opts.EdgeFromField, opts.EdgeToField} {
		key, ok := e[field].(string)
		if !ok {
			return 0, 0, errors.New(errors.ErrCodeInvalidFormat, "field %q must be a node key", field)
		}
		id, ok := index[key]
		if !ok {
			return 0, 0, errors.New(errors.ErrCodeInvalidGraph, "unknown node %q", key)
		}
		ids[i] = id
	}
	return ids[0], ids[1], nil
}

// number reads a numeric attribute. Booleans read as 0 or 1 and numeric
// strings are parsed. A missing field or an empty name yields def.
func number(attrs map[string]any, field string, def float64) (float64, error) {
	if field == "" {
		return def, nil
	}
	switch v := attrs[field].(type) {
	case nil:
		return def, nil
	case float64:
		return v, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.New(errors.ErrCodeInvalidFormat, "field %q: %q is not a number", field, v)
		}
		return f, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidFormat, "field %q: unsupported value %v", field, v)
	}
}

// colorCode reads a palette code or interns a colour string. A missing
// field yields def.
func colorCode(choices *graph.ValueChoices, attrs map[string]any, field string, def int) (int, error) {
	if field == "" {
		return def, nil
	}
	switch v := attrs[field].(type) {
	case nil:
		return def, nil
	case float64:
		return int(v), nil
	case string:
		if code, err := strconv.Atoi(v); err == nil {
			return code, nil
		}
		return choices.InternColor(v), nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidFormat, "field %q: unsupported colour %v", field, v)
	}
}
