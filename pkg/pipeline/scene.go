package pipeline

import (
	"bytes"
	"context"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/graph"
	"github.com/matzehuels/stagegraph/pkg/httputil"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
)

// Scene is a loaded graph with its value choices and node keys.
type Scene struct {
	Graph   *graph.Graph
	Choices *graph.ValueChoices
	Keys    []string
}

// Load reads a verbose JSON graph from path.
func Load(path string, opts pkgio.Options) (*Scene, error) {
	g, choices, keys, err := pkgio.ImportJSON(path, opts)
	if err != nil {
		return nil, err
	}
	return &Scene{Graph: g, Choices: choices, Keys: keys}, nil
}

// LoadURL fetches a verbose JSON graph from an http or https URL.
func LoadURL(ctx context.Context, f *httputil.Fetcher, url string, opts pkgio.Options) (*Scene, error) {
	data, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	g, choices, keys, err := pkgio.ReadJSON(bytes.NewReader(data), opts)
	if err != nil {
		return nil, err
	}
	return &Scene{Graph: g, Choices: choices, Keys: keys}, nil
}

// Hash returns the content hash of the scene's graph as it would be
// written by io.WriteJSON. Positions are part of the hash.
func (s *Scene) Hash() (string, error) {
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(&buf, s.Graph, s.Choices, s.Keys); err != nil {
		return "", err
	}
	return cache.Hash(buf.Bytes()), nil
}

// Positions encodes the node positions keyed by node key.
func (s *Scene) Positions() ([]byte, error) {
	var buf bytes.Buffer
	if err := pkgio.WritePositions(&buf, s.Graph, s.Keys); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetPositions applies positions written by [Scene.Positions].
func (s *Scene) SetPositions(data []byte) error {
	return pkgio.ReadPositions(bytes.NewReader(data), s.Graph, s.Keys)
}
