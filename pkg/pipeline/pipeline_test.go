package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stagegraph/pkg/cache"
	pkgerrors "github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
)

const triangle = `{
  "nodes": [
    {"key": "a", "attributes": {"label": "A", "color": "#F00"}},
    {"key": "b", "attributes": {"label": "B"}},
    {"key": "c", "attributes": {"label": "C", "size": 4}}
  ],
  "edges": [
    {"source": "a", "target": "b", "size": 1},
    {"source": "b", "target": "c", "size": 1},
    {"source": "c", "target": "a", "size": 1}
  ]
}`

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	if err := os.WriteFile(path, []byte(triangle), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(bytes.NewBuffer(nil), log.Options{}))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"png", false},
		{"svg", false},
		{"pdf", false},
		{"json", false},
		{"dot", false},
		{"positions", false},
		{"PNG", true},
		{"", true},
	}
	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
	if err := ValidateFormats([]string{"svg", "gif"}); !pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput) {
		t.Errorf("ValidateFormats(gif) = %v, want INVALID_INPUT", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: "graph.json"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() = %v", err)
	}
	if opts.Layout.Algorithm != DefaultAlgorithm || opts.Layout.Init != AlgorithmCircular {
		t.Errorf("layout = %s after %s, want %s after circular", opts.Layout.Algorithm, opts.Layout.Init, DefaultAlgorithm)
	}
	if opts.Layout.Iterations != DefaultIterations {
		t.Errorf("Iterations = %d, want %d", opts.Layout.Iterations, DefaultIterations)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight || opts.PixelRatio != 1 {
		t.Errorf("frame = %dx%d@%v, want %dx%d@1", opts.Width, opts.Height, opts.PixelRatio, DefaultWidth, DefaultHeight)
	}
	if len(opts.Formats) != 1 || opts.Formats[0] != FormatPNG {
		t.Errorf("Formats = %v, want [png]", opts.Formats)
	}
	if opts.IO.EdgeFromField != "source" {
		t.Errorf("IO.EdgeFromField = %q, want source", opts.IO.EdgeFromField)
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"missing input", Options{}},
		{"algorithm", Options{Input: "g", Layout: Layout{Algorithm: "spring"}}},
		{"init", Options{Input: "g", Layout: Layout{Algorithm: AlgorithmCircular, Init: AlgorithmForceAtlas2}}},
		{"iterations", Options{Input: "g", Layout: Layout{Algorithm: AlgorithmNone, Iterations: -1}}},
		{"format", Options{Input: "g", Formats: []string{"bmp"}}},
		{"pixel ratio", Options{Input: "g", PixelRatio: -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.ValidateAndSetDefaults(); err == nil {
				t.Error("ValidateAndSetDefaults() = nil, want error")
			}
		})
	}
}

func TestLayoutKeyOpts(t *testing.T) {
	a := Options{Input: "g"}
	a.SetLayoutDefaults()
	b := a
	b.Layout.ForceAtlas2.Gravity = 5

	k := cache.NewDefaultKeyer()
	if k.LayoutKey("h", a.LayoutKeyOpts()) == k.LayoutKey("h", b.LayoutKeyOpts()) {
		t.Error("gravity change kept the layout key")
	}
	if a.LayoutKeyOpts().Algorithm != "circular+forceatlas2" {
		t.Errorf("Algorithm = %q, want circular+forceatlas2", a.LayoutKeyOpts().Algorithm)
	}
}

func TestGenerateLayoutCircular(t *testing.T) {
	scene, err := Load(writeInput(t), pkgio.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	l := DefaultLayout()
	l.Algorithm, l.Init = AlgorithmCircular, ""
	if err := GenerateLayout(context.Background(), scene.Graph, l, nil); err != nil {
		t.Fatalf("GenerateLayout() = %v", err)
	}
	if scene.Graph.Nodes.X[0] != 1 || scene.Graph.Nodes.Y[0] != 0 {
		t.Errorf("node 0 = (%v, %v), want (1, 0)", scene.Graph.Nodes.X[0], scene.Graph.Nodes.Y[0])
	}
}

func TestGenerateLayoutCancelled(t *testing.T) {
	scene, err := Load(writeInput(t), pkgio.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = GenerateLayout(ctx, scene.Graph, DefaultLayout(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GenerateLayout() = %v, want context.Canceled", err)
	}
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := quietRunner(c)
	defer r.Close()

	opts := Options{
		Input:   writeInput(t),
		Formats: []string{FormatPNG, FormatSVG, FormatJSON, FormatDOT, FormatPositions},
		Width:   200,
		Height:  150,
	}
	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if first.Stats.NodeCount != 3 || first.Stats.EdgeCount != 3 {
		t.Errorf("stats = %d nodes %d edges, want 3 and 3", first.Stats.NodeCount, first.Stats.EdgeCount)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	img, err := png.Decode(bytes.NewReader(first.Artifacts[FormatPNG]))
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 150 {
		t.Errorf("png bounds = %v, want 200x150", b)
	}
	if svg := string(first.Artifacts[FormatSVG]); strings.Count(svg, "<circle") != 3 {
		t.Errorf("svg has %d circles, want 3", strings.Count(svg, "<circle"))
	}
	if dot := string(first.Artifacts[FormatDOT]); !strings.Contains(dot, `fillcolor="#FF0000"`) {
		t.Errorf("dot missing node colour:\n%s", dot)
	}
	if pos := string(first.Artifacts[FormatPositions]); !strings.Contains(pos, `"key": "c"`) {
		t.Errorf("positions missing key c:\n%s", pos)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() second run = %v", err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs")
	}

	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if third.CacheInfo.LayoutHit {
		t.Error("Refresh read the cached layout")
	}
}

func TestExecuteMissingInput(t *testing.T) {
	_, err := quietRunner(nil).Execute(context.Background(), Options{Input: filepath.Join(t.TempDir(), "none.json")})
	if !pkgerrors.Is(err, pkgerrors.ErrCodeFileNotFound) {
		t.Errorf("Execute() = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRenderBackground(t *testing.T) {
	scene, err := Load(writeInput(t), pkgio.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	_, err = Render(context.Background(), scene, Options{Background: "not-a-colour"})
	if !pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput) {
		t.Errorf("Render() = %v, want INVALID_INPUT", err)
	}
}

func TestExecuteURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graph.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, triangle)
	}))
	defer srv.Close()

	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), Options{Input: srv.URL + "/graph.json", Formats: []string{FormatPositions}})
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}
	if res.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", res.Stats.NodeCount)
	}

	_, err = r.Execute(context.Background(), Options{Input: srv.URL + "/missing.json"})
	if !pkgerrors.Is(err, pkgerrors.ErrCodeNotFound) {
		t.Errorf("Execute(missing URL) = %v, want NOT_FOUND", err)
	}
}
