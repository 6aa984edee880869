package cli

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
)

func TestRenderCommand(t *testing.T) {
	input := writeGraph(t)
	base := filepath.Join(t.TempDir(), "frame")

	err := execute(t, "render", input, "--no-cache", "--algorithm", "none",
		"-o", base, "-f", "png,svg,positions", "--width", "120", "--height", "80",
		"--set", "label_size=18", "--background", "#102030")
	if err != nil {
		t.Fatalf("render = %v", err)
	}

	f, err := os.Open(base + ".png")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode() = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 80 {
		t.Errorf("png bounds = %v, want 120x80", b)
	}

	svg, err := os.ReadFile(base + ".svg")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(string(svg), "<circle"); n != 4 {
		t.Errorf("svg circles = %d, want 4", n)
	}

	if _, err := os.Stat(base + ".positions.json"); err != nil {
		t.Errorf("positions file: %v", err)
	}
}

func TestRenderCommandErrors(t *testing.T) {
	input := writeGraph(t)
	out := filepath.Join(t.TempDir(), "x")
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"format", []string{"-f", "gif"}, errors.ErrCodeInvalidInput},
		{"setting", []string{"--set", "label_density=-1"}, errors.ErrCodeInvalidSetting},
		{"unknown setting", []string{"--set", "no_such_key=1"}, errors.ErrCodeInvalidSetting},
		{"camera", []string{"--camera", "1,2,3"}, errors.ErrCodeInvalidInput},
		{"algorithm", []string{"--algorithm", "spring"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", input, "--no-cache", "-o", out}, tt.args...)
			if err := execute(t, args...); !errors.Is(err, tt.code) {
				t.Errorf("render %v = %v, want %s", tt.args, err, tt.code)
			}
		})
	}
}

func TestLayoutCommand(t *testing.T) {
	input := writeGraph(t)
	out := filepath.Join(t.TempDir(), "ring.json")

	if err := execute(t, "layout", input, "--no-cache", "--algorithm", "circular", "-o", out); err != nil {
		t.Fatalf("layout = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	var positions []pkgio.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		t.Fatalf("decode positions: %v", err)
	}
	var keys []string
	for _, p := range positions {
		keys = append(keys, p.Key)
	}
	if want := []string{"a", "b", "c", "d"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestLayoutCommandMissingInput(t *testing.T) {
	err := execute(t, "layout", filepath.Join(t.TempDir(), "missing.json"), "--no-cache")
	if err == nil {
		t.Fatal("layout(missing) = nil, want error")
	}
}

func TestParseOverrides(t *testing.T) {
	got, err := parseOverrides([]string{"label_size=18", "render_labels=false", "label_color=#ff0000", "enable_edge_hover_events=debounce"})
	if err != nil {
		t.Fatalf("parseOverrides() = %v", err)
	}
	want := map[string]any{
		"label_size":               int64(18),
		"render_labels":            false,
		"label_color":              "#ff0000",
		"enable_edge_hover_events": "debounce",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseOverrides() = %v, want %v", got, want)
	}

	if _, err := parseOverrides([]string{"label_size"}); !errors.Is(err, errors.ErrCodeInvalidSetting) {
		t.Errorf("parseOverrides(no =) = %v, want INVALID_SETTING", err)
	}
}

func TestParseCamera(t *testing.T) {
	tests := []struct {
		in      string
		want    camera.State
		wantErr bool
	}{
		{"0.5,0.5,0,1", camera.State{X: 0.5, Y: 0.5, Angle: 0, Ratio: 1}, false},
		{" 0.25, 0.75, 1.5, 0.5 ", camera.State{X: 0.25, Y: 0.75, Angle: 1.5, Ratio: 0.5}, false},
		{"0,0,0", camera.State{}, true},
		{"a,0,0,1", camera.State{}, true},
		{"0,0,0,0", camera.State{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCamera(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseCamera(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseCamera(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
