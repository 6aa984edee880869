package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/server"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}
	if cfg.Server.Addr != server.DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, server.DefaultAddr)
	}
	if cfg.Layout.Algorithm != pipeline.DefaultAlgorithm {
		t.Errorf("Layout.Algorithm = %q, want %q", cfg.Layout.Algorithm, pipeline.DefaultAlgorithm)
	}
}

func TestDecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(`
cache = "none"

[renderer]
label_size = 18

[layout]
algorithm = "circular"
iterations = 50

[layout.forceatlas2]
gravity = 2

[server]
addr = ":9000"
`)
	if err != nil {
		t.Fatalf("DecodeConfig() = %v", err)
	}
	if cfg.Cache != "none" {
		t.Errorf("Cache = %q, want none", cfg.Cache)
	}
	if cfg.Renderer.LabelSize != 18 {
		t.Errorf("Renderer.LabelSize = %v, want 18", cfg.Renderer.LabelSize)
	}
	if cfg.Layout.Algorithm != "circular" || cfg.Layout.Iterations != 50 {
		t.Errorf("Layout = %+v, want circular x50", cfg.Layout)
	}
	if cfg.Layout.ForceAtlas2.Gravity != 2 || cfg.Layout.ForceAtlas2.ScalingRatio != 1 {
		t.Errorf("ForceAtlas2 = %+v, want gravity 2 over defaults", cfg.Layout.ForceAtlas2)
	}
	if cfg.Server.Addr != ":9000" || cfg.Server.MaxSessions != server.DefaultMaxSessions {
		t.Errorf("Server = %+v, want :9000 with default sessions", cfg.Server)
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"syntax", "renderer = [", errors.ErrCodeInvalidFormat},
		{"unknown key", "[renderer]\nlabel_sise = 3", errors.ErrCodeInvalidSetting},
		{"bad algorithm", "[layout]\nalgorithm = \"spring\"", errors.ErrCodeInvalidInput},
		{"negative sessions", "[server]\nmax_sessions = -1", errors.ErrCodeInvalidSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeConfig(tt.doc)
			if !errors.Is(err, tt.code) {
				t.Errorf("DecodeConfig() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "stagegraph.toml")
	if err := os.WriteFile(path, []byte("[layout]\niterations = 7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() = %v", err)
	}
	if cfg.Layout.Iterations != 7 {
		t.Errorf("Layout.Iterations = %d, want 7", cfg.Layout.Iterations)
	}

	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(dir + "/sub/../stagegraph.toml"); err != nil {
		t.Errorf("LoadConfig(parent-relative) = %v, want nil", err)
	}
	if _, err := LoadConfig(""); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Errorf("LoadConfig(\"\") = %v, want INVALID_PATH", err)
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadConfig(missing) = %v, want FILE_NOT_FOUND", err)
	}
}
