package cli

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stagegraph/pkg/errors"
	pkgio "github.com/matzehuels/stagegraph/pkg/io"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/server"
	"github.com/matzehuels/stagegraph/pkg/settings"
)

// Config is the file passed with --config. Missing tables keep their
// defaults:
//
//	cache = "badger:///var/cache/stagegraph"
//
//	[renderer]
//	label_size = 12
//	render_edge_labels = true
//
//	[layout]
//	algorithm = "forceatlas2"
//	iterations = 300
//
//	[layout.forceatlas2]
//	gravity = 0.5
//
//	[io]
//	node_size_field = "weight"
//
//	[server]
//	addr = ":9000"
type Config struct {
	Cache    string            `toml:"cache"`
	Renderer settings.Settings `toml:"renderer"`
	Layout   pipeline.Layout   `toml:"layout"`
	IO       pkgio.Options     `toml:"io"`
	Server   ServerConfig      `toml:"server"`
}

// ServerConfig is the [server] table.
type ServerConfig struct {
	Addr        string `toml:"addr"`
	MaxSessions int    `toml:"max_sessions"`
	Width       int    `toml:"width"`
	Height      int    `toml:"height"`
}

// DefaultConfig returns the configuration used without --config.
func DefaultConfig() Config {
	return Config{
		Renderer: settings.Default(),
		Layout:   pipeline.DefaultLayout(),
		IO:       pkgio.DefaultOptions(),
		Server: ServerConfig{
			Addr:        server.DefaultAddr,
			MaxSessions: server.DefaultMaxSessions,
			Width:       pipeline.DefaultWidth,
			Height:      pipeline.DefaultHeight,
		},
	}
}

// LoadConfig decodes path over [DefaultConfig]. Unknown keys and invalid
// values are errors.
func LoadConfig(path string) (Config, error) {
	if err := errors.ValidatePath(path); err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, errors.New(errors.ErrCodeFileNotFound, "config %s not found", path)
	}
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	return DecodeConfig(string(data))
}

// DecodeConfig decodes a TOML document over [DefaultConfig].
func DecodeConfig(doc string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(doc, &cfg)
	if err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, errors.New(errors.ErrCodeInvalidSetting, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every table.
func (c Config) Validate() error {
	if err := c.Renderer.Validate(); err != nil {
		return err
	}
	if err := pipeline.ValidateAlgorithm(c.Layout.Algorithm); err != nil {
		return err
	}
	if c.Layout.Iterations < 0 {
		return errors.New(errors.ErrCodeInvalidSetting, "layout.iterations must be non-negative, got %d", c.Layout.Iterations)
	}
	if err := c.Layout.ForceAtlas2.Validate(); err != nil {
		return err
	}
	if c.Server.MaxSessions < 0 {
		return errors.New(errors.ErrCodeInvalidSetting, "server.max_sessions must be non-negative, got %d", c.Server.MaxSessions)
	}
	if c.Server.Width < 0 || c.Server.Height < 0 {
		return errors.New(errors.ErrCodeInvalidSetting, "server frame size must be non-negative, got %dx%d", c.Server.Width, c.Server.Height)
	}
	return nil
}
