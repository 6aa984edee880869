// Package cli implements the stagegraph command-line interface.
//
// # Commands
//
//   - layout: compute node positions and write them as JSON
//   - render: draw a graph to PNG, SVG, PDF, JSON, DOT or positions
//   - serve: run the interactive preview server
//   - watch: follow a live ForceAtlas2 layout in the terminal
//   - view: open a graph in a desktop window
//   - cache: inspect and clear the layout cache
//
// Inputs are verbose JSON graph files or http(s) URLs. Settings, layout
// parameters and loader fields come from an optional TOML file passed with
// --config; see [Config].
//
// All commands support --verbose (-v) for debug-level logging. The logger
// travels through the command context.
package cli

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/buildinfo"
	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/httputil"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "stagegraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cacheURL   string
	config     Config
}

// New creates a CLI with a default logger writing to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level. Debug level also routes renderer,
// layout, cache and server events to the logger.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= LogDebug {
		observability.NewLogHooks(c.Logger).Install()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Stagegraph renders and explores large graphs",
		Long: `Stagegraph lays out and renders node-link graphs: static frames to PNG, SVG
or PDF, a live ForceAtlas2 layout in the terminal, an interactive window and
an HTTP preview server.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			if c.configPath == "" {
				return nil
			}
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			c.Logger.Debug("loaded config", "path", c.configPath)
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config with [renderer], [layout], [io] and [server] tables")
	root.PersistentFlags().StringVar(&c.cacheURL, "cache", "", "cache location: a directory, badger://dir, redis://..., mongodb://... or none")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.viewCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache.NewInstrumented(cc, nil), nil, c.Logger), nil
}

// cacheLocation resolves --cache, then the config, then the default
// directory.
func (c *CLI) cacheLocation() string {
	switch {
	case c.cacheURL != "":
		return c.cacheURL
	case c.config.Cache != "":
		return c.config.Cache
	}
	return cache.DefaultDir()
}

func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := cache.Open(ctx, c.cacheLocation())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "error", err)
		return cache.NewNullCache(), nil
	}
	return cc, nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// baseOptions returns pipeline options seeded from the config.
func (c *CLI) baseOptions(input string) pipeline.Options {
	st := c.config.Renderer.Clone()
	opts := pipeline.Options{
		Input:    input,
		IO:       c.config.IO,
		Layout:   c.config.Layout,
		Settings: &st,
		Logger:   c.Logger,
	}
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatPNG}
	}
	return strings.Split(s, ",")
}

// basePath derives the output path stem. A known format extension on output
// is dropped; an empty output uses the input name, or "graph" for URLs.
func basePath(output, input string) string {
	if output == "" {
		if httputil.IsURL(input) {
			name := input[strings.LastIndex(input, "/")+1:]
			if i := strings.IndexAny(name, "?#"); i >= 0 {
				name = name[:i]
			}
			if name == "" {
				return "graph"
			}
			input = name
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// extension returns the file extension of a format.
func extension(format string) string {
	if format == pipeline.FormatPositions {
		return "positions.json"
	}
	return format
}
