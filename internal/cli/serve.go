package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/cache"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
	"github.com/matzehuels/stagegraph/pkg/server"
)

// serveCommand creates the serve command for the HTTP preview server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		maxSessions int
		noCache     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interactive preview server",
		Long: `Run an HTTP server that hosts renderer sessions. Clients upload a graph,
then drive the camera, pointer and live layout and fetch frames as PNG or SVG.`,
		Example: `  stagegraph serve --addr :9000
  curl -X POST --data-binary @graph.json 'localhost:9000/sessions?width=800&height=600'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.serverConfig()
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("max-sessions") {
				cfg.MaxSessions = maxSessions
			}

			cc, err := c.openCache(cmd.Context(), noCache)
			if err != nil {
				return err
			}
			defer cc.Close()
			cfg.Cache = cache.NewInstrumented(cc, nil)

			printInfo("Listening on %s", StyleLink.Render(cfg.Addr))
			printNextStep("Create a session", "curl -X POST --data-binary @graph.json "+cfg.Addr+"/sessions")

			srv := server.New(cfg)
			defer srv.Close()
			return srv.ListenAndServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().IntVar(&maxSessions, "max-sessions", server.DefaultMaxSessions, "maximum number of live sessions")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")

	return cmd
}

func (c *CLI) serverConfig() server.Config {
	st := c.config.Renderer.Clone()
	return server.Config{
		Addr: c.config.Server.Addr,
		Render: pipeline.Options{
			Settings: &st,
			Width:    c.config.Server.Width,
			Height:   c.config.Server.Height,
		},
		IO:          c.config.IO,
		Layout:      c.config.Layout,
		MaxSessions: c.config.Server.MaxSessions,
		Logger:      c.Logger,
	}
}
