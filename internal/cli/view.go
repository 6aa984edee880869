package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/internal/viewer"
)

// viewCommand creates the view command for the desktop window.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags renderFlags
		live  bool
	)

	cmd := &cobra.Command{
		Use:   "view <graph.json|url>",
		Short: "Open a graph in an interactive window",
		Long: `Open a graph in a desktop window. Drag to pan, scroll to zoom and hover
nodes to see their labels. With --live the ForceAtlas2 layout runs in the
window instead of before it opens.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts, err := c.renderOptions(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			scene, err := runner.Load(ctx, opts)
			if err != nil {
				return err
			}

			vopts := viewer.Options{Title: args[0], Render: opts, Logger: c.Logger}
			if live {
				l := opts.Layout
				vopts.Layout = &l
			} else if _, err := runner.LayoutWithCacheInfo(ctx, scene, opts); err != nil {
				return err
			}
			return viewer.Run(ctx, scene, vopts)
		},
	}

	flags.register(cmd)
	cmd.Flags().IntVar(&flags.width, "width", 0, "initial window width (default 800)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "initial window height (default 600)")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "renderer setting override key=value (repeatable)")
	cmd.Flags().StringVar(&flags.camera, "camera", "", "initial camera state x,y,angle,ratio")
	cmd.Flags().StringVar(&flags.background, "background", "", "background color as #rrggbb")
	cmd.Flags().BoolVar(&live, "live", false, "run the layout inside the window")

	return cmd
}
