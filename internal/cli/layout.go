package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// layoutFlags holds the flags shared by every command that lays a graph out.
type layoutFlags struct {
	algorithm  string
	init       string
	iterations int
	noCache    bool
	refresh    bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.algorithm, "algorithm", "", "layout algorithm: forceatlas2, circular, noise or none")
	cmd.Flags().StringVar(&f.init, "init", "", "initial layout before the main algorithm: circular or noise")
	cmd.Flags().IntVar(&f.iterations, "iterations", 0, "ForceAtlas2 iterations (default from config)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the layout and render cache")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")

	_ = cmd.RegisterFlagCompletionFunc("algorithm", fixedCompletions(
		pipeline.AlgorithmForceAtlas2, pipeline.AlgorithmCircular, pipeline.AlgorithmNoise, pipeline.AlgorithmNone))
	_ = cmd.RegisterFlagCompletionFunc("init", fixedCompletions(pipeline.AlgorithmCircular, pipeline.AlgorithmNoise))
}

// fixedCompletions completes a flag value from a closed list.
func fixedCompletions(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// apply overrides the configured layout with the flags that were set.
func (f *layoutFlags) apply(cmd *cobra.Command, opts *pipeline.Options) {
	if cmd.Flags().Changed("algorithm") {
		opts.Layout.Algorithm = f.algorithm
	}
	if cmd.Flags().Changed("init") {
		opts.Layout.Init = f.init
	}
	if cmd.Flags().Changed("iterations") {
		opts.Layout.Iterations = f.iterations
	}
	opts.Refresh = f.refresh
}

// layoutCommand creates the layout command for computing node positions.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		flags  layoutFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "layout <graph.json|url>",
		Short: "Compute node positions and write them as JSON",
		Long: `Compute node positions for a graph and write them as a JSON object keyed by
node key. The output can be fed back into a graph file or used by other tools.`,
		Example: `  # ForceAtlas2 with the configured defaults
  stagegraph layout graph.json

  # Circular layout to a custom file
  stagegraph layout graph.json --algorithm circular -o ring.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.baseOptions(args[0])
			flags.apply(cmd, &opts)
			if output == "" {
				output = basePath("", args[0]) + "." + extension(pipeline.FormatPositions)
			}
			return c.runLayout(cmd.Context(), opts, flags.noCache, output)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.positions.json)")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, noCache bool, output string) error {
	if err := opts.ValidateForLayout(); err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Loading graph...")
	spinner.Start()
	defer spinner.Stop()

	scene, err := runner.Load(ctx, opts)
	if err != nil {
		spinner.StopWithError("Failed to load graph")
		return err
	}

	spinner.SetMessage(fmt.Sprintf("Running %s...", opts.Layout.Algorithm))
	prog := newProgress(c.Logger)
	hit, err := runner.LayoutWithCacheInfo(ctx, scene, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}

	data, err := scene.Positions()
	if err != nil {
		spinner.StopWithError("Failed to encode positions")
		return err
	}
	if err := writeFile(output, data); err != nil {
		spinner.StopWithError("Failed to write positions")
		return err
	}
	spinner.Stop()
	prog.done("layout complete")

	printSuccess("Layout computed")
	printStats(scene.Graph.NodeCount(), scene.Graph.EdgeCount(), stage{name: "layout", cached: hit})
	printFile(output)
	return nil
}

// writeFile writes data to path with 0644 permissions.
func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
