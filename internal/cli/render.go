package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stagegraph/pkg/camera"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/pipeline"
)

// renderFlags holds the render-stage flags.
type renderFlags struct {
	layoutFlags
	output     string
	formats    string
	width      int
	height     int
	pixelRatio float64
	set        []string
	camera     string
	allLabels  bool
	background string
}

// renderCommand creates the render command for drawing graph frames.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render <graph.json|url>",
		Short: "Lay out a graph and draw it to PNG, SVG, PDF, JSON, DOT or positions",
		Long: `Load a graph, lay it out and write one file per requested format.

Renderer settings come from the [renderer] table of the config file and can be
overridden per run with --set key=value. Values are parsed as TOML, so
--set label_size=18 is a number and --set label_color=#333333 a string.`,
		Example: `  # PNG with the default camera
  stagegraph render graph.json

  # Several formats at 2x resolution
  stagegraph render graph.json -f png,svg,pdf --pixel-ratio 2

  # Zoom into the upper-left quarter with every label shown
  stagegraph render graph.json --camera 0.25,0.75,0,0.5 --all-labels`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.renderOptions(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, flags.noCache, basePath(flags.output, args[0]))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output path stem (default: input name)")
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "comma-separated formats: png, svg, pdf, json, dot, positions")
	cmd.Flags().IntVar(&flags.width, "width", 0, "frame width in CSS pixels (default 800)")
	cmd.Flags().IntVar(&flags.height, "height", 0, "frame height in CSS pixels (default 600)")
	cmd.Flags().Float64Var(&flags.pixelRatio, "pixel-ratio", 0, "device pixels per CSS pixel (default 1)")
	cmd.Flags().StringArrayVar(&flags.set, "set", nil, "renderer setting override key=value (repeatable)")
	cmd.Flags().StringVar(&flags.camera, "camera", "", "camera state x,y,angle,ratio")
	cmd.Flags().BoolVar(&flags.allLabels, "all-labels", false, "draw every label, ignoring the label grid")
	cmd.Flags().StringVar(&flags.background, "background", "", "background color as #rrggbb")

	return cmd
}

func (c *CLI) renderOptions(cmd *cobra.Command, input string, flags *renderFlags) (pipeline.Options, error) {
	opts := c.baseOptions(input)
	flags.apply(cmd, &opts)

	opts.Formats = parseFormats(flags.formats)
	if flags.width != 0 {
		opts.Width = flags.width
	}
	if flags.height != 0 {
		opts.Height = flags.height
	}
	if flags.pixelRatio != 0 {
		opts.PixelRatio = flags.pixelRatio
	}
	opts.AllLabels = flags.allLabels
	opts.Background = flags.background

	if len(flags.set) > 0 {
		values, err := parseOverrides(flags.set)
		if err != nil {
			return opts, err
		}
		if err := opts.Settings.SetAll(values); err != nil {
			return opts, err
		}
	}
	if flags.camera != "" {
		st, err := parseCamera(flags.camera)
		if err != nil {
			return opts, err
		}
		opts.Camera = &st
	}
	return opts, opts.ValidateAndSetDefaults()
}

func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, noCache bool, base string) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	var paths []string
	for _, format := range opts.Formats {
		path := base + "." + extension(format)
		if err := writeFile(path, result.Artifacts[format]); err != nil {
			return err
		}
		paths = append(paths, path)
	}

	printSuccess("Rendered %s", strings.Join(opts.Formats, ", "))
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount,
		stage{name: "layout", cached: result.CacheInfo.LayoutHit},
		stage{name: "render", cached: result.CacheInfo.RenderHit})
	for _, p := range paths {
		printFile(p)
	}
	return nil
}

// parseOverrides turns key=value pairs into setting values. Each value is
// decoded as a TOML value and kept as a plain string when that fails.
func parseOverrides(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, errors.New(errors.ErrCodeInvalidSetting, "invalid --set %q (want key=value)", pair)
		}
		var doc struct{ V any }
		if _, err := toml.Decode("v = "+raw, &doc); err == nil && doc.V != nil {
			values[key] = doc.V
		} else {
			values[key] = raw
		}
	}
	return values, nil
}

// parseCamera parses "x,y,angle,ratio".
func parseCamera(s string) (camera.State, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return camera.State{}, errors.New(errors.ErrCodeInvalidInput, "invalid --camera %q (want x,y,angle,ratio)", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return camera.State{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid --camera %q", s)
		}
		v[i] = f
	}
	st := camera.State{X: v[0], Y: v[1], Angle: v[2], Ratio: v[3]}
	if err := errors.ValidatePositive("camera ratio", st.Ratio); err != nil {
		return camera.State{}, err
	}
	return st, nil
}
