package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kintree/pkg/graph"
	"github.com/matzehuels/kintree/pkg/pipeline"
)

// layoutFlags holds the layout command's flag values. Empty strings keep the
// configured defaults.
type layoutFlags struct {
	output    string
	format    string
	direction string
	placer    string
	detailed  bool
	noCache   bool
	refresh   bool
}

// layoutCommand creates the layout command for positioning the family tree.
func (c *CLI) layoutCommand() *cobra.Command {
	var f layoutFlags

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Lay out the family tree",
		Long: `Lay out the family tree.

Couples are placed side by side and their children one generation below.
The output is the positioned layout as JSON, an SVG drawing or Graphviz DOT.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output file (default: kintree.<format>)")
	cmd.Flags().StringVarP(&f.format, "format", "f", pipeline.FormatJSON, "output format: json, svg, dot")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "generation direction: TB, LR (default from config)")
	cmd.Flags().StringVar(&f.placer, "placer", "", "placer: layered, graphviz (default from config)")
	cmd.Flags().BoolVar(&f.detailed, "detailed", false, "add generation rows and metadata to labels (svg, dot)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

// runLayout builds the tree from the store, lays it out and writes output.
func (c *CLI) runLayout(ctx context.Context, f layoutFlags) error {
	a, err := c.open(ctx, f.noCache)
	if err != nil {
		return err
	}
	defer a.Close()

	format := strings.ToLower(f.format)
	opts := layoutOptions(a.cfg)
	opts.Formats = []string{format}
	opts.Detailed = f.detailed
	opts.Refresh = f.refresh
	if f.direction != "" {
		opts.Layout.Direction = f.direction
	}
	if f.placer != "" {
		opts.Placer = f.placer
	}

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()

	res, err := a.svc.Layout(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := f.output
	if outputPath == "" {
		outputPath = appName + "." + format
	}
	if err := writeLayoutOutput(outputPath, format, res); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	sayDone("Layout complete")
	sayWrote(outputPath)
	source := lipgloss.NewStyle().Foreground(colorMuted).Render("fresh")
	if res.CacheInfo.LayoutHit {
		source = lipgloss.NewStyle().Foreground(colorOK).Render("cached")
	}
	fmt.Println("  " + styleMuted.Render(fmt.Sprintf("%d members · %d edges · ", res.Stats.Members, res.Stats.Edges)) + source)
	if format == pipeline.FormatJSON {
		sayHint("Render", appName+" layout -f svg")
	}
	return nil
}

func writeLayoutOutput(path, format string, res *pipeline.Result) error {
	if format == pipeline.FormatJSON {
		return graph.WriteLayoutFile(res.Layout, path)
	}
	return os.WriteFile(path, res.Artifacts[format], 0o644)
}
