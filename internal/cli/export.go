package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/pipeline"
)

// exportOpts holds the export flags that are not configuration.
type exportOpts struct {
	view    string
	pick    bool
	title   string
	pinned  bool
	refresh bool
	noCache bool
}

func (c *CLI) exportCommand() *cobra.Command {
	var opts exportOpts

	cmd := &cobra.Command{
		Use:   "export <map-file|map-id>",
		Short: "Export a map as SVG, PNG, PDF, DOT or JSON",
		Long: `Export a map to document files.

Multi-view maps produce one document per view, in view order. Use --view to
export a single view. Documents go to --out (default: current directory) or
to an S3 bucket with --sink s3 --bucket NAME.`,
		Example: `  docmap export maps/payments.yaml
  docmap export payments --format svg,png --out dist
  docmap export payments --view checkout --format pdf
  docmap export payments --pick`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.view, "view", "", "export only the view with this slug")
	f.BoolVar(&opts.pick, "pick", false, "choose the view interactively")
	f.StringVarP(&opts.title, "title", "t", "", "document title (default: the map title)")
	f.StringSliceP("format", "f", nil, "output format(s): svg (default), png, pdf, dot, graphviz, json")
	f.StringP("out", "o", "", "output directory for the file sink")
	f.String("sink", "", "export sink: file (default), s3")
	f.String("bucket", "", "S3 bucket for the s3 sink")
	f.Float64("padding", 0, "padding around the map in pixels (default 40)")
	f.String("background", "", `background colour, "none" for transparent`)
	f.Float64("scale", 0, "PNG scale factor (default 2)")
	f.BoolVar(&opts.pinned, "pinned", false, "DOT keeps canvas positions (neato layout)")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached artifacts")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, ref string, opts exportOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	m, err := c.loadMap(ctx, ref)
	if err != nil {
		return err
	}
	if opts.pick && opts.view == "" && m.ViewType == model.ViewMulti {
		if opts.view, err = pickView(m); err != nil {
			return err
		}
		if opts.view == "" {
			printDetail("No selection made")
			return nil
		}
	}
	if m, err = selectView(m, opts.view); err != nil {
		return err
	}

	reg, themeHash, err := pipeline.LoadTheme(c.cfg.Theme)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := pipeline.Options{
		Title:      opts.title,
		Formats:    c.cfg.Export.Formats,
		Padding:    c.cfg.Export.Padding,
		Background: c.cfg.Export.Background,
		Scale:      c.cfg.Export.Scale,
		Pinned:     opts.pinned,
		Refresh:    opts.refresh,
		Registry:   reg,
		ThemeHash:  themeHash,
	}
	if err := popts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	results, err := exportWithSpinner(ctx, runner, m, popts)
	if errors.IsNotice(err) {
		printInfo("%s", errors.UserMessage(err))
		return nil
	}
	if err != nil {
		return err
	}

	sk, err := c.cfg.OpenSink(ctx)
	if err != nil {
		return err
	}
	locations, err := pipeline.Deliver(ctx, sk, results, popts.Formats)
	if err != nil {
		return err
	}

	for _, vr := range results {
		printSuccess("Exported %s", StyleHighlight.Render(vr.Title))
		printStats(vr.Stats.NodeCount, vr.Stats.EdgeCount, vr.CacheHit)
		for _, w := range vr.Warnings {
			printWarning("%s", w)
		}
	}
	for _, loc := range locations {
		printFile(loc)
	}
	prog.done(fmt.Sprintf("Wrote %d file(s)", len(locations)))
	return nil
}

// exportWithSpinner exports m, showing a spinner while the views of a
// multi-view map render.
func exportWithSpinner(ctx context.Context, runner *pipeline.Runner, m *model.Map, opts pipeline.Options) ([]pipeline.ViewResult, error) {
	n := len(m.Views)
	if m.ViewType != model.ViewMulti || n == 0 {
		return runner.ExportMap(ctx, m, opts)
	}
	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Exporting %d views...", n))
	spin.Start()
	results, err := runner.ExportMap(ctx, m, opts)
	if err != nil {
		spin.Stop()
		return nil, err
	}
	spin.StopWithSuccess(fmt.Sprintf("Rendered %d of %d views", len(results), n))
	return results, nil
}
