package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/docmap/pkg/pipeline"
)

func (c *CLI) edgesCommand() *cobra.Command {
	var view string

	cmd := &cobra.Command{
		Use:   "edges <map-file|map-id>",
		Short: "Print the styled edges of a map as JSON",
		Long:  `Print every drawable edge of a map or view with its path, anchors, style and markers, exactly as the canvas draws it. Edges that cannot be drawn are listed under "skipped".`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			m, err := c.loadMap(ctx, args[0])
			if err != nil {
				return err
			}
			if m, err = selectView(m, view); err != nil {
				return err
			}
			reg, themeHash, err := pipeline.LoadTheme(c.cfg.Theme)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			res, err := runner.Edges(ctx, m.Snapshot(), pipeline.Options{Registry: reg, ThemeHash: themeHash})
			if err != nil {
				return err
			}
			for _, s := range res.Skipped {
				loggerFromContext(ctx).Warn("skipping edge", "edge", s.EdgeID, "reason", s.Reason)
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.out, string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "use the view with this slug")
	return cmd
}
