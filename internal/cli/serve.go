package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/docmap/pkg/metrics"
	"github.com/matzehuels/docmap/pkg/pipeline"
	"github.com/matzehuels/docmap/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the docmap HTTP API.

The canvas posts snapshots to /api/render and /api/export; stored maps are
served from the configured store under /api/maps. Prometheus metrics are
exposed on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.cfg

			reg := metrics.DefaultRegistry()
			reg.Install()

			theme, themeHash, err := pipeline.LoadTheme(cfg.Theme)
			if err != nil {
				return err
			}
			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := []server.Option{
				server.WithLogger(c.Logger),
				server.WithMetrics(reg.Handler()),
				server.WithTheme(theme, themeHash),
				server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
			}
			src, err := cfg.OpenStore(ctx)
			if err != nil {
				c.Logger.Warn("map store unavailable, map routes disabled", "err", err)
			} else {
				defer src.Close()
				opts = append(opts, server.WithStore(src))
			}

			return server.New(runner, opts...).ListenAndServe(ctx, cfg.Server.Addr, server.Timeouts{
				Read:     cfg.Server.ReadTimeout,
				Write:    cfg.Server.WriteTimeout,
				Shutdown: cfg.Server.ShutdownTimeout,
			})
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	return cmd
}
