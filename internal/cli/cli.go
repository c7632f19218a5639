// Package cli implements the docmap command-line interface.
//
// # Commands
//
//   - export: write SVG, PNG, PDF, DOT or JSON documents of a map
//   - edges: print the styled edges of a map as JSON
//   - handles: list node types with their sizing rules and anchors
//   - serve: run the HTTP API
//   - cache: clear or locate the artifact cache
//   - version: print build information
//
// Maps are named by a file path (.json, .yaml, .yml) or by an id looked up
// in the configured store. Configuration comes from pkg/config; the
// persistent flags below override it.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. The logger
// also travels in the command context.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/docmap/pkg/buildinfo"
	"github.com/matzehuels/docmap/pkg/config"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/pipeline"
	"github.com/matzehuels/docmap/pkg/store"
)

const appName = "docmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	logOut     io.Writer
	out        io.Writer
	configPath string
	cfg        *config.Config
}

// New creates a CLI logging to w at level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		logOut: w,
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetOutput redirects data output (JSON, paths, version) to w.
func (c *CLI) SetOutput(w io.Writer) {
	c.out = w
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "docmap draws and exports product documentation maps",
		Long:         `docmap resolves the edges of product documentation maps the way the canvas draws them and exports maps as SVG, PNG, PDF, DOT or JSON documents.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath, cmd.Flags())
			if err != nil {
				return err
			}
			c.cfg = cfg
			if cmd.Flags().Changed("log-level") || cmd.Flags().Changed("log-format") || cfg.Log.Level != "info" || cfg.Log.Format != "text" {
				c.Logger = cfg.Log.Logger(c.logOut)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ./"+config.DefaultFile+" when present)")
	pf.String("store", "", "map store: directory, postgres:// or mongodb:// URL")
	pf.String("theme", "", "TOML theme file")
	pf.String("cache", "", "artifact cache: file, redis, none")
	pf.String("cache-dir", "", "file cache directory")
	pf.String("redis-addr", "", "redis cache address (host:port)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json, logfmt")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.edgesCommand())
	root.AddCommand(c.handlesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner over the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	if noCache {
		return pipeline.NewRunner(nil, nil, c.Logger), nil
	}
	ch, err := c.cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without it", "err", err)
		return pipeline.NewRunner(nil, nil, c.Logger), nil
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// loadMap reads a map from a file path or from the configured store.
func (c *CLI) loadMap(ctx context.Context, ref string) (*model.Map, error) {
	if isMapFile(ref) {
		loggerFromContext(ctx).Debug("reading map file", "path", ref)
		return store.LoadMapFile(ref)
	}
	src, err := c.cfg.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Map(ctx, ref)
}

func isMapFile(ref string) bool {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".json", ".yaml", ".yml":
		_, err := os.Stat(ref)
		return err == nil
	}
	return false
}

// selectView narrows m to one of its views. An empty slug keeps m.
func selectView(m *model.Map, slug string) (*model.Map, error) {
	if slug == "" {
		return m, nil
	}
	if err := errors.ValidateSlug(slug); err != nil {
		return nil, err
	}
	v, ok := m.View(slug)
	if !ok {
		return nil, errors.New(errors.ErrCodeViewNotFound, "map %s has no view %q", m.ID, slug)
	}
	return &model.Map{
		ID:    m.ID,
		Title: pipeline.ViewTitle(m.Title, v.Title),
		Nodes: v.Nodes,
		Edges: v.Edges,
	}, nil
}
