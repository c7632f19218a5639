// Package pipeline runs docmap exports end to end.
//
// This package implements the snapshot → document → artifact flow used by
// the CLI and the HTTP server. By centralizing this logic, both entry points
// cache, name and convert exports the same way.
//
// # Stages
//
//  1. Resolve: style every edge and size every node (pkg/canvas)
//  2. Draw: build the SVG document (pkg/export)
//  3. Convert: derive PNG/PDF from the SVG, or DOT/JSON from the snapshot
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Export(ctx, snapshot, pipeline.Options{
//	    Title:   "Payments",
//	    Formats: []string{"svg", "png"},
//	})
//	if errors.IsNotice(err) {
//	    // empty canvas
//	}
//	svg := res.Artifacts["svg"]
//
// Multi-view maps export one result per view, concurrently:
//
//	views, err := runner.ExportMap(ctx, m, opts)
package pipeline

import (
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docmap/pkg/cache"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/export"
	"github.com/matzehuels/docmap/pkg/style"
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
	// FormatGraphviz is an SVG laid out by Graphviz from the DOT output.
	FormatGraphviz = "graphviz"
)

// DefaultConcurrency bounds how many views of one map export at once.
const DefaultConcurrency = 4

// Options contains all configuration for one export.
// This struct supports JSON serialization for API requests.
type Options struct {
	Title      string   `json:"title,omitempty"`
	Formats    []string `json:"formats,omitempty"`
	Padding    float64  `json:"padding,omitempty"`
	Background string   `json:"background,omitempty"`
	Scale      float64  `json:"scale,omitempty"`  // PNG scale factor
	Pinned     bool     `json:"pinned,omitempty"` // DOT and Graphviz keep canvas positions
	Refresh    bool     `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Registry  *style.Registry `json:"-"`
	ThemeHash string          `json:"-"` // cache identity of Registry, empty for the default theme
	Logger    *log.Logger     `json:"-"`

	validated bool
}

// Result contains the outputs of one export.
type Result struct {
	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte
	// Filenames holds the suggested download name per format.
	Filenames map[string]string
	// Warnings lists malformed nodes and edges that were not drawn.
	Warnings []string
	// Width and Height are the SVG document size.
	Width, Height float64
	Stats         Stats
	// CacheHit reports whether every artifact came from the cache.
	CacheHit bool
}

// Stats contains export statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	RenderTime time.Duration
}

// ValidateAndSetDefaults checks formats and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	formats, err := NormalizeFormats(o.Formats)
	if err != nil {
		return err
	}
	o.Formats = formats
	if o.Padding <= 0 {
		o.Padding = export.DefaultPadding
	}
	if o.Scale <= 0 {
		o.Scale = export.DefaultPNGScale
	}
	if o.Registry == nil {
		o.Registry = style.Default()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
	o.validated = true
	return nil
}

// NormalizeFormats lowercases, validates and deduplicates formats, keeping
// their order. An empty list means SVG only.
func NormalizeFormats(formats []string) ([]string, error) {
	if len(formats) == 0 {
		return []string{FormatSVG}, nil
	}
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		if err := errors.ValidateFormat(f); err != nil {
			return nil, err
		}
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:     format,
		Title:      o.Title,
		Padding:    o.Padding,
		Background: o.Background,
		Theme:      o.ThemeHash,
	}
	switch format {
	case FormatPNG:
		k.Scale = o.Scale
	case FormatDOT, FormatGraphviz:
		k.Pinned = o.Pinned
	}
	return k
}

// exportOptions maps pipeline options onto the SVG exporter.
func (o *Options) exportOptions() export.Options {
	return export.Options{
		Title:      o.Title,
		Padding:    o.Padding,
		Registry:   o.Registry,
		Background: o.Background,
		Logger:     o.Logger,
	}
}
