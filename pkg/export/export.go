// Package export renders a map snapshot into a standalone document.
//
// # SVG
//
// [ExportDocument] is the primary path. It draws the same geometry the
// interactive canvas draws: node boxes come from geom.NodeBounds and edge
// paths from canvas.Resolve, so an exported map is a faithful picture of the
// live one.
//
//	doc, err := export.ExportDocument(nodes, edges, export.Options{Title: "Payments"})
//	if errors.IsNotice(err) {
//	    // nothing on the canvas, tell the user
//	}
//	os.WriteFile(doc.SuggestedFilename, []byte(doc.Content), 0o644)
//
// # Other formats
//
// [ToPNG] and [ToPDF] convert an exported SVG with rsvg-convert. [ToDOT]
// and [RenderDOTSVG] produce a Graphviz description of the map, pinned to
// the canvas positions or laid out by Graphviz. [ToJSON] emits the resolved
// node and edge descriptors.
package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/observability"
	"github.com/matzehuels/docmap/pkg/style"
)

// DefaultPadding is the margin around the node bounding box.
const DefaultPadding = 40.0

// DefaultFilename is the base name used when the title yields no slug.
const DefaultFilename = "docmap"

// Options configures an export.
type Options struct {
	Title      string          // document title, also the filename base
	Padding    float64         // margin around the content, DefaultPadding when zero
	Registry   *style.Registry // colours and edge styles, style.Default() when nil
	Background string          // overrides the registry background; "none" omits it
	Logger     *log.Logger
}

func (o *Options) setDefaults() {
	if o.Padding <= 0 {
		o.Padding = DefaultPadding
	}
	if o.Registry == nil {
		o.Registry = style.Default()
	}
	if o.Background == "" {
		o.Background = o.Registry.Background()
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Document is a finished export.
type Document struct {
	Content           string   `json:"content"`
	SuggestedFilename string   `json:"suggestedFilename"`
	Warnings          []string `json:"warnings,omitempty"`
	Width             float64  `json:"width"`
	Height            float64  `json:"height"`
}

// ExportDocument renders nodes and edges as an SVG document.
//
// An empty node set returns an ErrCodeNothingToExport error, which callers
// should present as a notice. Malformed nodes are drawn as generic cards and
// reported in Document.Warnings, as are edges that could not be drawn.
func ExportDocument(nodes []model.Node, edges []model.Edge, opts Options) (Document, error) {
	return ExportContext(context.Background(), nodes, edges, opts)
}

// ExportContext is ExportDocument that reports to observability.ExportHooks
// with ctx.
func ExportContext(ctx context.Context, nodes []model.Node, edges []model.Edge, opts Options) (doc Document, err error) {
	start := time.Now()
	observability.Export().OnExportStart(ctx, "svg", len(nodes))
	defer func() {
		observability.Export().OnExportComplete(ctx, "svg", len(doc.Content), time.Since(start), err)
	}()

	if len(nodes) == 0 {
		return Document{}, errors.New(errors.ErrCodeNothingToExport, "nothing to export: the map has no nodes")
	}
	opts.setDefaults()

	defer func() {
		if r := recover(); r != nil {
			opts.Logger.Error("export panicked", "panic", r)
			doc = Document{}
			err = errors.Wrap(errors.ErrCodeInternal, fmt.Errorf("panic: %v", r), "the document could not be generated")
		}
	}()

	d := newDocument(nodes, edges, opts)
	var buf bytes.Buffer
	d.write(&buf)

	return Document{
		Content:           buf.String(),
		SuggestedFilename: SuggestedFilename(opts.Title, "svg"),
		Warnings:          d.warnings,
		Width:             d.width,
		Height:            d.height,
	}, nil
}

// SuggestedFilename turns a title into a download filename with the given
// extension.
func SuggestedFilename(title, ext string) string {
	base := Slugify(title)
	if base == "" {
		base = DefaultFilename
	}
	return base + "." + ext
}

// Extension is the file extension for an output format. Graphviz layouts
// are SVG but keep their own suffix so they never overwrite the canvas SVG.
func Extension(format string) string {
	if format == "graphviz" {
		return "graphviz.svg"
	}
	return format
}

// Slugify lowercases s and joins its alphanumeric runs with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
		default:
			dash = true
		}
	}
	return b.String()
}

// document is one export in progress.
type document struct {
	opts     Options
	nodes    []canvas.RenderableNode
	source   []model.Node
	edges    []canvas.RenderableEdge
	bbox     geom.Rect
	width    float64
	height   float64
	warnings []string
}

func newDocument(nodes []model.Node, edges []model.Edge, opts Options) *document {
	copts := []canvas.Option{canvas.WithRegistry(opts.Registry), canvas.WithLogger(opts.Logger)}
	res := canvas.Resolve(nodes, edges, copts...)

	d := &document{
		opts:   opts,
		source: nodes,
		nodes:  canvas.RenderableNodes(nodes, copts...),
		edges:  res.Edges,
	}
	d.bbox = d.nodes[0].Bounds
	for _, n := range d.nodes[1:] {
		d.bbox = d.bbox.Union(n.Bounds)
	}
	d.width = d.bbox.Width + 2*opts.Padding
	d.height = d.bbox.Height + 2*opts.Padding

	for _, is := range model.Validate(model.Snapshot{Nodes: nodes}) {
		d.warnings = append(d.warnings, is.String())
	}
	for _, s := range res.Skipped {
		d.warnings = append(d.warnings, fmt.Sprintf("edge %s not drawn: %s", s.EdgeID, s.Reason))
	}
	for _, w := range d.warnings {
		opts.Logger.Warn("export", "warning", w)
	}
	return d
}
