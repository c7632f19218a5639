package pipeline

import (
	"context"
	"time"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/export"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/observability"
)

// Render generates every requested format for s without caching. The SVG
// document is drawn once and shared by the raster formats.
func Render(ctx context.Context, s model.Snapshot, opts Options) (map[string][]byte, export.Document, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, export.Document{}, err
	}
	doc, err := export.ExportContext(ctx, s.Nodes, s.Edges, opts.exportOptions())
	if err != nil {
		return nil, export.Document{}, err
	}
	svg := []byte(doc.Content)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		if format == FormatSVG {
			artifacts[format] = svg
			continue
		}
		data, err := convert(ctx, format, svg, s, opts)
		if err != nil {
			return nil, export.Document{}, err
		}
		artifacts[format] = data
	}
	return artifacts, doc, nil
}

// convert produces one non-SVG format and reports it to the export hooks.
func convert(ctx context.Context, format string, svg []byte, s model.Snapshot, opts Options) (data []byte, err error) {
	start := time.Now()
	observability.Export().OnExportStart(ctx, format, len(s.Nodes))
	defer func() {
		observability.Export().OnExportComplete(ctx, format, len(data), time.Since(start), err)
	}()

	switch format {
	case FormatPNG:
		return export.ToPNG(ctx, svg, opts.Scale)
	case FormatPDF:
		return export.ToPDF(ctx, svg)
	case FormatDOT:
		return []byte(export.ToDOT(s.Nodes, s.Edges, export.DOTOptions{Registry: opts.Registry, Pinned: opts.Pinned})), nil
	case FormatGraphviz:
		return export.ToGraphvizSVG(ctx, s.Nodes, s.Edges, export.DOTOptions{Registry: opts.Registry, Pinned: opts.Pinned})
	case FormatJSON:
		return export.ToJSON(opts.Title, s.Nodes, s.Edges, opts.Registry)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}
