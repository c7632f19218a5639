// Package pkg provides the core libraries for docmap, the renderer behind
// product documentation maps.
//
// # Overview
//
// A documentation map is a canvas of product, feature, component, text block
// and group nodes joined by typed edges. The interactive editor and the
// document exporter must draw the same picture, so every visual rule lives
// here once and both consumers read it. The pkg directory is organized into
// three areas:
//
//  1. Geometry and styling: [model], [geom], [handles], [floating],
//     [spacing], [style], [canvas]
//  2. Documents: [export], [pipeline]
//  3. Infrastructure: [store], [cache], [sink], [server], [config],
//     [retry], [metrics], [observability], [errors], [buildinfo]
//
// # Architecture
//
// The typical data flow through docmap:
//
//	Map file / PostgreSQL / MongoDB
//	         ↓
//	    [store] package (load a map or one of its views)
//	         ↓
//	    [canvas] package (node bounds, anchors, paths, styles)
//	         ↓
//	    [export] package (SVG, then PNG/PDF/DOT/JSON)
//	         ↓
//	    [sink] package (directory or S3 bucket)
//
// [pipeline] wraps the middle two steps with the artifact cache; the CLI and
// the HTTP server both go through it.
//
// # Quick Start
//
// Resolve the edges the canvas would draw, then export a document:
//
//	m, _ := store.LoadMapFile("payments.yaml")
//
//	// 1. Edges exactly as the editor draws them
//	res := canvas.Resolve(m.Nodes, m.Edges)
//
//	// 2. A standalone SVG with the same geometry
//	doc, _ := export.ExportDocument(m.Nodes, m.Edges, export.Options{Title: m.Title})
//	os.WriteFile(doc.SuggestedFilename, []byte(doc.Content), 0o644)
//
// Or let the pipeline handle formats, caching and multi-view maps:
//
//	runner := pipeline.NewRunner(nil, nil, logger)
//	results, _ := runner.ExportMap(ctx, m, pipeline.Options{Formats: []string{"svg", "png"}})
//	pipeline.Deliver(ctx, sink.NewFileSink("dist"), results, []string{"svg", "png"})
//
// # Main Packages
//
// ## Geometry
//
// [geom] - Rectangles, node bounds estimated from text, path builders for
// bezier, smoothstep, step and straight edges, and number formatting shared
// by every output.
//
// [handles] - The fixed anchor table per node type. Text blocks expose none;
// their edges always float.
//
// [floating] - Border intersection and side selection for edges that are not
// pinned to a handle, self-loops included.
//
// [spacing] - Perpendicular offsets for edges that share both endpoints.
//
// ## Styling
//
// [style] - The edge type and node palette table, overridable by a TOML
// theme.
//
// [canvas] - One styling pass over a snapshot: renderable nodes and edges,
// plus the edges that could not be drawn and why.
//
// ## Documents
//
// [export] - Standalone SVG documents, Graphviz DOT, JSON scenes, and PNG or
// PDF through rsvg-convert.
//
// [pipeline] - Format fan-out, content-addressed caching and per-view
// exports of multi-view maps.
//
// ## Infrastructure
//
// [store] - Map sources: a directory of JSON/YAML files, PostgreSQL or
// MongoDB.
//
// [cache] - Artifact caches on disk or in Redis, with optional compression.
//
// [sink] - Document delivery to a directory or an S3 bucket.
//
// [server] - The HTTP API for the editor: edges, exports and node type
// metadata.
//
// [config] - Layered configuration from defaults, docmap.toml, DOCMAP_
// environment variables and flags.
//
// [retry] - Exponential backoff for transient Redis and database failures.
//
// [metrics] and [observability] - Prometheus collectors fed by hooks the
// other packages call.
//
// [errors] - Coded errors that carry a user-facing message and map to HTTP
// statuses.
//
// [model]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/model
// [geom]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/geom
// [handles]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/handles
// [floating]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/floating
// [spacing]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/spacing
// [style]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/style
// [canvas]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/canvas
// [export]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/export
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/pipeline
// [store]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/cache
// [sink]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/sink
// [server]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/server
// [config]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/config
// [retry]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/retry
// [metrics]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/metrics
// [observability]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/docmap/pkg/buildinfo
package pkg
