package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/docmap/pkg/cache"
	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/export"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/sink"
	"github.com/matzehuels/docmap/pkg/style"
)

// formatMeta is the cache-only format holding document metadata, so a full
// cache hit still reports warnings and size.
const formatMeta = "meta"

// Runner encapsulates export execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache       cache.Cache
	Keyer       cache.Keyer
	Logger      *log.Logger
	Concurrency int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		Cache:       cache.Instrument(c),
		Keyer:       keyer,
		Logger:      logger,
		Concurrency: DefaultConcurrency,
	}
}

type docMeta struct {
	Warnings []string `json:"warnings,omitempty"`
	Width    float64  `json:"width"`
	Height   float64  `json:"height"`
}

// Export renders every requested format of s. Artifacts are served from the
// cache only when all of them are present; otherwise every format is
// rendered again and stored.
func (r *Runner) Export(ctx context.Context, s model.Snapshot, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if len(s.Nodes) == 0 {
		return nil, errors.New(errors.ErrCodeNothingToExport, "nothing to export: the map has no nodes")
	}

	start := time.Now()
	res := &Result{
		Filenames: make(map[string]string, len(opts.Formats)),
		Stats:     Stats{NodeCount: len(s.Nodes), EdgeCount: len(s.Edges)},
	}
	for _, f := range opts.Formats {
		res.Filenames[f] = export.SuggestedFilename(opts.Title, export.Extension(f))
	}

	hash := cache.SnapshotHash(s)
	if hash != "" && !opts.Refresh {
		if artifacts, meta, ok := r.lookup(ctx, hash, opts); ok {
			res.Artifacts = artifacts
			res.Warnings, res.Width, res.Height = meta.Warnings, meta.Width, meta.Height
			res.CacheHit = true
			res.Stats.RenderTime = time.Since(start)
			opts.Logger.Debug("export served from cache", "title", opts.Title, "formats", opts.Formats)
			return res, nil
		}
	}

	artifacts, doc, err := Render(ctx, s, opts)
	if err != nil {
		return nil, err
	}
	res.Artifacts = artifacts
	res.Warnings, res.Width, res.Height = doc.Warnings, doc.Width, doc.Height
	res.Stats.RenderTime = time.Since(start)

	if hash != "" {
		for format, data := range artifacts {
			_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)), data, cache.TTLArtifact)
		}
		if meta, err := json.Marshal(docMeta{doc.Warnings, doc.Width, doc.Height}); err == nil {
			_ = r.Cache.Set(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(formatMeta)), meta, cache.TTLArtifact)
		}
	}

	for _, w := range res.Warnings {
		opts.Logger.Warn(w)
	}
	opts.Logger.Info("exported map",
		"title", opts.Title,
		"nodes", res.Stats.NodeCount,
		"edges", res.Stats.EdgeCount,
		"formats", opts.Formats,
		"duration", res.Stats.RenderTime)
	return res, nil
}

func (r *Runner) lookup(ctx context.Context, hash string, opts Options) (map[string][]byte, docMeta, bool) {
	var meta docMeta
	data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(formatMeta)))
	if err != nil || !hit || json.Unmarshal(data, &meta) != nil {
		return nil, meta, false
	}
	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, hit, err := r.Cache.Get(ctx, r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format)))
		if err != nil || !hit {
			return nil, meta, false
		}
		artifacts[format] = data
	}
	return artifacts, meta, true
}

// Edges resolves the drawable edges of s with the options' theme, cached
// per snapshot and theme.
func (r *Runner) Edges(ctx context.Context, s model.Snapshot, opts Options) (canvas.Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return canvas.Result{}, err
	}
	hash := cache.SnapshotHash(s)
	key := r.Keyer.EdgesKey(hash, opts.ThemeHash)
	if hash != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var res canvas.Result
			if json.Unmarshal(data, &res) == nil {
				return res, nil
			}
		}
	}

	res := canvas.Resolve(s.Nodes, s.Edges, canvas.WithRegistry(opts.Registry), canvas.WithLogger(opts.Logger))
	if res.Edges == nil {
		res.Edges = []canvas.RenderableEdge{}
	}
	if hash != "" {
		if data, err := json.Marshal(res); err == nil {
			_ = r.Cache.Set(ctx, key, data, cache.TTLEdges)
		}
	}
	return res, nil
}

// ViewResult is the export of one view of a map.
type ViewResult struct {
	Slug       string
	Title      string
	OrderIndex int
	*Result
}

// ExportMap exports a map. Single-view maps yield one result titled after
// the map. Multi-view maps export every non-empty view concurrently and
// return them in view order; views without nodes are skipped with a
// warning. A map with nothing to draw anywhere is a notice error.
func (r *Runner) ExportMap(ctx context.Context, m *model.Map, opts Options) ([]ViewResult, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if opts.Title == "" {
		opts.Title = m.Title
	}
	if m.ViewType != model.ViewMulti || len(m.Views) == 0 {
		res, err := r.Export(ctx, m.Snapshot(), opts)
		if err != nil {
			return nil, err
		}
		return []ViewResult{{Title: opts.Title, Result: res}}, nil
	}

	views := slices.Clone(m.Views)
	model.SortViews(views)

	results := make([]ViewResult, len(views))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, r.Concurrency))
	for i, v := range views {
		results[i] = ViewResult{Slug: v.Slug, Title: v.Title, OrderIndex: v.OrderIndex}
		if len(v.Nodes) == 0 {
			opts.Logger.Warn("view has no nodes, skipping", "view", v.Slug)
			continue
		}
		vopts := opts
		vopts.Title = ViewTitle(opts.Title, v.Title)
		g.Go(func() error {
			res, err := r.Export(gctx, v.Snapshot(), vopts)
			if err != nil {
				return wrapView(v.Slug, err)
			}
			for f := range res.Filenames {
				res.Filenames[f] = export.SuggestedFilename(opts.Title+" "+v.Slug, export.Extension(f))
			}
			results[i].Result = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, vr := range results {
		if vr.Result != nil {
			out = append(out, vr)
		}
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeNothingToExport, "nothing to export: no view of the map has nodes")
	}
	return out, nil
}

func wrapView(slug string, err error) error {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	return errors.Wrap(code, err, "view %s: %s", slug, errors.UserMessage(err))
}

// ViewTitle joins a map title and a view title.
func ViewTitle(mapTitle, view string) string {
	switch {
	case mapTitle == "":
		return view
	case view == "":
		return mapTitle
	}
	return mapTitle + " - " + view
}

// Deliver saves every artifact of results to s and returns the locations in
// result then format order.
func Deliver(ctx context.Context, s sink.Sink, results []ViewResult, formats []string) ([]string, error) {
	var locations []string
	for _, vr := range results {
		for _, f := range formats {
			data, ok := vr.Artifacts[f]
			if !ok {
				continue
			}
			loc, err := s.Save(ctx, vr.Filenames[f], data)
			if err != nil {
				return locations, err
			}
			locations = append(locations, loc)
		}
	}
	return locations, nil
}

// LoadTheme reads a theme file and returns its registry with the hash that
// identifies it in cache keys. An empty path is the default theme.
func LoadTheme(path string) (*style.Registry, string, error) {
	if path == "" {
		return style.Default(), "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidTheme, err, "theme %s could not be read", path)
	}
	reg, err := style.ParseTheme(data)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrCodeInvalidTheme, err, "theme %s is invalid", path)
	}
	return reg, cache.Hash(data), nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
