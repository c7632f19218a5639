package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/sink"
)

// memCache is an in-memory cache.Cache that counts writes.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func newMemCache() *memCache { return &memCache{entries: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	c.sets++
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func snapshot() model.Snapshot {
	return model.Snapshot{
		Nodes: []model.Node{
			{ID: "p", Type: model.NodeProduct, Data: model.NodeData{Label: "Payments"}},
			{ID: "c", Type: model.NodeComponent, Position: model.Position{X: 300, Y: 200}, Data: model.NodeData{Label: "Ledger"}},
		},
		Edges: []model.Edge{
			{ID: "pc", Source: "p", Target: "c"},
			{ID: "ghost", Source: "p", Target: "nowhere"},
		},
	}
}

func TestNormalizeFormats(t *testing.T) {
	tests := []struct {
		in      []string
		want    []string
		wantErr bool
	}{
		{nil, []string{FormatSVG}, false},
		{[]string{"svg", "png"}, []string{"svg", "png"}, false},
		{[]string{"SVG", " dot ", "svg"}, []string{"svg", "dot"}, false},
		{[]string{"svg", "gif"}, nil, true},
		{[]string{""}, nil, true},
	}
	for _, tt := range tests {
		got, err := NormalizeFormats(tt.in)
		if tt.wantErr {
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "NormalizeFormats(%v) error = %v", tt.in, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestOptionsDefaults(t *testing.T) {
	var o Options
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.Equal(t, []string{FormatSVG}, o.Formats)
	assert.Equal(t, 40.0, o.Padding)
	assert.Equal(t, 2.0, o.Scale)
	assert.NotNil(t, o.Registry)
	assert.NotNil(t, o.Logger)

	png := o.ArtifactKeyOpts(FormatPNG)
	svg := o.ArtifactKeyOpts(FormatSVG)
	assert.Equal(t, 2.0, png.Scale)
	assert.Zero(t, svg.Scale, "scale only matters for PNG")
}

func TestExportEmptySnapshot(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	_, err := r.Export(context.Background(), model.Snapshot{}, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsNotice(err))
}

func TestExportFormats(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Export(context.Background(), snapshot(), Options{Title: "Payments Map", Formats: []string{"svg", "dot", "json"}})
	require.NoError(t, err)

	assert.Contains(t, string(res.Artifacts["svg"]), "<svg")
	assert.Contains(t, string(res.Artifacts["dot"]), `"p" -> "c"`)
	assert.Contains(t, string(res.Artifacts["json"]), `"nodes"`)
	assert.Equal(t, "payments-map.dot", res.Filenames["dot"])
	assert.Equal(t, 2, res.Stats.NodeCount)
	assert.False(t, res.CacheHit)
	assert.NotEmpty(t, res.Warnings, "the dangling edge should be reported")
	assert.Positive(t, res.Width)
}

func TestExportGraphviz(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Export(context.Background(), snapshot(), Options{Title: "Payments Map", Formats: []string{"svg", "graphviz"}})
	require.NoError(t, err)

	gv := string(res.Artifacts["graphviz"])
	assert.Contains(t, gv, "<svg")
	assert.NotEqual(t, string(res.Artifacts["svg"]), gv)
	assert.Equal(t, "payments-map.graphviz.svg", res.Filenames["graphviz"])
	assert.Equal(t, "payments-map.svg", res.Filenames["svg"])
}

func TestGraphvizKeyHonoursPinned(t *testing.T) {
	o := Options{Pinned: true}
	require.NoError(t, o.ValidateAndSetDefaults())
	assert.True(t, o.ArtifactKeyOpts(FormatGraphviz).Pinned)
	assert.False(t, o.ArtifactKeyOpts(FormatSVG).Pinned)
}

func TestExportCache(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()
	opts := Options{Formats: []string{"svg", "json"}}

	first, err := r.Export(ctx, snapshot(), opts)
	require.NoError(t, err)
	assert.False(t, first.CacheHit)
	assert.Equal(t, 3, c.sets, "two artifacts and the document metadata")

	second, err := r.Export(ctx, snapshot(), opts)
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Artifacts, second.Artifacts)
	assert.Equal(t, first.Warnings, second.Warnings)
	assert.Equal(t, 3, c.sets)

	opts.Refresh = true
	third, err := r.Export(ctx, snapshot(), opts)
	require.NoError(t, err)
	assert.False(t, third.CacheHit)

	// A new title changes the document, so it is a different entry.
	fourth, err := r.Export(ctx, snapshot(), Options{Title: "Other", Formats: []string{"svg"}})
	require.NoError(t, err)
	assert.False(t, fourth.CacheHit)
}

func TestEdgesCached(t *testing.T) {
	c := newMemCache()
	r := NewRunner(c, nil, nil)
	ctx := context.Background()

	res, err := r.Edges(ctx, snapshot(), Options{})
	require.NoError(t, err)
	require.Len(t, res.Edges, 1)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, "ghost", res.Skipped[0].EdgeID)
	assert.Equal(t, 1, c.sets)

	again, err := r.Edges(ctx, snapshot(), Options{})
	require.NoError(t, err)
	assert.Equal(t, res.Edges[0].Path, again.Edges[0].Path)
	assert.Equal(t, 1, c.sets, "second call should be served from the cache")
}

func TestExportMapSingle(t *testing.T) {
	s := snapshot()
	m := &model.Map{ID: "m1", Title: "Payments", Nodes: s.Nodes, Edges: s.Edges}
	results, err := NewRunner(nil, nil, nil).ExportMap(context.Background(), m, Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Payments", results[0].Title)
	assert.Equal(t, "payments.svg", results[0].Filenames["svg"])
}

func TestExportMapViews(t *testing.T) {
	s := snapshot()
	m := &model.Map{
		ID:       "m1",
		Title:    "Payments",
		ViewType: model.ViewMulti,
		Views: []model.ProductView{
			{Slug: "later", Title: "Later", OrderIndex: 2, Nodes: s.Nodes},
			{Slug: "empty", Title: "Empty", OrderIndex: 0},
			{Slug: "first", Title: "First", OrderIndex: 1, Nodes: s.Nodes, Edges: s.Edges},
		},
	}
	results, err := NewRunner(nil, nil, nil).ExportMap(context.Background(), m, Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].Slug)
	assert.Equal(t, "later", results[1].Slug)
	assert.Equal(t, "payments-first.svg", results[0].Filenames["svg"])
	assert.Contains(t, string(results[0].Artifacts["svg"]), "<title>Payments - First</title>")

	m.Views = []model.ProductView{{Slug: "empty"}}
	_, err = NewRunner(nil, nil, nil).ExportMap(context.Background(), m, Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeNothingToExport))
}

func TestDeliver(t *testing.T) {
	dir := t.TempDir()
	fs := sink.NewFileSink(dir)

	results, err := NewRunner(nil, nil, nil).ExportMap(context.Background(),
		&model.Map{Title: "Payments", Nodes: snapshot().Nodes}, Options{Formats: []string{"svg", "json"}})
	require.NoError(t, err)

	locs, err := Deliver(context.Background(), fs, results, []string{"svg", "json"})
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.FileExists(t, filepath.Join(dir, "payments.svg"))
	assert.FileExists(t, filepath.Join(dir, "payments.json"))
}

func TestLoadTheme(t *testing.T) {
	reg, hash, err := LoadTheme("")
	require.NoError(t, err)
	assert.NotNil(t, reg)
	assert.Empty(t, hash)

	dir := t.TempDir()
	good := filepath.Join(dir, "good.toml")
	require.NoError(t, os.WriteFile(good, []byte("background = \"#000000\"\n"), 0o644))
	reg, hash, err = LoadTheme(good)
	require.NoError(t, err)
	assert.Equal(t, "#000000", reg.Background())
	assert.Len(t, hash, 64)

	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[edges.wormhole]\nstroke = \"#fff\"\n"), 0o644))
	_, _, err = LoadTheme(bad)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTheme))

	_, _, err = LoadTheme(filepath.Join(dir, "missing.toml"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTheme))
}
