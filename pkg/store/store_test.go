package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

const jsonMap = `{
  "title": "Payments",
  "nodes": [{"id": "a", "type": "product", "position": {"x": 0, "y": 0}, "data": {"label": "A"}}],
  "edges": [],
  "views": [
    {"id": "v2", "slug": "later", "title": "Later", "order_index": 2, "nodes": [], "edges": []},
    {"id": "v1", "slug": "first", "title": "First", "order_index": 1, "nodes": [], "edges": []}
  ]
}`

const yamlMap = `
title: Catalog
nodes:
  - id: c
    type: component
    position: {x: 10, y: 20}
    data: {label: C}
edges:
  - id: e
    source: c
    target: c
    markerEnd: arrowclosed
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payments.json", jsonMap)
	writeFile(t, dir, "catalog.yaml", yamlMap)

	src, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer src.Close()
	ctx := context.Background()

	m, err := src.Map(ctx, "payments")
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if m.ID != "payments" || m.Title != "Payments" || m.ViewType != model.ViewMulti {
		t.Errorf("map = %s %q %s", m.ID, m.Title, m.ViewType)
	}
	if m.Views[0].Slug != "first" || m.Views[1].Slug != "later" {
		t.Errorf("views not sorted by order_index: %s, %s", m.Views[0].Slug, m.Views[1].Slug)
	}

	c, err := src.Map(ctx, "catalog")
	if err != nil {
		t.Fatalf("Map yaml: %v", err)
	}
	if c.ViewType != model.ViewSingle || len(c.Nodes) != 1 || c.Nodes[0].Position.Y != 20 {
		t.Errorf("yaml map = %+v", c)
	}
	if c.Edges[0].MarkerEnd == nil || !c.Edges[0].MarkerEnd.Show {
		t.Error("string markerEnd should decode as shown")
	}

	v, err := src.View(ctx, "payments", "later")
	if err != nil || v.ID != "v2" {
		t.Errorf("View = %+v, %v", v, err)
	}
}

func TestFileSourceErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "payments.json", jsonMap)
	writeFile(t, dir, "broken.json", "{not json")
	src, _ := NewFileSource(dir)
	ctx := context.Background()

	tests := []struct {
		name    string
		call    func() error
		wantErr errors.Code
	}{
		{"missing map", func() error { _, err := src.Map(ctx, "nope"); return err }, errors.ErrCodeMapNotFound},
		{"traversal", func() error { _, err := src.Map(ctx, "../etc"); return err }, errors.ErrCodeInvalidMapID},
		{"broken", func() error { _, err := src.Map(ctx, "broken"); return err }, errors.ErrCodeInvalidInput},
		{"missing view", func() error { _, err := src.View(ctx, "payments", "ghost"); return err }, errors.ErrCodeViewNotFound},
		{"bad slug", func() error { _, err := src.View(ctx, "payments", "Bad Slug"); return err }, errors.ErrCodeInvalidSlug},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %s", err, tt.wantErr)
			}
		})
	}

	if _, err := NewFileSource(filepath.Join(dir, "payments.json")); err == nil {
		t.Error("a file is not a map directory")
	}
}

func TestSaveAndLoadMapFile(t *testing.T) {
	dir := t.TempDir()
	m := &model.Map{ID: "roundtrip", Title: "R", Nodes: []model.Node{{ID: "a", Type: model.NodeFeature}}}
	path, err := SaveMapFile(dir, m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := LoadMapFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "roundtrip" || got.Title != "R" || len(got.Nodes) != 1 {
		t.Errorf("loaded %+v", got)
	}
}

func TestDecodeMapEmpty(t *testing.T) {
	if _, err := DecodeMap([]byte("  \n"), ".yaml"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}

func TestOpenEmptyDSN(t *testing.T) {
	if _, err := Open(context.Background(), ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestDecodeMongoMap(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":   "payments",
		"title": "Payments",
		"nodes": bson.A{bson.M{"id": "a", "type": "feature", "position": bson.M{"x": 12.5, "y": 3}, "data": bson.M{"label": "A"}}},
		"edges": bson.A{bson.M{"id": "e", "source": "a", "target": "a", "markerEnd": bson.M{"type": "arrow"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	m, err := decodeMongoMap(raw)
	if err != nil {
		t.Fatalf("decodeMongoMap: %v", err)
	}
	if m.Title != "Payments" || m.Nodes[0].Position.X != 12.5 || m.Nodes[0].Position.Y != 3 {
		t.Errorf("decoded %+v", m)
	}
	if !m.Edges[0].MarkerEnd.Show {
		t.Error("object markerEnd should decode as shown")
	}
	if normalize(m, "payments").ID != "payments" {
		t.Error("id should come from _id lookup")
	}
}
