package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
)

const paymentsMap = `{
  "title": "Payments",
  "nodes": [
    {"id": "p", "type": "product", "position": {"x": 0, "y": 0}, "data": {"label": "Payments"}},
    {"id": "f", "type": "feature", "position": {"x": 0, "y": 200}, "data": {"label": "Refunds"}}
  ],
  "edges": [
    {"id": "pf", "source": "p", "target": "f"},
    {"id": "ghost", "source": "p", "target": "nowhere"}
  ]
}`

const viewsMap = `{
  "title": "Catalog",
  "view_type": "multi",
  "nodes": [],
  "edges": [],
  "views": [
    {"id": "v2", "slug": "second", "title": "Second", "order_index": 2,
     "nodes": [{"id": "b", "type": "component", "position": {"x": 0, "y": 0}, "data": {"label": "B"}}], "edges": []},
    {"id": "v1", "slug": "first", "title": "First", "order_index": 1,
     "nodes": [{"id": "a", "type": "component", "position": {"x": 0, "y": 0}, "data": {"label": "A"}}], "edges": []}
  ]
}`

// runCLI executes the root command with args and returns the data output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	c := New(&logs, LogInfo)
	c.SetOutput(&out)
	root := c.RootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func writeMap(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExportCommand(t *testing.T) {
	path := writeMap(t, "payments.json", paymentsMap)
	dir := t.TempDir()

	if _, err := runCLI(t, "export", path, "--out", dir, "--cache", "none", "--format", "svg,json"); err != nil {
		t.Fatalf("export: %v", err)
	}
	svg, err := os.ReadFile(filepath.Join(dir, "payments.svg"))
	if err != nil {
		t.Fatalf("svg not written: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("payments.svg is not an SVG document")
	}
	if _, err := os.Stat(filepath.Join(dir, "payments.json")); err != nil {
		t.Errorf("json not written: %v", err)
	}
}

func TestExportCommandViews(t *testing.T) {
	path := writeMap(t, "catalog.json", viewsMap)

	dir := t.TempDir()
	if _, err := runCLI(t, "export", path, "--out", dir, "--cache", "none"); err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, name := range []string{"catalog-first.svg", "catalog-second.svg"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	one := t.TempDir()
	if _, err := runCLI(t, "export", path, "--out", one, "--cache", "none", "--view", "second"); err != nil {
		t.Fatalf("export --view: %v", err)
	}
	entries, _ := os.ReadDir(one)
	if len(entries) != 1 || entries[0].Name() != "catalog-second.svg" {
		t.Errorf("--view wrote %v, want catalog-second.svg only", entries)
	}
}

func TestExportCommandErrors(t *testing.T) {
	path := writeMap(t, "catalog.json", viewsMap)
	empty := writeMap(t, "empty.json", `{"title": "Empty", "nodes": [], "edges": []}`)

	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"unknown view", []string{"export", path, "--view", "missing"}, errors.ErrCodeViewNotFound},
		{"bad slug", []string{"export", path, "--view", "Not A Slug"}, errors.ErrCodeInvalidSlug},
		{"bad format", []string{"export", path, "--format", "gif"}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(tt.args, "--out", t.TempDir(), "--cache", "none")
			_, err := runCLI(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}

	t.Run("empty map is a notice", func(t *testing.T) {
		dir := t.TempDir()
		if _, err := runCLI(t, "export", empty, "--out", dir, "--cache", "none"); err != nil {
			t.Fatalf("empty export should not fail: %v", err)
		}
		if entries, _ := os.ReadDir(dir); len(entries) != 0 {
			t.Errorf("empty export wrote %d files", len(entries))
		}
	})
}

func TestEdgesCommand(t *testing.T) {
	path := writeMap(t, "payments.json", paymentsMap)
	out, err := runCLI(t, "edges", path, "--cache", "none")
	if err != nil {
		t.Fatalf("edges: %v", err)
	}
	var res struct {
		Edges []struct {
			ID   string `json:"id"`
			Path string `json:"path"`
		} `json:"edges"`
		Skipped []struct {
			EdgeID string `json:"edgeId"`
		} `json:"skipped"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("edges output is not JSON: %v\n%s", err, out)
	}
	if len(res.Edges) != 1 || res.Edges[0].ID != "pf" || res.Edges[0].Path == "" {
		t.Errorf("edges = %+v, want one drawn edge pf", res.Edges)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].EdgeID != "ghost" {
		t.Errorf("skipped = %+v, want ghost", res.Skipped)
	}
}

func TestHandlesCommand(t *testing.T) {
	out, err := runCLI(t, "handles")
	if err != nil {
		t.Fatalf("handles: %v", err)
	}
	for _, nt := range model.NodeTypes {
		if !strings.Contains(out, string(nt)) {
			t.Errorf("handles output missing %s", nt)
		}
	}

	out, err = runCLI(t, "handles", "widget")
	if err != nil {
		t.Fatalf("handles widget: %v", err)
	}
	if !strings.Contains(out, "unknown node type") {
		t.Errorf("handles widget = %q, want an unknown type notice", out)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "version: ") {
		t.Errorf("version = %q", out)
	}
}

func TestConfigFlagErrors(t *testing.T) {
	_, err := runCLI(t, "version", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil {
		t.Error("missing --config file should fail")
	}
	_, err = runCLI(t, "version", "--log-level", "loud")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
}
