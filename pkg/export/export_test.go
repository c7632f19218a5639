package export

import (
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
)

func sampleMap() ([]model.Node, []model.Edge) {
	nodes := []model.Node{
		{ID: "p", Type: model.NodeProduct, Position: model.Position{X: 0, Y: 0},
			Data: model.NodeData{Label: "Payments", Description: "Cards & wallets", Icon: "💳", Status: model.StatusStable}},
		{ID: "f", Type: model.NodeFeature, Position: model.Position{X: 0, Y: 200},
			Data: model.NodeData{Label: "Refunds"}},
		{ID: "c", Type: model.NodeComponent, Position: model.Position{X: 300, Y: 200},
			Data: model.NodeData{Label: "Ledger <core>"}},
		{ID: "t", Type: model.NodeTextBlock, Position: model.Position{X: 300, Y: 0},
			Data: model.NodeData{Content: "# Notes\n\nRefunds settle **nightly**."}},
		{ID: "g", Type: model.NodeGroup, Position: model.Position{X: 600, Y: 0},
			Data: model.NodeData{Label: "Backoffice", Collapsed: true, ChildCount: 3}},
	}
	edges := []model.Edge{
		{ID: "pf", Source: "p", Target: "f"},
		{ID: "fc", Source: "f", Target: "c", Data: model.EdgeData{EdgeType: "dependency", Label: "writes"}},
		{ID: "cg", Source: "c", Target: "g", Data: model.EdgeData{EdgeType: "integration", Floating: true}},
	}
	return nodes, edges
}

func TestExportEmptyGuard(t *testing.T) {
	doc, err := ExportDocument(nil, []model.Edge{{ID: "x", Source: "a", Target: "b"}}, Options{})
	if !errors.Is(err, errors.ErrCodeNothingToExport) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeNothingToExport)
	}
	if !errors.IsNotice(err) {
		t.Error("empty export should be a notice")
	}
	if doc.Content != "" {
		t.Error("empty export should produce no document")
	}
}

func TestExportIsWellFormedXML(t *testing.T) {
	nodes, edges := sampleMap()
	doc, err := ExportDocument(nodes, edges, Options{Title: "Payments & Co"})
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	dec := xml.NewDecoder(strings.NewReader(doc.Content))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("document is not well-formed XML: %v", err)
		}
	}
	if !strings.Contains(doc.Content, "<title>Payments &amp; Co</title>") {
		t.Error("title should be escaped")
	}
	if !strings.Contains(doc.Content, "Ledger &lt;core&gt;") {
		t.Error("labels should be escaped")
	}
	if doc.SuggestedFilename != "payments-co.svg" {
		t.Errorf("SuggestedFilename = %q, want payments-co.svg", doc.SuggestedFilename)
	}
}

func TestExportPathsMatchCanvas(t *testing.T) {
	nodes, edges := sampleMap()
	doc, err := ExportDocument(nodes, edges, Options{})
	if err != nil {
		t.Fatal(err)
	}
	live := canvas.StyledEdgesFor(nodes, edges)
	if len(live) != len(edges) {
		t.Fatalf("canvas drew %d edges, want %d", len(live), len(edges))
	}
	for _, e := range live {
		if !strings.Contains(doc.Content, `d="`+e.Path+`"`) {
			t.Errorf("edge %s path %q missing from export", e.ID, e.Path)
		}
		if e.MarkerEnd != "" && !strings.Contains(doc.Content, `<marker id="`+e.MarkerEnd+`"`) {
			t.Errorf("marker %s not defined", e.MarkerEnd)
		}
	}
	if !strings.Contains(doc.Content, `stroke-dasharray="6 4"`) {
		t.Error("dependency edge should be dashed")
	}
	if !strings.Contains(doc.Content, ">writes</text>") {
		t.Error("edge label should be drawn")
	}
}

func TestExportViewport(t *testing.T) {
	n := model.Node{ID: "a", Type: model.NodeComponent, Position: model.Position{X: 100, Y: 50}, Data: model.NodeData{Label: "A"}}
	b := geom.NodeBounds(n)

	tests := []struct {
		padding  float64
		wantPad  float64
		wantXfrm string
	}{
		{0, DefaultPadding, `translate(-60,-10)`},
		{10, 10, `translate(-90,-40)`},
	}
	for _, tt := range tests {
		doc, err := ExportDocument([]model.Node{n}, nil, Options{Padding: tt.padding})
		if err != nil {
			t.Fatal(err)
		}
		if doc.Width != b.Width+2*tt.wantPad || doc.Height != b.Height+2*tt.wantPad {
			t.Errorf("padding %v: size = %vx%v", tt.padding, doc.Width, doc.Height)
		}
		if !strings.Contains(doc.Content, tt.wantXfrm) {
			t.Errorf("padding %v: want %s in document", tt.padding, tt.wantXfrm)
		}
	}
}

func TestExportMalformedNodeFallsBack(t *testing.T) {
	nodes := []model.Node{
		{ID: "ok", Type: model.NodeComponent, Data: model.NodeData{Label: "Fine"}},
		{ID: "w", Type: "widget", Position: model.Position{X: 300}},
	}
	doc, err := ExportDocument(nodes, nil, Options{})
	if err != nil {
		t.Fatalf("ExportDocument: %v", err)
	}
	if !strings.Contains(doc.Content, `class="docmap-node--generic"`) {
		t.Error("unknown node should be drawn as a generic card")
	}
	if !strings.Contains(doc.Content, ">"+model.UntitledLabel+"</text>") {
		t.Error("unlabelled node should read Untitled")
	}
	if len(doc.Warnings) == 0 {
		t.Error("malformed node should produce a warning")
	}
}

func TestExportSkippedEdgeWarning(t *testing.T) {
	nodes, edges := sampleMap()
	edges = append(edges, model.Edge{ID: "bad", Source: "p", Target: "ghost"})
	doc, err := ExportDocument(nodes, edges, Options{})
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range doc.Warnings {
		if strings.Contains(w, "edge bad not drawn") {
			found = true
		}
	}
	if !found {
		t.Errorf("Warnings = %v, want one for edge bad", doc.Warnings)
	}
	if strings.Contains(doc.Content, `id="edge-bad"`) {
		t.Error("skipped edge should not be drawn")
	}
}

func TestExportBackground(t *testing.T) {
	nodes, _ := sampleMap()
	doc, _ := ExportDocument(nodes, nil, Options{Background: "none"})
	if strings.Contains(doc.Content, `width="100%"`) {
		t.Error("background none should omit the background rect")
	}
	doc, _ = ExportDocument(nodes, nil, Options{Background: "#101010"})
	if !strings.Contains(doc.Content, `fill="#101010"`) {
		t.Error("background override not applied")
	}
}

func TestExportDeterministic(t *testing.T) {
	nodes, edges := sampleMap()
	a, _ := ExportDocument(nodes, edges, Options{Title: "x"})
	b, _ := ExportDocument(nodes, edges, Options{Title: "x"})
	if a.Content != b.Content {
		t.Error("two exports of the same snapshot differ")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Payments Overview", "payments-overview"},
		{"  --API v2!! ", "api-v2"},
		{"Ünïcode", "n-code"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := SuggestedFilename("", "pdf"); got != "docmap.pdf" {
		t.Errorf("SuggestedFilename = %q, want docmap.pdf", got)
	}
}

func TestToDOT(t *testing.T) {
	nodes, edges := sampleMap()
	dot := ToDOT(nodes, edges, DOTOptions{})
	for _, want := range []string{`"p" -> "f"`, `"f" -> "c"`, "style=dashed", "rankdir=TB"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	if strings.Contains(dot, "pos=") {
		t.Error("unpinned DOT should not carry positions")
	}

	pinned := ToDOT(nodes, edges, DOTOptions{Pinned: true})
	if !strings.Contains(pinned, `pos="`) || strings.Contains(pinned, "rankdir") {
		t.Error("pinned DOT should carry positions and no rank direction")
	}
}

func TestDOTQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ledger", `"Ledger"`},
		{`say "hi"`, `"say \"hi\""`},
		{`C:\maps`, `"C:\\maps"`},
		{"two\nlines", `"two\nlines"`},
		{"nul\x00bell\x07", `"nulbell"`},
		{"Ünïcode \u2028 ok", "\"Ünïcode \u2028 ok\""},
	}
	for _, tt := range tests {
		if got := dotQuote(tt.in); got != tt.want {
			t.Errorf("dotQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestToDOTEscapesLabels(t *testing.T) {
	nodes := []model.Node{{ID: "n\"1", Type: model.NodeComponent, Data: model.NodeData{Label: "a\x00b"}}}
	dot := ToDOT(nodes, nil, DOTOptions{})
	if strings.Contains(dot, `\x00`) || !strings.Contains(dot, `label="ab"`) {
		t.Errorf("control characters should be dropped:\n%s", dot)
	}
	if !strings.Contains(dot, `"n\"1" [`) {
		t.Errorf("quotes in ids should be escaped:\n%s", dot)
	}
}

func TestRenderDOTSVG(t *testing.T) {
	nodes, edges := sampleMap()
	for _, pinned := range []bool{false, true} {
		svg, err := RenderDOTSVG(t.Context(), ToDOT(nodes, edges, DOTOptions{Pinned: pinned}), pinned)
		if err != nil {
			t.Fatalf("pinned=%v: RenderDOTSVG: %v", pinned, err)
		}
		if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
			t.Errorf("pinned=%v: root element not normalised", pinned)
		}
	}
}

func TestRenderDOTSVGInvalid(t *testing.T) {
	_, err := RenderDOTSVG(t.Context(), "not valid DOT {{{", false)
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want invalid input", err)
	}
	if _, err := ToGraphvizSVG(t.Context(), nil, nil, DOTOptions{}); !errors.Is(err, errors.ErrCodeNothingToExport) {
		t.Errorf("err = %v, want nothing to export", err)
	}
}

func TestExtension(t *testing.T) {
	if got := SuggestedFilename("Payments", Extension("graphviz")); got != "payments.graphviz.svg" {
		t.Errorf("graphviz filename = %q", got)
	}
	if got := Extension("png"); got != "png" {
		t.Errorf("Extension(png) = %q", got)
	}
}

func TestToJSON(t *testing.T) {
	if _, err := ToJSON("", nil, nil, nil); !errors.Is(err, errors.ErrCodeNothingToExport) {
		t.Errorf("err = %v, want nothing to export", err)
	}
	nodes, edges := sampleMap()
	data, err := ToJSON("Payments", nodes, edges, nil)
	if err != nil {
		t.Fatal(err)
	}
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(s.Nodes) != len(nodes) || len(s.Edges) != len(edges) {
		t.Errorf("scene has %d nodes and %d edges", len(s.Nodes), len(s.Edges))
	}
}
