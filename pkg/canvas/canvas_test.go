package canvas

import (
	"math"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/observability"
	"github.com/matzehuels/docmap/pkg/style"
)

func node(id string, typ model.NodeType, x, y float64) model.Node {
	return model.Node{ID: id, Type: typ, Position: model.Position{X: x, Y: y}, Data: model.NodeData{Label: strings.ToUpper(id)}}
}

func scenario() ([]model.Node, []model.Edge) {
	nodes := []model.Node{
		node("a", model.NodeComponent, 0, 0),
		node("b", model.NodeComponent, 100, 0),
		node("c", model.NodeComponent, 50, 100),
	}
	edges := []model.Edge{
		{ID: "ab", Source: "a", Target: "b", Type: "hierarchy"},
		{ID: "ac", Source: "a", Target: "c", Type: "hierarchy"},
		{ID: "bc", Source: "b", Target: "c", Type: "hierarchy"},
		{ID: "ab-dep", Source: "a", Target: "b", Data: model.EdgeData{EdgeType: "dependency"}},
	}
	return nodes, edges
}

func byID(edges []RenderableEdge) map[string]RenderableEdge {
	m := make(map[string]RenderableEdge, len(edges))
	for _, e := range edges {
		m[e.ID] = e
	}
	return m
}

func TestScenarioThreeNodes(t *testing.T) {
	nodes, edges := scenario()
	got := byID(StyledEdgesFor(nodes, edges))
	if len(got) != 4 {
		t.Fatalf("rendered %d edges, want 4", len(got))
	}

	wantOffset := map[string]float64{"ab": -6, "ab-dep": 6, "ac": 0, "bc": 0}
	for id, w := range wantOffset {
		if got[id].Offset != w {
			t.Errorf("offset[%s] = %v, want %v", id, got[id].Offset, w)
		}
	}
	if !got["ab-dep"].Style.Dashed() || got["ab-dep"].Style.Dasharray() != "6 4" {
		t.Errorf("dependency edge should be dashed, got %+v", got["ab-dep"].Style)
	}
	for _, id := range []string{"ab", "ac", "bc"} {
		if got[id].Style.Dashed() {
			t.Errorf("hierarchy edge %s should be solid", id)
		}
		if got[id].Kind != model.EdgeHierarchy {
			t.Errorf("edge %s kind = %v, want hierarchy", id, got[id].Kind)
		}
	}
	if got["ab"].SourcePoint == got["ab-dep"].SourcePoint {
		t.Error("parallel edges should not share endpoints")
	}
}

func TestStyledEdgesDeterministic(t *testing.T) {
	nodes, edges := scenario()
	first := StyledEdgesFor(nodes, edges)
	second := StyledEdgesFor(nodes, edges)
	if !reflect.DeepEqual(first, second) {
		t.Error("two passes over the same snapshot differ")
	}
}

func TestStyledEdgesDuplicateIDs(t *testing.T) {
	nodes := []model.Node{
		node("a", model.NodeComponent, 0, 0),
		node("b", model.NodeComponent, 300, 0),
		node("c", model.NodeComponent, 0, 300),
		node("d", model.NodeComponent, 300, 300),
	}
	edges := []model.Edge{
		{ID: "x", Source: "a", Target: "b"},
		{ID: "y", Source: "a", Target: "b"},
		{ID: "x", Source: "c", Target: "d"},
	}
	want := StyledEdgesFor(nodes, edges)
	if want[0].Offset != -6 || want[2].Offset != 0 {
		t.Fatalf("offsets = %v/%v, want -6/0", want[0].Offset, want[2].Offset)
	}
	for range 100 {
		if got := StyledEdgesFor(nodes, edges); !reflect.DeepEqual(got, want) {
			t.Fatal("passes over a snapshot with repeated edge ids differ")
		}
	}
}

type recordingHooks struct {
	observability.NoopRenderHooks
	mu      sync.Mutex
	skipped []string
}

func (h *recordingHooks) OnEdgeSkipped(id, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.skipped = append(h.skipped, id)
}

func TestSkipOnMissingReference(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetRenderHooks(hooks)
	defer observability.Reset()

	nodes, edges := scenario()
	edges = append(edges, model.Edge{ID: "bad", Source: "a", Target: "ghost"})
	res := Resolve(nodes, edges)

	if len(res.Edges) != 4 {
		t.Errorf("rendered %d edges, want 4", len(res.Edges))
	}
	if len(res.Skipped) != 1 || res.Skipped[0].EdgeID != "bad" || res.Skipped[0].Reason != ReasonMissingTarget {
		t.Errorf("Skipped = %+v, want bad/%s", res.Skipped, ReasonMissingTarget)
	}
	if len(hooks.skipped) != 1 || hooks.skipped[0] != "bad" {
		t.Errorf("hook saw %v, want [bad]", hooks.skipped)
	}
	if _, ok := byID(res.Edges)["bad"]; ok {
		t.Error("bad edge should not be rendered")
	}
}

func TestSkipNonFiniteGeometry(t *testing.T) {
	nodes := []model.Node{
		node("top", model.NodeComponent, 0, -1.7e308),
		node("bottom", model.NodeComponent, 0, 1.7e308),
		node("x", model.NodeComponent, 0, 0),
	}
	edges := []model.Edge{
		{ID: "huge", Source: "top", Target: "bottom"},
		{ID: "ok", Source: "x", Target: "bottom"},
	}
	res := Resolve(nodes, edges)
	if len(res.Skipped) != 1 || res.Skipped[0].EdgeID != "huge" {
		t.Fatalf("Skipped = %+v, want huge", res.Skipped)
	}
	for _, e := range res.Edges {
		if strings.Contains(e.Path, "NaN") || strings.Contains(e.Path, "Inf") {
			t.Errorf("edge %s path %q is not finite", e.ID, e.Path)
		}
	}
}

func TestHandleAndFloatingResolution(t *testing.T) {
	nodes := []model.Node{
		node("p", model.NodeProduct, 0, 0),
		node("f", model.NodeFeature, 400, 0),
		node("t", model.NodeTextBlock, 0, 300),
	}
	edges := []model.Edge{
		{ID: "pinned", Source: "p", Target: "f", SourceHandle: "right", TargetHandle: "left"},
		{ID: "default", Source: "p", Target: "t"},
		{ID: "flagged", Source: "f", Target: "t", Type: "floating"},
	}
	got := byID(StyledEdgesFor(nodes, edges))

	pinned := got["pinned"]
	pb := geom.NodeBounds(nodes[0])
	if pinned.Floating || pinned.SourcePos != geom.Right || pinned.TargetPos != geom.Left {
		t.Errorf("pinned = floating %v, %v→%v", pinned.Floating, pinned.SourcePos, pinned.TargetPos)
	}
	if pinned.SourcePoint != (geom.Point{X: pb.Right(), Y: pb.Center().Y}) {
		t.Errorf("pinned source = %v, want right middle of %v", pinned.SourcePoint, pb)
	}

	if !got["default"].Floating {
		t.Error("edge to a text block has no target handle and should float")
	}
	if got["default"].SourcePos != geom.Bottom || got["default"].TargetPos != geom.Top {
		t.Errorf("default sides = %v→%v, want bottom→top", got["default"].SourcePos, got["default"].TargetPos)
	}

	// Relative to the cards' sizes the vertical gap dominates.
	fl := got["flagged"]
	if !fl.Floating || fl.SourcePos != geom.Bottom || fl.TargetPos != geom.Top {
		t.Errorf("flagged = floating %v, %v→%v", fl.Floating, fl.SourcePos, fl.TargetPos)
	}
	if fb := geom.NodeBounds(nodes[1]); math.Abs(fl.SourcePoint.Y-fb.Bottom()) > 1e-9 {
		t.Errorf("flagged source %v should sit on the bottom border of %v", fl.SourcePoint, fb)
	}
}

func TestPathTypeAndMarkers(t *testing.T) {
	nodes, _ := scenario()
	edges := []model.Edge{
		{ID: "s", Source: "a", Target: "c", Data: model.EdgeData{PathType: "smoothstep"}},
		{ID: "i", Source: "b", Target: "c", Data: model.EdgeData{EdgeType: "integration", PathType: "straight"}},
		{ID: "g", Source: "a", Target: "b", Data: model.EdgeData{EdgeType: "grouping"}},
	}
	got := byID(StyledEdgesFor(nodes, edges))
	if got["s"].PathType != geom.PathSmoothStep || !strings.Contains(got["s"].Path, "Q") {
		t.Errorf("smoothstep edge = %v %q", got["s"].PathType, got["s"].Path)
	}
	if got["i"].PathType != geom.PathStraight || got["i"].MarkerStart == "" || got["i"].MarkerEnd == "" {
		t.Errorf("integration edge = %+v", got["i"])
	}
	if got["g"].MarkerStart != "" || got["g"].MarkerEnd != "" {
		t.Errorf("grouping edge should have no markers, got %q/%q", got["g"].MarkerStart, got["g"].MarkerEnd)
	}
	if got["i"].MarkerEnd != style.MarkerID("#0ea5e9") {
		t.Errorf("MarkerEnd = %q", got["i"].MarkerEnd)
	}
}

func TestSelfLoop(t *testing.T) {
	nodes := []model.Node{node("a", model.NodeProduct, 0, 0)}
	edges := []model.Edge{{ID: "loop", Source: "a", Target: "a"}, {ID: "loop2", Source: "a", Target: "a"}}
	got := byID(StyledEdgesFor(nodes, edges))
	if len(got) != 2 {
		t.Fatalf("rendered %d self-loops, want 2", len(got))
	}
	if got["loop"].Path == got["loop2"].Path {
		t.Error("stacked self-loops should not overlap")
	}
	if got["loop"].SourcePos != geom.Right {
		t.Errorf("self-loop side = %v, want right", got["loop"].SourcePos)
	}
}

func TestWithRegistry(t *testing.T) {
	reg, err := style.ParseTheme([]byte("[edges.hierarchy]\nstroke = \"#111111\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	nodes, edges := scenario()
	got := byID(StyledEdgesFor(nodes, edges, WithRegistry(reg)))
	if got["ab"].Style.Stroke != "#111111" {
		t.Errorf("themed stroke = %q", got["ab"].Style.Stroke)
	}
}

func TestRenderableNodes(t *testing.T) {
	nodes := []model.Node{
		{ID: "g", Type: model.NodeGroup, Data: model.NodeData{Label: "G", Collapsed: true}},
		{ID: "w", Type: "widget", Data: model.NodeData{Status: model.StatusBeta}},
	}
	got := RenderableNodes(nodes)
	if got[0].Class != "docmap-node--group is-collapsed" || got[0].Bounds.Height != 48 {
		t.Errorf("group = %+v", got[0])
	}
	if got[1].Known || got[1].Label != model.UntitledLabel || got[1].Class != "docmap-node--generic" {
		t.Errorf("unknown node = %+v", got[1])
	}
	if got[1].StatusColor != "#3b82f6" {
		t.Errorf("StatusColor = %q", got[1].StatusColor)
	}
	if got[1].Palette != style.Generic {
		t.Errorf("unknown node palette = %+v", got[1].Palette)
	}
	if got[0].Bounds != geom.NodeBounds(nodes[0]) {
		t.Error("renderable bounds must come from geom.NodeBounds")
	}
	if got[0].Style != "width:220px;height:48px;" {
		t.Errorf("Style = %q, want the collapsed group box", got[0].Style)
	}
}
