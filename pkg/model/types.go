package model

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// NodeType identifies how a node is drawn and which anchors it exposes.
type NodeType string

// Node types.
const (
	NodeProduct   NodeType = "product"
	NodeFeature   NodeType = "feature"
	NodeComponent NodeType = "component"
	NodeTextBlock NodeType = "textBlock"
	NodeGroup     NodeType = "group"
)

// NodeTypes lists every known node type in display order.
var NodeTypes = []NodeType{NodeProduct, NodeFeature, NodeComponent, NodeTextBlock, NodeGroup}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeProduct, NodeFeature, NodeComponent, NodeTextBlock, NodeGroup:
		return true
	}
	return false
}

// Status is the lifecycle badge shown as a dot on product, feature and
// component cards.
type Status string

// Statuses.
const (
	StatusStable       Status = "stable"
	StatusBeta         Status = "beta"
	StatusDeprecated   Status = "deprecated"
	StatusExperimental Status = "experimental"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusStable, StatusBeta, StatusDeprecated, StatusExperimental:
		return true
	}
	return false
}

// EdgeType is the logical relationship an edge expresses.
type EdgeType string

// Edge types.
const (
	EdgeHierarchy   EdgeType = "hierarchy"
	EdgeDependency  EdgeType = "dependency"
	EdgeAlternative EdgeType = "alternative"
	EdgeIntegration EdgeType = "integration"
	EdgeExtension   EdgeType = "extension"
	EdgeGrouping    EdgeType = "grouping"
	EdgeRelated     EdgeType = "related"
	EdgeOptional    EdgeType = "optional"
	EdgeDependsOn   EdgeType = "depends-on"
)

// EdgeTypes lists every known edge type.
var EdgeTypes = []EdgeType{
	EdgeHierarchy, EdgeDependency, EdgeAlternative, EdgeIntegration, EdgeExtension,
	EdgeGrouping, EdgeRelated, EdgeOptional, EdgeDependsOn,
}

// Valid reports whether t is one of the known edge types.
func (t EdgeType) Valid() bool {
	switch t {
	case EdgeHierarchy, EdgeDependency, EdgeAlternative, EdgeIntegration, EdgeExtension,
		EdgeGrouping, EdgeRelated, EdgeOptional, EdgeDependsOn:
		return true
	}
	return false
}

// ParseEdgeType maps a persisted string to an EdgeType. Unknown values
// (including data written by newer editors) become EdgeHierarchy.
func ParseEdgeType(s string) EdgeType {
	t := EdgeType(strings.TrimSpace(s))
	if t.Valid() {
		return t
	}
	return EdgeHierarchy
}

// Position is a point in the shared map canvas space.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData is the editor-controlled payload of a node.
type NodeData struct {
	Label       string `json:"label" yaml:"label"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Status      Status `json:"status,omitempty" yaml:"status,omitempty"`
	Content     string `json:"content,omitempty" yaml:"content,omitempty"`
	Collapsed   bool   `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	ChildCount  int    `json:"childCount,omitempty" yaml:"childCount,omitempty"`
}

// Node is a typed, positioned entity on the map. Position is the top-left
// corner of the node's bounding box.
type Node struct {
	ID       string   `json:"id" yaml:"id" validate:"required"`
	Type     NodeType `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	// Width and Height are explicit dimensions stored by the editor after a
	// manual resize. When nil the per-type size table applies.
	Width  *float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height *float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Data   NodeData `json:"data" yaml:"data"`
}

// EdgeData is the editor-controlled payload of an edge.
type EdgeData struct {
	EdgeType string `json:"edgeType,omitempty" yaml:"edgeType,omitempty"`
	Floating bool   `json:"floating,omitempty" yaml:"floating,omitempty"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty"`
	// PathType selects the curve family: "bezier" (default), "smoothstep"
	// or "straight".
	PathType string `json:"pathType,omitempty" yaml:"pathType,omitempty"`
}

// StyleOverride is a persisted per-edge style that takes precedence over the
// registry entry for the edge's kind.
type StyleOverride struct {
	Stroke          string  `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	StrokeWidth     float64 `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
	StrokeDasharray string  `json:"strokeDasharray,omitempty" yaml:"strokeDasharray,omitempty"`
}

// Edge is a typed directed connection between two nodes.
type Edge struct {
	ID           string         `json:"id" yaml:"id" validate:"required"`
	Source       string         `json:"source" yaml:"source" validate:"required"`
	Target       string         `json:"target" yaml:"target" validate:"required"`
	SourceHandle string         `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string         `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
	Type         string         `json:"type,omitempty" yaml:"type,omitempty"`
	Data         EdgeData       `json:"data,omitempty" yaml:"data,omitempty"`
	Style        *StyleOverride `json:"style,omitempty" yaml:"style,omitempty"`
	MarkerEnd    *Marker        `json:"markerEnd,omitempty" yaml:"markerEnd,omitempty"`
}

// Kind returns the effective edge type: data.edgeType, then type when it
// names a known kind, then hierarchy.
func (e Edge) Kind() EdgeType {
	if e.Data.EdgeType != "" {
		return ParseEdgeType(e.Data.EdgeType)
	}
	return ParseEdgeType(e.Type)
}

// IsFloating reports whether the edge endpoints are computed from node
// geometry instead of fixed anchors.
func (e Edge) IsFloating() bool {
	return e.Data.Floating || e.Type == "floating"
}

// IsSelfLoop reports whether the edge starts and ends on the same node.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

// Marker is a persisted arrowhead override. Editors have written it as a
// bool, a marker type string, or an object; all decode to Show.
type Marker struct {
	Show bool
}

// MarshalJSON implements json.Marshaler.
func (m Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Show)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Marker) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.Show = markerShown(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (m *Marker) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return err
	}
	m.Show = markerShown(v)
	return nil
}

func markerShown(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s != "" && s != "none" && s != "false"
	case map[string]any:
		if typ, ok := t["type"].(string); ok {
			return markerShown(typ)
		}
		return true
	default:
		return true
	}
}

// ViewType distinguishes single-canvas maps from maps split into views.
type ViewType string

// View types.
const (
	ViewSingle ViewType = "single"
	ViewMulti  ViewType = "multi"
)

// Map is a persisted documentation map.
type Map struct {
	ID       string        `json:"id" yaml:"id"`
	Title    string        `json:"title" yaml:"title"`
	Nodes    []Node        `json:"nodes" yaml:"nodes"`
	Edges    []Edge        `json:"edges" yaml:"edges"`
	ViewType ViewType      `json:"view_type,omitempty" yaml:"view_type,omitempty"`
	Views    []ProductView `json:"views,omitempty" yaml:"views,omitempty"`
}

// ProductView is an independently navigable node/edge subset of a
// multi-view map.
type ProductView struct {
	ID         string `json:"id" yaml:"id"`
	Slug       string `json:"slug" yaml:"slug"`
	Title      string `json:"title" yaml:"title"`
	OrderIndex int    `json:"order_index" yaml:"order_index"`
	Nodes      []Node `json:"nodes" yaml:"nodes"`
	Edges      []Edge `json:"edges" yaml:"edges"`
}

// Snapshot is the immutable node/edge pair handed to a render or export
// pass.
type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Snapshot returns the map's top-level nodes and edges.
func (m *Map) Snapshot() Snapshot {
	return Snapshot{Nodes: m.Nodes, Edges: m.Edges}
}

// Snapshot returns the view's nodes and edges.
func (v *ProductView) Snapshot() Snapshot {
	return Snapshot{Nodes: v.Nodes, Edges: v.Edges}
}

// SortViews orders views by order_index, then slug.
func SortViews(views []ProductView) {
	slices.SortStableFunc(views, func(a, b ProductView) int {
		if c := cmp.Compare(a.OrderIndex, b.OrderIndex); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
}

// View returns the view with the given slug.
func (m *Map) View(slug string) (*ProductView, bool) {
	for i := range m.Views {
		if m.Views[i].Slug == slug {
			return &m.Views[i], true
		}
	}
	return nil, false
}

// UntitledLabel is shown for nodes persisted without a label.
const UntitledLabel = "Untitled"

// DisplayLabel returns the label drawn on the node card.
func (n Node) DisplayLabel() string {
	if l := strings.TrimSpace(n.Data.Label); l != "" {
		return l
	}
	return UntitledLabel
}

// DisplayContent returns the body text of a text block, falling back to its
// label.
func (n Node) DisplayContent() string {
	if c := strings.TrimSpace(n.Data.Content); c != "" {
		return c
	}
	return n.DisplayLabel()
}
