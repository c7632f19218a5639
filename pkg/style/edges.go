// Package style is the single table of visual rules shared by the canvas
// adapter and the exporter: edge strokes and arrowheads per edge kind, node
// card palettes per node type and status dot colours.
//
// A [Registry] is immutable once built. [Default] returns the built-in
// table; [LoadTheme] builds a registry from a TOML file layered over it.
// Every lookup is total: unknown kinds fall back to the hierarchy style and
// unknown node types to a neutral card.
package style

import (
	"strconv"
	"strings"

	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
)

// EdgeStyle describes how one edge is stroked.
type EdgeStyle struct {
	Stroke      string      `json:"stroke"`         // CSS colour
	StrokeWidth float64     `json:"strokeWidth"`    // px
	Dash        *[2]float64 `json:"dash,omitempty"` // dash/gap pair, nil for solid
	MarkerStart bool        `json:"markerStart"`    // arrowhead at the source
	MarkerEnd   bool        `json:"markerEnd"`      // arrowhead at the target
}

// Dashed reports whether the stroke is dashed.
func (s EdgeStyle) Dashed() bool { return s.Dash != nil }

// Dasharray returns the SVG stroke-dasharray value, or "" for solid strokes.
func (s EdgeStyle) Dasharray() string {
	if s.Dash == nil {
		return ""
	}
	return geom.Num(s.Dash[0]) + " " + geom.Num(s.Dash[1])
}

func dash(a, b float64) *[2]float64 { return &[2]float64{a, b} }

var defaultEdges = map[model.EdgeType]EdgeStyle{
	model.EdgeHierarchy:   {Stroke: "#64748b", StrokeWidth: 2, MarkerEnd: true},
	model.EdgeDependency:  {Stroke: "#f97316", StrokeWidth: 2, Dash: dash(6, 4), MarkerEnd: true},
	model.EdgeAlternative: {Stroke: "#a855f7", StrokeWidth: 1.5, Dash: dash(2, 4), MarkerStart: true, MarkerEnd: true},
	model.EdgeIntegration: {Stroke: "#0ea5e9", StrokeWidth: 2, MarkerStart: true, MarkerEnd: true},
	model.EdgeExtension:   {Stroke: "#22c55e", StrokeWidth: 2, Dash: dash(8, 4), MarkerEnd: true},
	model.EdgeGrouping:    {Stroke: "#94a3b8", StrokeWidth: 1, Dash: dash(4, 4)},
	model.EdgeRelated:     {Stroke: "#eab308", StrokeWidth: 1.5, Dash: dash(3, 3)},
	model.EdgeOptional:    {Stroke: "#cbd5e1", StrokeWidth: 1.5, Dash: dash(4, 6), MarkerEnd: true},
	model.EdgeDependsOn:   {Stroke: "#ef4444", StrokeWidth: 2, MarkerEnd: true},
}

// StyleFor returns the style of kind. Unknown kinds get the hierarchy style.
func (r *Registry) StyleFor(kind model.EdgeType) EdgeStyle {
	if s, ok := r.edges[kind]; ok {
		return copyStyle(s)
	}
	return copyStyle(r.edges[model.EdgeHierarchy])
}

// Resolve returns the effective style of e: the style of its kind with the
// edge's persisted style and markerEnd overrides applied.
func (r *Registry) Resolve(e model.Edge) EdgeStyle {
	s := r.StyleFor(e.Kind())
	if o := e.Style; o != nil {
		if c := strings.TrimSpace(o.Stroke); c != "" {
			s.Stroke = c
		}
		if geom.IsFinite(o.StrokeWidth) && o.StrokeWidth > 0 {
			s.StrokeWidth = o.StrokeWidth
		}
		if o.StrokeDasharray != "" {
			s.Dash = ParseDash(o.StrokeDasharray)
		}
	}
	if e.MarkerEnd != nil {
		s.MarkerEnd = e.MarkerEnd.Show
	}
	return s
}

// StyleFor looks kind up in the default registry.
func StyleFor(kind model.EdgeType) EdgeStyle { return Default().StyleFor(kind) }

// Resolve resolves e against the default registry.
func Resolve(e model.Edge) EdgeStyle { return Default().Resolve(e) }

// ParseDash reads a CSS dasharray such as "6 4" or "6,4". A single value
// is used for both dash and gap; "none", "0" or unparsable input is solid.
func ParseDash(s string) *[2]float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	var vals []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || !geom.IsFinite(v) || v < 0 {
			return nil
		}
		vals = append(vals, v)
	}
	switch {
	case len(vals) == 0:
		return nil
	case len(vals) == 1:
		if vals[0] == 0 {
			return nil
		}
		return dash(vals[0], vals[0])
	}
	if vals[0] == 0 && vals[1] == 0 {
		return nil
	}
	return dash(vals[0], vals[1])
}

// MarkerID is the id of the arrowhead marker definition for a stroke
// colour. Edges of the same colour share one definition.
func MarkerID(color string) string {
	var b strings.Builder
	b.WriteString("docmap-arrow-")
	for _, r := range strings.ToLower(color) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func copyStyle(s EdgeStyle) EdgeStyle {
	if s.Dash != nil {
		d := *s.Dash
		s.Dash = &d
	}
	return s
}
