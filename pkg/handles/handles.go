// Package handles declares the fixed anchor points each node type exposes
// for edge attachment.
package handles

import (
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
)

// Kind says whether a handle starts or ends edges.
type Kind string

// Handle kinds.
const (
	Source Kind = "source"
	Target Kind = "target"
)

// Handle is one anchor on a node border.
type Handle struct {
	ID       string    `json:"id"`
	Type     Kind      `json:"type"`
	Position geom.Side `json:"position"`
	Offset   float64   `json:"offset"` // fraction along the side, 0.5 is centered
}

var cardHandles = []Handle{
	{ID: "top", Type: Target, Position: geom.Top, Offset: 0.5},
	{ID: "bottom", Type: Source, Position: geom.Bottom, Offset: 0.5},
	{ID: "right", Type: Source, Position: geom.Right, Offset: 0.5},
	{ID: "left", Type: Target, Position: geom.Left, Offset: 0.5},
}

var verticalHandles = []Handle{
	{ID: "top", Type: Target, Position: geom.Top, Offset: 0.5},
	{ID: "bottom", Type: Source, Position: geom.Bottom, Offset: 0.5},
}

var table = map[model.NodeType][]Handle{
	model.NodeProduct:   cardHandles,
	model.NodeFeature:   cardHandles,
	model.NodeComponent: verticalHandles,
	model.NodeGroup:     verticalHandles,
	// Text blocks only take floating edges.
	model.NodeTextBlock: nil,
}

// For returns the handles declared for a node type. The result is a fresh
// slice; unknown types and text blocks get an empty one.
func For(t model.NodeType) []Handle {
	hs := table[t]
	out := make([]Handle, len(hs))
	copy(out, hs)
	return out
}

// Has reports whether the node type declares any handles.
func Has(t model.NodeType) bool { return len(table[t]) > 0 }

// Find looks up a handle of the given kind by id. An empty or unknown id
// falls back to the first handle of that kind.
func Find(t model.NodeType, kind Kind, id string) (Handle, bool) {
	var first *Handle
	hs := table[t]
	for i := range hs {
		if hs[i].Type != kind {
			continue
		}
		if id != "" && hs[i].ID == id {
			return hs[i], true
		}
		if first == nil {
			first = &hs[i]
		}
	}
	if first == nil {
		return Handle{}, false
	}
	return *first, true
}

// Point returns the canvas coordinate of h on a node with the given bounds.
func Point(bounds geom.Rect, h Handle) geom.Point {
	return bounds.SidePoint(h.Position, h.Offset)
}
