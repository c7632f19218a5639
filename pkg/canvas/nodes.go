package canvas

import (
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/handles"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/style"
)

// RenderableNode is the sizing and colour information a node component
// needs. Bounds come from geom.NodeBounds, the same call the exporter makes.
type RenderableNode struct {
	ID          string            `json:"id"`
	Type        model.NodeType    `json:"type"`
	Known       bool              `json:"known"` // false when drawn as a generic card
	Class       string            `json:"class"` // CSS class carrying the size rule
	Label       string            `json:"label"`
	Bounds      geom.Rect         `json:"bounds"`
	Style       string            `json:"style"` // inline box fixing the element to Bounds
	Palette     style.NodePalette `json:"palette"`
	StatusColor string            `json:"statusColor,omitempty"`
	Handles     []handles.Handle  `json:"handles"`
}

// RenderableNodes describes every node in input order.
func RenderableNodes(nodes []model.Node, opts ...Option) []RenderableNode {
	o := buildOptions(opts)
	out := make([]RenderableNode, len(nodes))
	for i, n := range nodes {
		out[i] = describeNode(n, o.registry)
	}
	return out
}

func describeNode(n model.Node, reg *style.Registry) RenderableNode {
	rn := RenderableNode{
		ID:      n.ID,
		Type:    n.Type,
		Known:   n.Type.Valid(),
		Class:   "docmap-node--" + string(n.Type),
		Label:   n.DisplayLabel(),
		Bounds:  geom.NodeBounds(n),
		Palette: reg.NodePalette(n),
		Handles: handles.For(n.Type),
	}
	rn.Style = geom.BoxCSS(rn.Bounds)
	if !rn.Known {
		rn.Class = "docmap-node--generic"
	}
	if n.Data.Collapsed && n.Type == model.NodeGroup {
		rn.Class += " is-collapsed"
	}
	if c, ok := reg.StatusColor(n.Data.Status); ok {
		rn.StatusColor = c
	}
	return rn
}
