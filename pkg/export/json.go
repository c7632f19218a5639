package export

import (
	"encoding/json"

	"github.com/matzehuels/docmap/pkg/canvas"
	"github.com/matzehuels/docmap/pkg/errors"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/style"
)

// Scene is the resolved drawing of a snapshot: every node box and every
// drawable edge, ready for a client that does its own painting.
type Scene struct {
	Title   string                  `json:"title,omitempty"`
	Nodes   []canvas.RenderableNode `json:"nodes"`
	Edges   []canvas.RenderableEdge `json:"edges"`
	Skipped []canvas.Skip           `json:"skipped,omitempty"`
}

// BuildScene resolves nodes and edges with reg (style.Default() when nil).
func BuildScene(title string, nodes []model.Node, edges []model.Edge, reg *style.Registry) Scene {
	if reg == nil {
		reg = style.Default()
	}
	res := canvas.Resolve(nodes, edges, canvas.WithRegistry(reg))
	return Scene{
		Title:   title,
		Nodes:   canvas.RenderableNodes(nodes, canvas.WithRegistry(reg)),
		Edges:   res.Edges,
		Skipped: res.Skipped,
	}
}

// ToJSON encodes the scene of a snapshot as indented JSON.
func ToJSON(title string, nodes []model.Node, edges []model.Edge, reg *style.Registry) ([]byte, error) {
	if len(nodes) == 0 {
		return nil, errors.New(errors.ErrCodeNothingToExport, "nothing to export: the map has no nodes")
	}
	data, err := json.MarshalIndent(BuildScene(title, nodes, edges, reg), "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "the scene could not be encoded")
	}
	return data, nil
}
