package canvas

import (
	"fmt"

	"github.com/matzehuels/docmap/pkg/model"
)

// State is the drag state of an Adapter.
type State int

// Adapter states.
const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Adapter keeps the rendered edges of one snapshot current while nodes are
// dragged. It owns a private copy of the snapshot; caller slices are never
// written to. An Adapter is not safe for concurrent use.
type Adapter struct {
	opts  options
	res   *resolver
	nodes []model.Node
	edges []model.Edge

	nodeIndex map[string]int
	incident  map[string][]int // node id -> indices into edges

	rendered []RenderableEdge
	drawn    []bool // whether rendered[i] is drawable

	state      State
	dragging   string
	recomputed int
}

// NewAdapter builds an adapter over a copy of s and renders it once.
func NewAdapter(s model.Snapshot, opts ...Option) *Adapter {
	a := &Adapter{opts: buildOptions(opts)}
	a.nodes = model.CloneNodes(s.Nodes)
	a.edges = model.CloneEdges(s.Edges)
	a.res = newResolver(a.nodes, a.edges, a.opts)
	a.index()
	a.renderAll()
	return a
}

func (a *Adapter) index() {
	a.nodeIndex = make(map[string]int, len(a.nodes))
	for i, n := range a.nodes {
		if _, ok := a.nodeIndex[n.ID]; !ok {
			a.nodeIndex[n.ID] = i
		}
	}
	a.incident = make(map[string][]int)
	for i, e := range a.edges {
		a.incident[e.Source] = append(a.incident[e.Source], i)
		if e.Target != e.Source {
			a.incident[e.Target] = append(a.incident[e.Target], i)
		}
	}
}

func (a *Adapter) renderAll() {
	a.rendered = make([]RenderableEdge, len(a.edges))
	a.drawn = make([]bool, len(a.edges))
	for i := range a.edges {
		a.render(i)
	}
}

func (a *Adapter) render(i int) {
	a.recomputed++
	re, reason := a.res.edge(i, a.edges[i])
	if reason != "" {
		a.res.skip(a.edges[i].ID, reason)
		a.rendered[i], a.drawn[i] = RenderableEdge{}, false
		return
	}
	a.rendered[i], a.drawn[i] = re, true
}

// State returns the current drag state.
func (a *Adapter) State() State { return a.state }

// Recomputed returns how many single-edge resolutions the adapter has run.
func (a *Adapter) Recomputed() int { return a.recomputed }

// Snapshot returns a copy of the adapter's current nodes and edges.
func (a *Adapter) Snapshot() model.Snapshot {
	return model.Snapshot{Nodes: model.CloneNodes(a.nodes), Edges: model.CloneEdges(a.edges)}
}

// Edges returns every drawable edge in input order.
func (a *Adapter) Edges() []RenderableEdge {
	out := make([]RenderableEdge, 0, len(a.rendered))
	for i, re := range a.rendered {
		if a.drawn[i] {
			out = append(out, re)
		}
	}
	return out
}

// BeginDrag moves the adapter into the dragging state for node id.
func (a *Adapter) BeginDrag(id string) error {
	if a.state == Dragging {
		return fmt.Errorf("already dragging node %q", a.dragging)
	}
	if _, ok := a.nodeIndex[id]; !ok {
		return fmt.Errorf("unknown node %q", id)
	}
	a.state, a.dragging = Dragging, id
	return nil
}

// Drag moves the dragged node to pos and returns the recomputed edges that
// touch it. Edges not incident to the node are left as they were.
func (a *Adapter) Drag(id string, pos model.Position) ([]RenderableEdge, error) {
	if a.state != Dragging || a.dragging != id {
		return nil, fmt.Errorf("node %q is not being dragged", id)
	}
	i := a.nodeIndex[id]
	a.nodes[i].Position = pos
	a.res.nodes[id] = a.nodes[i]

	idx := a.incident[id]
	out := make([]RenderableEdge, 0, len(idx))
	for _, ei := range idx {
		a.render(ei)
		if a.drawn[ei] {
			out = append(out, a.rendered[ei])
		}
	}
	return out, nil
}

// EndDrag returns the adapter to idle.
func (a *Adapter) EndDrag() {
	a.state, a.dragging = Idle, ""
}

// SetNodes replaces the node set and re-renders every edge.
func (a *Adapter) SetNodes(nodes []model.Node) {
	a.nodes = model.CloneNodes(nodes)
	a.res.setNodes(a.nodes)
	a.index()
	a.EndDrag()
	a.renderAll()
}

// SetEdges replaces the edge set, recomputes parallel offsets and
// re-renders every edge.
func (a *Adapter) SetEdges(edges []model.Edge) {
	a.edges = model.CloneEdges(edges)
	a.res.setEdges(a.edges)
	a.index()
	a.renderAll()
}
