package model

// UINode is the node shape posted by the browser canvas. It carries
// presentation-only annotations that never reach the core.
type UINode struct {
	Node
	Selected         bool      `json:"selected,omitempty"`
	Dragging         bool      `json:"dragging,omitempty"`
	Resizing         bool      `json:"resizing,omitempty"`
	Hidden           bool      `json:"hidden,omitempty"`
	ZIndex           int       `json:"zIndex,omitempty"`
	ParentID         string    `json:"parentId,omitempty"`
	PositionAbsolute *Position `json:"positionAbsolute,omitempty"`
	Measured         *struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"measured,omitempty"`
}

// UIEdge is the edge shape posted by the browser canvas.
type UIEdge struct {
	Edge
	Selected bool `json:"selected,omitempty"`
	Animated bool `json:"animated,omitempty"`
	Hidden   bool `json:"hidden,omitempty"`
}

// StripNodes drops UI annotations and returns deep copies of the core nodes.
// Hidden nodes are kept: visibility is a view concern, and edges referencing
// them must still resolve.
func StripNodes(in []UINode) []Node {
	out := make([]Node, len(in))
	for i := range in {
		out[i] = cloneNode(in[i].Node)
	}
	return out
}

// StripEdges drops UI annotations and returns deep copies of the core edges.
func StripEdges(in []UIEdge) []Edge {
	out := make([]Edge, len(in))
	for i := range in {
		out[i] = cloneEdge(in[i].Edge)
	}
	return out
}

// CloneNodes returns a deep copy of nodes.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i := range nodes {
		out[i] = cloneNode(nodes[i])
	}
	return out
}

// CloneEdges returns a deep copy of edges.
func CloneEdges(edges []Edge) []Edge {
	if edges == nil {
		return nil
	}
	out := make([]Edge, len(edges))
	for i := range edges {
		out[i] = cloneEdge(edges[i])
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{Nodes: CloneNodes(s.Nodes), Edges: CloneEdges(s.Edges)}
}

func cloneNode(n Node) Node {
	if n.Width != nil {
		w := *n.Width
		n.Width = &w
	}
	if n.Height != nil {
		h := *n.Height
		n.Height = &h
	}
	return n
}

func cloneEdge(e Edge) Edge {
	if e.Style != nil {
		s := *e.Style
		e.Style = &s
	}
	if e.MarkerEnd != nil {
		m := *e.MarkerEnd
		e.MarkerEnd = &m
	}
	return e
}
