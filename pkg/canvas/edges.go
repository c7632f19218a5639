// Package canvas turns a node/edge snapshot into the edge and node
// descriptors the interactive map canvas draws.
//
// [StyledEdgesFor] is the full pass: for every edge it resolves endpoints
// (anchor handles, or floating border points), applies the parallel edge
// offset, applies the style registry and builds the SVG path. The exporter
// draws the exact same descriptors, so a map looks identical live and on
// paper.
//
// [Adapter] keeps a private copy of a snapshot between passes and, while a
// node is dragged, recomputes only the edges touching that node.
//
// Bad data never fails a pass. An edge whose source or target is missing,
// or whose geometry is not finite, is left out, logged and reported to
// [observability.RenderHooks].
package canvas

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/docmap/pkg/floating"
	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/handles"
	"github.com/matzehuels/docmap/pkg/model"
	"github.com/matzehuels/docmap/pkg/observability"
	"github.com/matzehuels/docmap/pkg/spacing"
	"github.com/matzehuels/docmap/pkg/style"
)

// RenderableEdge is everything the canvas needs to draw one edge.
type RenderableEdge struct {
	ID          string          `json:"id"`
	Source      string          `json:"source"`
	Target      string          `json:"target"`
	Kind        model.EdgeType  `json:"kind"`
	Path        string          `json:"path"`       // SVG path data
	PathType    geom.PathType   `json:"pathType"`   // curve family used
	LabelPoint  geom.Point      `json:"labelPoint"` // where the label is centered
	Label       string          `json:"label,omitempty"`
	SourcePoint geom.Point      `json:"sourcePoint"`
	TargetPoint geom.Point      `json:"targetPoint"`
	SourcePos   geom.Side       `json:"sourcePos"`
	TargetPos   geom.Side       `json:"targetPos"`
	Floating    bool            `json:"floating"`
	Offset      float64         `json:"offset"`
	Style       style.EdgeStyle `json:"style"`
	MarkerStart string          `json:"markerStart,omitempty"` // marker id, empty when none
	MarkerEnd   string          `json:"markerEnd,omitempty"`
}

// Skip records an edge left out of a pass.
type Skip struct {
	EdgeID string `json:"edgeId"`
	Reason string `json:"reason"`
}

// Result is the outcome of a full styling pass.
type Result struct {
	Edges   []RenderableEdge `json:"edges"`
	Skipped []Skip           `json:"skipped,omitempty"`
}

// Skip reasons.
const (
	ReasonMissingSource = "source node not found"
	ReasonMissingTarget = "target node not found"
	ReasonNonFinite     = "geometry is not finite"
)

// Option configures a styling pass or an Adapter.
type Option func(*options)

type options struct {
	registry *style.Registry
	logger   *log.Logger
}

// WithRegistry styles edges and nodes from r instead of style.Default().
func WithRegistry(r *style.Registry) Option {
	return func(o *options) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithLogger logs skipped edges to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

var discard = log.New(io.Discard)

func buildOptions(opts []Option) options {
	o := options{registry: style.Default(), logger: discard}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// StyledEdgesFor resolves every drawable edge of the snapshot, in input
// order.
func StyledEdgesFor(nodes []model.Node, edges []model.Edge, opts ...Option) []RenderableEdge {
	return Resolve(nodes, edges, opts...).Edges
}

// Resolve is StyledEdgesFor that also reports the skipped edges.
func Resolve(nodes []model.Node, edges []model.Edge, opts ...Option) Result {
	start := time.Now()
	o := buildOptions(opts)
	r := newResolver(nodes, edges, o)

	res := Result{Edges: make([]RenderableEdge, 0, len(edges))}
	for i, e := range edges {
		re, reason := r.edge(i, e)
		if reason != "" {
			res.Skipped = append(res.Skipped, r.skip(e.ID, reason))
			continue
		}
		res.Edges = append(res.Edges, re)
	}
	observability.Render().OnRenderComplete(len(res.Edges), len(res.Skipped), time.Since(start))
	return res
}

// resolver holds the per-pass lookups shared by every edge.
type resolver struct {
	opts   options
	nodes  map[string]model.Node
	assign []spacing.Assignment // indexed like the edge slice
}

func newResolver(nodes []model.Node, edges []model.Edge, o options) *resolver {
	r := &resolver{opts: o, nodes: make(map[string]model.Node, len(nodes))}
	r.setNodes(nodes)
	r.setEdges(edges)
	return r
}

func (r *resolver) setNodes(nodes []model.Node) {
	clear(r.nodes)
	for _, n := range nodes {
		// First occurrence wins on duplicate ids.
		if _, ok := r.nodes[n.ID]; !ok {
			r.nodes[n.ID] = n
		}
	}
}

func (r *resolver) setEdges(edges []model.Edge) {
	r.assign = spacing.Assign(edges)
}

func (r *resolver) skip(id, reason string) Skip {
	r.opts.logger.Warn("skipping edge", "edge", id, "reason", reason)
	observability.Render().OnEdgeSkipped(id, reason)
	return Skip{EdgeID: id, Reason: reason}
}

// edge resolves the i-th edge or returns why it cannot be drawn.
func (r *resolver) edge(i int, e model.Edge) (RenderableEdge, string) {
	src, ok := r.nodes[e.Source]
	if !ok {
		return RenderableEdge{}, ReasonMissingSource
	}
	dst, ok := r.nodes[e.Target]
	if !ok {
		return RenderableEdge{}, ReasonMissingTarget
	}
	sb, tb := geom.NodeBounds(src), geom.NodeBounds(dst)
	as := r.assign[i]
	st := r.opts.registry.Resolve(e)

	re := RenderableEdge{
		ID:     e.ID,
		Source: e.Source,
		Target: e.Target,
		Kind:   e.Kind(),
		Label:  e.Data.Label,
		Offset: as.Offset,
		Style:  st,
	}
	if st.MarkerStart {
		re.MarkerStart = style.MarkerID(st.Stroke)
	}
	if st.MarkerEnd {
		re.MarkerEnd = style.MarkerID(st.Stroke)
	}

	if e.IsSelfLoop() {
		p := geom.SelfLoopPath(sb, as.Index)
		re.PathType = geom.PathBezier
		re.Path, re.LabelPoint = p.D, p.Label
		re.SourcePos, re.TargetPos = geom.Right, geom.Right
		re.SourcePoint = sb.SidePoint(geom.Right, 0.5-geom.LoopPortOffset/2)
		re.TargetPoint = sb.SidePoint(geom.Right, 0.5+geom.LoopPortOffset/2)
		re.Floating = e.IsFloating()
		if !sb.Finite() || !re.LabelPoint.Finite() {
			return RenderableEdge{}, ReasonNonFinite
		}
		return re, ""
	}

	sp, tp, sside, tside, isFloating := r.endpoints(e, src, dst, sb, tb)
	sp, tp = as.Apply(sp, tp)
	if !sp.Finite() || !tp.Finite() {
		return RenderableEdge{}, ReasonNonFinite
	}

	pt := geom.ParsePathType(e.Data.PathType)
	p := geom.Build(pt, sp, sside, tp, tside)
	if !p.Label.Finite() {
		return RenderableEdge{}, ReasonNonFinite
	}
	re.PathType = pt
	re.Path, re.LabelPoint = p.D, p.Label
	re.SourcePoint, re.TargetPoint = sp, tp
	re.SourcePos, re.TargetPos = sside, tside
	re.Floating = isFloating
	return re, ""
}

// endpoints picks anchor handles when the edge is pinned and both nodes
// declare a matching handle, and floating border points otherwise.
func (r *resolver) endpoints(e model.Edge, src, dst model.Node, sb, tb geom.Rect) (geom.Point, geom.Point, geom.Side, geom.Side, bool) {
	if !e.IsFloating() {
		sh, sok := handles.Find(src.Type, handles.Source, e.SourceHandle)
		th, tok := handles.Find(dst.Type, handles.Target, e.TargetHandle)
		if sok && tok {
			return handles.Point(sb, sh), handles.Point(tb, th), sh.Position, th.Position, false
		}
	}
	f := floating.Params(sb, tb)
	return f.Source(), f.Target(), f.SourcePos, f.TargetPos, true
}
