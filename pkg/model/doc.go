// Package model defines the documentation map data model consumed by the
// rendering and export core.
//
// # Overview
//
// A documentation map is a set of typed, positioned [Node] values connected
// by typed [Edge] values. Maps come in two flavours: a single-view map carries
// its nodes and edges directly, while a multi-view map subdivides the canvas
// into [ProductView] values sharing the same schema.
//
// Every render or export call consumes an immutable [Snapshot]. The core never
// writes back to the persistence layer.
//
// # UI State
//
// The browser canvas annotates nodes with transient flags (selected, dragging,
// measured dimensions). Those arrive as [UINode] and [UIEdge] and must be
// reduced to core values with [StripNodes] and [StripEdges] before any
// geometry or styling is computed:
//
//	snap := model.Snapshot{
//	    Nodes: model.StripNodes(req.Nodes),
//	    Edges: model.StripEdges(req.Edges),
//	}
//
// # Kinds
//
// [NodeType] and [EdgeType] are closed enums. Persisted data may predate new
// kinds, so lookups are total: [ParseEdgeType] falls back to [EdgeHierarchy]
// and unknown node types render with a generic card.
package model
