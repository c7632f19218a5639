// Package spacing fans out parallel edges.
//
// Edges connecting the same unordered pair of nodes form a group. Members
// are ordered by edge id and receive offsets spread symmetrically around
// zero, (i-(n-1)/2)·Unit, so a lone edge stays on the center line and two
// edges straddle it. Offsets are applied perpendicular to the canonical pair
// direction (lexicographically smaller node id toward the larger), so A→B
// and B→A move to opposite sides instead of cancelling out.
package spacing

import (
	"sort"

	"github.com/matzehuels/docmap/pkg/geom"
	"github.com/matzehuels/docmap/pkg/model"
)

// Unit is the distance between neighbouring parallel edges.
const Unit = 12.0

// Assignment is the computed placement of one edge within its group.
type Assignment struct {
	Offset   float64 // perpendicular displacement
	Index    int     // position within the group, by edge id
	Size     int     // number of edges in the group
	From, To string  // canonical pair, From <= To
	Reversed bool    // edge runs To→From
}

// SelfLoop reports whether the group connects a node to itself.
func (a Assignment) SelfLoop() bool { return a.From == a.To }

type pairKey struct{ from, to string }

func canonical(e model.Edge) (pairKey, bool) {
	if e.Source <= e.Target {
		return pairKey{e.Source, e.Target}, false
	}
	return pairKey{e.Target, e.Source}, true
}

// Assign computes the assignment of every edge, indexed like edges. Groups
// are keyed by node pair and members sorted by edge id, so offsets do not
// depend on input order. Repeated ids are ordered by input position and
// still get distinct slots.
func Assign(edges []model.Edge) []Assignment {
	groups := make(map[pairKey][]int)
	for i, e := range edges {
		k, _ := canonical(e)
		groups[k] = append(groups[k], i)
	}

	out := make([]Assignment, len(edges))
	for k, members := range groups {
		sort.SliceStable(members, func(a, b int) bool {
			return edges[members[a]].ID < edges[members[b]].ID
		})
		n := len(members)
		for i, idx := range members {
			_, rev := canonical(edges[idx])
			out[idx] = Assignment{
				Offset:   offset(i, n),
				Index:    i,
				Size:     n,
				From:     k.from,
				To:       k.to,
				Reversed: rev,
			}
		}
	}
	return out
}

func offset(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return (float64(i) - float64(n-1)/2) * Unit
}

// Offsets returns the offset of every edge keyed by edge id. When ids
// repeat, the first edge with that id in input order wins.
func Offsets(edges []model.Edge) map[string]float64 {
	a := Assign(edges)
	out := make(map[string]float64, len(a))
	for i, e := range edges {
		if _, ok := out[e.ID]; !ok {
			out[e.ID] = a[i].Offset
		}
	}
	return out
}

// OffsetFor returns the offset of the first edge with edgeID, or 0 when
// edgeID is not in edges.
func OffsetFor(edgeID string, edges []model.Edge) float64 {
	a := Assign(edges)
	for i, e := range edges {
		if e.ID == edgeID {
			return a[i].Offset
		}
	}
	return 0
}

// Apply shifts both endpoints of an edge by its offset. Self-loops, zero
// offsets and zero-length segments come back unchanged.
func (a Assignment) Apply(src, dst geom.Point) (geom.Point, geom.Point) {
	if a.SelfLoop() || a.Offset == 0 {
		return src, dst
	}
	from, to := src, dst
	if a.Reversed {
		from, to = dst, src
	}
	return Shift(src, dst, from, to, a.Offset)
}

// Shift moves src and dst by offset along the normal of from→to.
func Shift(src, dst, from, to geom.Point, offset float64) (geom.Point, geom.Point) {
	n := geom.Perpendicular(from, to)
	if n == (geom.Point{}) || !geom.IsFinite(offset) {
		return src, dst
	}
	d := n.Scale(offset)
	return src.Add(d), dst.Add(d)
}
