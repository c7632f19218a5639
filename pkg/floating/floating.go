// Package floating computes the endpoints of edges that are not pinned to
// an anchor handle. Each endpoint sits where the line between the two node
// centers leaves the node's border and reports the side it leaves through.
package floating

import (
	"github.com/matzehuels/docmap/pkg/geom"
)

// Result is a resolved floating endpoint pair.
type Result struct {
	SX        float64   `json:"sx"`
	SY        float64   `json:"sy"`
	TX        float64   `json:"tx"`
	TY        float64   `json:"ty"`
	SourcePos geom.Side `json:"sourcePos"`
	TargetPos geom.Side `json:"targetPos"`
}

// Source returns the source endpoint.
func (r Result) Source() geom.Point { return geom.Point{X: r.SX, Y: r.SY} }

// Target returns the target endpoint.
func (r Result) Target() geom.Point { return geom.Point{X: r.TX, Y: r.TY} }

// Mirror swaps the roles of source and target.
func (r Result) Mirror() Result {
	return Result{SX: r.TX, SY: r.TY, TX: r.SX, TY: r.SY, SourcePos: r.TargetPos, TargetPos: r.SourcePos}
}

// Params resolves the endpoints between two node bounds. Each side is the
// border the endpoint actually sits on, so the two sides need not be
// opposite when the nodes differ in shape. Swapping source and target
// mirrors the result, except for coincident centers, which degrade to the
// centers themselves on Bottom/Top in both orders.
func Params(source, target geom.Rect) Result {
	sc, tc := source.Center(), target.Center()
	if sc == tc {
		return Result{SX: sc.X, SY: sc.Y, TX: tc.X, TY: tc.Y, SourcePos: geom.Bottom, TargetPos: geom.Top}
	}
	s := geom.BorderPoint(source, tc)
	t := geom.BorderPoint(target, sc)
	return Result{
		SX: s.X, SY: s.Y, TX: t.X, TY: t.Y,
		SourcePos: geom.BorderSide(source, tc),
		TargetPos: geom.BorderSide(target, sc),
	}
}
