package geom

import "math"

// RectIntersection returns the point where the ray from center toward target
// crosses the border of the rectangle with the given half extents.
//
// The rectangle's center is returned unchanged when target coincides with
// center, when either half extent is not positive, or when any input is not
// finite.
func RectIntersection(center Point, halfWidth, halfHeight float64, target Point) Point {
	if !center.Finite() || !target.Finite() || !IsFinite(halfWidth) || !IsFinite(halfHeight) {
		return center
	}
	if halfWidth <= 0 || halfHeight <= 0 {
		return center
	}
	d := target.Sub(center)
	if d.X == 0 && d.Y == 0 {
		return center
	}
	// Scale d so the larger normalized component reaches the border.
	k := 1 / math.Max(math.Abs(d.X)/halfWidth, math.Abs(d.Y)/halfHeight)
	return center.Add(d.Scale(k))
}

// BorderPoint is RectIntersection expressed on a Rect.
func BorderPoint(r Rect, toward Point) Point {
	hw, hh := r.HalfSize()
	return RectIntersection(r.Center(), hw, hh, toward)
}

// FacingSides picks the side of a that most directly faces b and the side of
// b facing back. The dominant axis of the center delta decides; ties go to
// the horizontal axis. Coincident centers fall back to Bottom/Top.
func FacingSides(a, b Point) (Side, Side) {
	d := b.Sub(a)
	if !d.Finite() || (d.X == 0 && d.Y == 0) {
		return Bottom, Top
	}
	if math.Abs(d.X) >= math.Abs(d.Y) {
		if d.X > 0 {
			return Right, Left
		}
		return Left, Right
	}
	if d.Y > 0 {
		return Bottom, Top
	}
	return Top, Bottom
}

// BorderSide names the side of r that the ray from its center toward p
// leaves through, the same side BorderPoint lands on. Height and width are
// normalized first, so a wide card reached at a shallow angle reports Bottom
// or Top. Ties go to the horizontal axis. Rectangles without area fall back
// to FacingSides on the raw delta.
func BorderSide(r Rect, toward Point) Side {
	c := r.Center()
	hw, hh := r.HalfSize()
	if !IsFinite(hw) || !IsFinite(hh) || hw <= 0 || hh <= 0 {
		s, _ := FacingSides(c, toward)
		return s
	}
	d := toward.Sub(c)
	if !d.Finite() || (d.X == 0 && d.Y == 0) {
		return Bottom
	}
	if math.Abs(d.X)/hw >= math.Abs(d.Y)/hh {
		if d.X > 0 {
			return Right
		}
		return Left
	}
	if d.Y > 0 {
		return Bottom
	}
	return Top
}

// Perpendicular returns the unit normal to the direction from a to b, rotated
// 90° counter-clockwise in screen coordinates. A zero vector is returned for
// zero-length or non-finite directions.
func Perpendicular(a, b Point) Point {
	d := b.Sub(a)
	l := d.Len()
	if !IsFinite(l) || l == 0 {
		return Point{}
	}
	return Point{-d.Y / l, d.X / l}
}
