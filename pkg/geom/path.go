package geom

import (
	"fmt"
	"math"
	"strings"
)

// PathType selects the curve family used to draw an edge.
type PathType string

// Path types.
const (
	PathBezier     PathType = "bezier"
	PathSmoothStep PathType = "smoothstep"
	PathStraight   PathType = "straight"
)

// ParsePathType maps a persisted string to a PathType; anything unknown is
// drawn as a bezier.
func ParsePathType(s string) PathType {
	switch PathType(strings.ToLower(strings.TrimSpace(s))) {
	case PathSmoothStep, "smooth-step", "step":
		return PathSmoothStep
	case PathStraight:
		return PathStraight
	}
	return PathBezier
}

// Path is an SVG path plus the point its label is centered on.
type Path struct {
	D     string `json:"d"`
	Label Point  `json:"label"`
}

// Curvature of bezier edges when the control point would otherwise point
// backwards.
const Curvature = 0.25

// StepGap is the straight stub a smooth step leaves each handle with.
const StepGap = 20.0

// StepRadius is the corner radius of smooth step bends.
const StepRadius = 5.0

// Build dispatches to the builder for t.
func Build(t PathType, src Point, srcSide Side, dst Point, dstSide Side) Path {
	switch t {
	case PathSmoothStep:
		return SmoothStepPath(src, srcSide, dst, dstSide)
	case PathStraight:
		return StraightPath(src, dst)
	}
	return BezierPath(src, srcSide, dst, dstSide)
}

// BezierPath is a cubic curve leaving src perpendicular to srcSide and
// entering dst perpendicular to dstSide.
func BezierPath(src Point, srcSide Side, dst Point, dstSide Side) Path {
	c1 := bezierControl(srcSide, src, dst)
	c2 := bezierControl(dstSide, dst, src)
	return Path{
		D:     fmt.Sprintf("M%s C%s %s %s", src, c1, c2, dst),
		Label: cubicAt(src, c1, c2, dst, 0.5),
	}
}

func controlOffset(distance float64) float64 {
	if distance >= 0 {
		return 0.5 * distance
	}
	return Curvature * 25 * math.Sqrt(-distance)
}

func bezierControl(side Side, from, to Point) Point {
	switch side {
	case Left:
		return Point{from.X - controlOffset(from.X-to.X), from.Y}
	case Right:
		return Point{from.X + controlOffset(to.X-from.X), from.Y}
	case Top:
		return Point{from.X, from.Y - controlOffset(from.Y-to.Y)}
	default:
		return Point{from.X, from.Y + controlOffset(to.Y-from.Y)}
	}
}

func cubicAt(p0, p1, p2, p3 Point, t float64) Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return Point{
		a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

// StraightPath is a single line segment.
func StraightPath(src, dst Point) Path {
	return Path{
		D:     fmt.Sprintf("M%s L%s", src, dst),
		Label: src.Add(dst).Scale(0.5),
	}
}

// SmoothStepPath routes an orthogonal polyline out of srcSide and into
// dstSide, with StepGap stubs at both ends and rounded bends.
func SmoothStepPath(src Point, srcSide Side, dst Point, dstSide Side) Path {
	s := src.Add(srcSide.Normal().Scale(StepGap))
	t := dst.Add(dstSide.Normal().Scale(StepGap))

	var m1, m2 Point
	if srcSide.Horizontal() {
		mx := (s.X + t.X) / 2
		m1, m2 = Point{mx, s.Y}, Point{mx, t.Y}
	} else {
		my := (s.Y + t.Y) / 2
		m1, m2 = Point{s.X, my}, Point{t.X, my}
	}
	pts := dedupe([]Point{src, s, m1, m2, t, dst})

	var b strings.Builder
	fmt.Fprintf(&b, "M%s", pts[0])
	for i := 1; i < len(pts)-1; i++ {
		prev, cur, next := pts[i-1], pts[i], pts[i+1]
		if collinear(prev, cur, next) {
			continue
		}
		r := math.Min(StepRadius, math.Min(cur.Sub(prev).Len(), next.Sub(cur).Len())/2)
		in := towards(cur, prev, r)
		out := towards(cur, next, r)
		fmt.Fprintf(&b, " L%s Q%s %s", in, cur, out)
	}
	fmt.Fprintf(&b, " L%s", pts[len(pts)-1])

	return Path{D: b.String(), Label: m1.Add(m2).Scale(0.5)}
}

// towards returns the point at distance d from a in the direction of b.
func towards(a, b Point, d float64) Point {
	v := b.Sub(a)
	l := v.Len()
	if l == 0 {
		return a
	}
	return a.Add(v.Scale(d / l))
}

func collinear(a, b, c Point) bool {
	return (a.X == b.X && b.X == c.X) || (a.Y == b.Y && b.Y == c.Y)
}

func dedupe(pts []Point) []Point {
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// Self-loop shape parameters.
const (
	LoopBaseOffset = 25.0
	LoopSpacing    = 18.0
	LoopPortOffset = 0.35
)

// SelfLoopPath draws a loop leaving and re-entering the right border of r.
// index separates several loops on the same node.
func SelfLoopPath(r Rect, index int) Path {
	hw, hh := r.HalfSize()
	c := r.Center()
	offset := LoopBaseOffset + float64(max(index, 0))*LoopSpacing
	dx := hw + offset
	portY := hh * LoopPortOffset
	spread := hh * 0.5

	p0 := Point{c.X + hw, c.Y - portY}
	p1 := Point{c.X + hw + dx*0.4, c.Y - portY - spread}
	p2 := Point{c.X + dx, c.Y - spread}
	p3 := Point{c.X + dx, c.Y}
	p4 := Point{c.X + dx, c.Y + spread}
	p5 := Point{c.X + hw + dx*0.4, c.Y + portY + spread}
	p6 := Point{c.X + hw, c.Y + portY}

	return Path{
		D:     fmt.Sprintf("M%s C%s %s %s C%s %s %s", p0, p1, p2, p3, p4, p5, p6),
		Label: Point{p3.X + 6, p3.Y},
	}
}
