// Package geom is the geometry kernel shared by the interactive canvas
// adapter and the static exporter.
//
// Everything here is a pure function of its inputs. Degenerate or non-finite
// input never produces NaN output: each function documents the fallback it
// returns instead, so a single malformed node or edge cannot corrupt a whole
// canvas or export.
//
// The size table in [SizeFor] is the only place node dimensions are defined,
// and [NodeBounds] is the only place they are applied. The exporter draws
// those bounds directly; the browser gets them as a fixed inline box from
// [BoxCSS], with [StyleSheet] supplying only typography and padding.
package geom

import (
	"fmt"
	"math"
)

// Point is a coordinate in canvas space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p+q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Len returns the Euclidean length of p as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Finite reports whether both coordinates are finite numbers.
func (p Point) Finite() bool { return IsFinite(p.X) && IsFinite(p.Y) }

// String formats p the way SVG path data expects it.
func (p Point) String() string { return fmt.Sprintf("%s,%s", Num(p.X), Num(p.Y)) }

// Side is one of the four borders of a node, named as the canvas library
// names handle positions.
type Side string

// Sides.
const (
	Top    Side = "top"
	Right  Side = "right"
	Bottom Side = "bottom"
	Left   Side = "left"
)

// Normal returns the outward unit vector of the side.
func (s Side) Normal() Point {
	switch s {
	case Top:
		return Point{0, -1}
	case Bottom:
		return Point{0, 1}
	case Left:
		return Point{-1, 0}
	case Right:
		return Point{1, 0}
	}
	return Point{}
}

// Horizontal reports whether the side is left or right.
func (s Side) Horizontal() bool { return s == Left || s == Right }

// Rect is an axis-aligned box; X and Y are the top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of r.
func (r Rect) Center() Point { return Point{r.X + r.Width/2, r.Y + r.Height/2} }

// HalfSize returns half the width and half the height.
func (r Rect) HalfSize() (float64, float64) { return r.Width / 2, r.Height / 2 }

// Right returns the x coordinate of the right border.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom border.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Finite reports whether every field of r is finite.
func (r Rect) Finite() bool {
	return IsFinite(r.X) && IsFinite(r.Y) && IsFinite(r.Width) && IsFinite(r.Height)
}

// SidePoint returns the point on side s located at fraction t (0..1) along
// the side, measured left-to-right or top-to-bottom.
func (r Rect) SidePoint(s Side, t float64) Point {
	if !IsFinite(t) {
		t = 0.5
	}
	t = Clamp(t, 0, 1)
	switch s {
	case Top:
		return Point{r.X + r.Width*t, r.Y}
	case Bottom:
		return Point{r.X + r.Width*t, r.Bottom()}
	case Left:
		return Point{r.X, r.Y + r.Height*t}
	case Right:
		return Point{r.Right(), r.Y + r.Height*t}
	}
	return r.Center()
}

// Union returns the smallest rect containing r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.Right(), o.Right())
	maxY := math.Max(r.Bottom(), o.Bottom())
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Inset grows r by pad on every side (shrinks it when pad is negative).
func (r Rect) Inset(pad float64) Rect {
	return Rect{r.X - pad, r.Y - pad, r.Width + 2*pad, r.Height + 2*pad}
}

// IsFinite reports whether f is neither NaN nor infinite.
func IsFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, v)) }

// Num formats a coordinate with two decimals, trimming trailing zeros so
// identical geometry always serializes identically.
func Num(f float64) string {
	if f == 0 || math.Abs(f) < 0.005 {
		return "0"
	}
	s := fmt.Sprintf("%.2f", f)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
