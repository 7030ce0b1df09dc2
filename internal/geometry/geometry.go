// Package geometry holds the 2D joint math used by the posture engine.
// Coordinates are image pixels, so y grows downward.
package geometry

import "math"

// degenerateLength is the vector length below which an angle is undefined.
const degenerateLength = 1e-10

// Point is a 2D image coordinate.
type Point struct {
	X float64
	Y float64
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// InteriorAngle returns the angle at vertex b formed by the segments b->a and b->c,
// in degrees within [0,180]. ok is false when either segment has zero length.
func InteriorAngle(a, b, c Point) (deg float64, ok bool) {
	bax, bay := a.X-b.X, a.Y-b.Y
	bcx, bcy := c.X-b.X, c.Y-b.Y

	magBA := math.Hypot(bax, bay)
	magBC := math.Hypot(bcx, bcy)
	if magBA < degenerateLength || magBC < degenerateLength {
		return 0, false
	}

	cos := (bax*bcx + bay*bcy) / (magBA * magBC)
	// Clamp to guard acos against floating point drift
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi, true
}

// InteriorAngleAtan2 computes the same angle as InteriorAngle from the two segment
// headings, folding the signed difference into [0,180].
func InteriorAngleAtan2(a, b, c Point) (deg float64, ok bool) {
	if Distance(a, b) < degenerateLength || Distance(c, b) < degenerateLength {
		return 0, false
	}

	h1 := math.Atan2(a.Y-b.Y, a.X-b.X)
	h2 := math.Atan2(c.Y-b.Y, c.X-b.X)
	angle := (h2 - h1) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle = 360 - angle
	}
	return angle, true
}

// VerticalDeviation returns the signed angle in degrees between the segment
// bottom->top and image-vertical. Zero means top sits straight above bottom,
// positive means top is shifted toward +x.
func VerticalDeviation(top, bottom Point) float64 {
	return math.Atan2(top.X-bottom.X, bottom.Y-top.Y) * 180 / math.Pi
}

// Clamp bounds v to [lo, hi]. NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
