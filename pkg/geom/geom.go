// Package geom provides the 2D primitives used by the layout engine:
// points, axis-aligned rectangles, and segment intersection tests.
//
// All functions are pure and deterministic. Degenerate inputs (zero-length
// segments, empty rectangles) are handled explicitly rather than producing
// NaN or dividing by zero, because the collision solver feeds this package
// with whatever geometry the current iteration happens to contain.
package geom

import "math"

// Point is a position in the diagram plane. Y grows downward, matching the
// screen coordinate convention used by the rest of the engine.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Len returns the Euclidean length of p treated as a vector.
func (p Point) Len() float64 { return math.Hypot(p.X, p.Y) }

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 { return p.Sub(q).Len() }

// Normalize returns the unit vector in the direction of p. A zero vector
// falls back to a unit vector pointing down, so callers pushing nodes apart
// always receive a usable direction.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return Point{0, 1}
	}
	return Point{p.X / l, p.Y / l}
}

// Rect is an axis-aligned rectangle identified by its top-left corner.
type Rect struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// RectAt builds a Rect from a top-left corner and a size.
func RectAt(pos Point, w, h float64) Rect { return Rect{pos.X, pos.Y, w, h} }

// Center returns the rectangle's center point.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Area returns the rectangle's area.
func (r Rect) Area() float64 { return r.W * r.H }

// Contains reports whether p lies inside or on the boundary of r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// ContainsRect reports whether s lies fully inside r.
func (r Rect) ContainsRect(s Rect) bool {
	return s.X >= r.X && s.Y >= r.Y && s.MaxX() <= r.MaxX() && s.MaxY() <= r.MaxY()
}

// Overlaps reports whether r and s share any interior area. Rectangles that
// merely touch along an edge do not overlap.
func (r Rect) Overlaps(s Rect) bool {
	return r.X < s.MaxX() && s.X < r.MaxX() && r.Y < s.MaxY() && s.Y < r.MaxY()
}

// Intersection returns the overlapping region of r and s. The second return
// value is false when the rectangles do not overlap.
func (r Rect) Intersection(s Rect) (Rect, bool) {
	x1 := math.Max(r.X, s.X)
	y1 := math.Max(r.Y, s.Y)
	x2 := math.Min(r.MaxX(), s.MaxX())
	y2 := math.Min(r.MaxY(), s.MaxY())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}, false
	}
	return Rect{x1, y1, x2 - x1, y2 - y1}, true
}

// Union returns the smallest rectangle covering both r and s.
func (r Rect) Union(s Rect) Rect {
	x1 := math.Min(r.X, s.X)
	y1 := math.Min(r.Y, s.Y)
	x2 := math.Max(r.MaxX(), s.MaxX())
	y2 := math.Max(r.MaxY(), s.MaxY())
	return Rect{x1, y1, x2 - x1, y2 - y1}
}

// Inset returns r shrunk by d on every side. A negative d grows the
// rectangle. The result may have negative width or height if d exceeds half
// the rectangle's extent; callers that care should check before using it.
func (r Rect) Inset(d float64) Rect {
	return Rect{r.X + d, r.Y + d, r.W - 2*d, r.H - 2*d}
}

// OverlapRatio returns the fraction of r's own area covered by s, in [0,1].
// Returns 0 for a degenerate r with no area. This is the membership test the
// frame registry applies when deciding which nodes a frame originally owns.
func (r Rect) OverlapRatio(s Rect) float64 {
	if r.Area() <= 0 {
		return 0
	}
	inter, ok := r.Intersection(s)
	if !ok {
		return 0
	}
	return inter.Area() / r.Area()
}

// Anchor identifies one of the four fixed connection points on a node's
// bounding box where an edge may attach. The zero value "" means unassigned.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorRight  Anchor = "right"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
)

// Anchors lists all four anchors in a fixed enumeration order, which keeps
// handle assignment deterministic.
var Anchors = [4]Anchor{AnchorTop, AnchorRight, AnchorBottom, AnchorLeft}

// Valid reports whether a names one of the four anchors.
func (a Anchor) Valid() bool {
	switch a {
	case AnchorTop, AnchorRight, AnchorBottom, AnchorLeft:
		return true
	}
	return false
}

// Opposite returns the anchor on the opposite side.
func (a Anchor) Opposite() Anchor {
	switch a {
	case AnchorTop:
		return AnchorBottom
	case AnchorRight:
		return AnchorLeft
	case AnchorBottom:
		return AnchorTop
	default:
		return AnchorRight
	}
}

// AnchorPoint returns the midpoint of the rectangle side the anchor names.
func AnchorPoint(r Rect, a Anchor) Point {
	switch a {
	case AnchorTop:
		return Point{r.X + r.W/2, r.Y}
	case AnchorRight:
		return Point{r.MaxX(), r.Y + r.H/2}
	case AnchorBottom:
		return Point{r.X + r.W/2, r.MaxY()}
	default:
		return Point{r.X, r.Y + r.H/2}
	}
}

// orientation classifies the turn formed by the ordered triple (a, b, c):
// positive for counter-clockwise, negative for clockwise, zero for collinear.
func orientation(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

// onSegment reports whether collinear point p lies on segment ab.
func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}

// SegmentsIntersect reports whether segments a1a2 and b1b2 intersect,
// including collinear overlap and shared endpoints. This is the standard
// counter-clockwise orientation test.
func SegmentsIntersect(a1, a2, b1, b2 Point) bool {
	d1 := orientation(b1, b2, a1)
	d2 := orientation(b1, b2, a2)
	d3 := orientation(a1, a2, b1)
	d4 := orientation(a1, a2, b2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(b1, b2, a1):
		return true
	case d2 == 0 && onSegment(b1, b2, a2):
		return true
	case d3 == 0 && onSegment(a1, a2, b1):
		return true
	case d4 == 0 && onSegment(a1, a2, b2):
		return true
	}
	return false
}

// SegmentIntersectsRect reports whether segment p1p2 touches rectangle r.
// A segment fully inside the rectangle counts as intersecting.
func SegmentIntersectsRect(p1, p2 Point, r Rect) bool {
	if r.Contains(p1) || r.Contains(p2) {
		return true
	}
	tl := Point{r.X, r.Y}
	tr := Point{r.MaxX(), r.Y}
	br := Point{r.MaxX(), r.MaxY()}
	bl := Point{r.X, r.MaxY()}
	return SegmentsIntersect(p1, p2, tl, tr) ||
		SegmentsIntersect(p1, p2, tr, br) ||
		SegmentsIntersect(p1, p2, br, bl) ||
		SegmentsIntersect(p1, p2, bl, tl)
}

// ClosestPointOnSegment returns the point on segment p1p2 nearest to q.
// For a zero-length segment it returns p1.
func ClosestPointOnSegment(p1, p2, q Point) Point {
	d := p2.Sub(p1)
	lenSq := d.X*d.X + d.Y*d.Y
	if lenSq == 0 {
		return p1
	}
	t := ((q.X-p1.X)*d.X + (q.Y-p1.Y)*d.Y) / lenSq
	t = math.Max(0, math.Min(1, t))
	return Point{p1.X + t*d.X, p1.Y + t*d.Y}
}

// DistanceSegmentToRect returns the distance between segment p1p2 and the
// boundary of rectangle r, measured from the segment point nearest to the
// rectangle's center. Returns 0 when the segment crosses the rectangle.
func DistanceSegmentToRect(p1, p2 Point, r Rect) float64 {
	if SegmentIntersectsRect(p1, p2, r) {
		return 0
	}
	closest := ClosestPointOnSegment(p1, p2, r.Center())

	// Distance from a point outside the rect to the rect boundary.
	dx := math.Max(math.Max(r.X-closest.X, 0), closest.X-r.MaxX())
	dy := math.Max(math.Max(r.Y-closest.Y, 0), closest.Y-r.MaxY())
	return math.Hypot(dx, dy)
}

// PerpendicularAway returns a unit vector perpendicular to segment p1p2
// pointing toward the side on which q lies. For a degenerate segment it
// returns the normalized direction from the segment start to q, so callers
// never receive a zero push direction.
func PerpendicularAway(p1, p2, q Point) Point {
	d := p2.Sub(p1)
	if d.Len() == 0 {
		return q.Sub(p1).Normalize()
	}
	n := Point{-d.Y, d.X}.Normalize()
	// Flip toward q's side of the line.
	if (q.X-p1.X)*n.X+(q.Y-p1.Y)*n.Y < 0 {
		n = n.Scale(-1)
	}
	return n
}
