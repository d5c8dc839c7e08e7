package geometry

import (
	"math"
	"sort"
)

// PointInPolygon tests if a point is strictly inside a polygon using
// even-odd ray casting. Points exactly on the boundary are not guaranteed
// to be reported as inside; use PointOnPolygonBoundary for those.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// PointOnSegment reports whether p lies on the closed segment a-b,
// within a small collinearity tolerance.
func PointOnSegment(p, a, b Point2D) bool {
	cross := crossProduct(a, b, p)
	if math.Abs(cross) > 1e-9*math.Max(1, a.Distance(b)) {
		return false
	}
	return p.X >= math.Min(a.X, b.X)-1e-9 && p.X <= math.Max(a.X, b.X)+1e-9 &&
		p.Y >= math.Min(a.Y, b.Y)-1e-9 && p.Y <= math.Max(a.Y, b.Y)+1e-9
}

// PointOnPolygonBoundary reports whether p lies on any edge of the polygon.
func PointOnPolygonBoundary(p Point2D, polygon []Point2D) bool {
	n := len(polygon)
	for i := 0; i < n; i++ {
		if PointOnSegment(p, polygon[i], polygon[(i+1)%n]) {
			return true
		}
	}
	return false
}

// SegmentsIntersect reports whether closed segments p1-p2 and p3-p4 share
// at least one point, including collinear overlap.
func SegmentsIntersect(p1, p2, p3, p4 Point2D) bool {
	d1 := crossProduct(p3, p4, p1)
	d2 := crossProduct(p3, p4, p2)
	d3 := crossProduct(p1, p2, p3)
	d4 := crossProduct(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Collinear touching or overlap
	if d1 == 0 && PointOnSegment(p1, p3, p4) {
		return true
	}
	if d2 == 0 && PointOnSegment(p2, p3, p4) {
		return true
	}
	if d3 == 0 && PointOnSegment(p3, p1, p2) {
		return true
	}
	if d4 == 0 && PointOnSegment(p4, p1, p2) {
		return true
	}
	return false
}

// PolygonIsSimple reports whether the closed path through the vertices is
// simple: no two non-adjacent edges intersect, and adjacent edges meet only
// at their shared vertex. Duplicate consecutive vertices are rejected.
func PolygonIsSimple(polygon []Point2D) bool {
	n := len(polygon)
	if n < 3 {
		return false
	}

	for i := 0; i < n; i++ {
		if polygon[i] == polygon[(i+1)%n] {
			return false
		}
	}

	// A fully collinear ring has no interior; its edges overlap each other
	// even though every pair shares a vertex and escapes the check below.
	if PolygonArea(polygon) == 0 {
		return false
	}

	for i := 0; i < n; i++ {
		a1 := polygon[i]
		a2 := polygon[(i+1)%n]
		for j := i + 1; j < n; j++ {
			// Skip the edge itself and edges sharing a vertex with it;
			// those legitimately touch at the shared endpoint.
			if j == i || (j+1)%n == i || (i+1)%n == j {
				continue
			}
			if SegmentsIntersect(a1, a2, polygon[j], polygon[(j+1)%n]) {
				return false
			}
		}
	}
	return true
}

// PolygonArea returns the unsigned area of the polygon via the shoelace
// formula. Vertex order does not matter.
func PolygonArea(polygon []Point2D) float64 {
	n := len(polygon)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += polygon[i].X*polygon[j].Y - polygon[j].X*polygon[i].Y
	}
	return math.Abs(sum) / 2
}

// ConvexHull computes the convex hull of a set of points using the monotone
// chain algorithm. Returns the hull vertices in counter-clockwise order
// without the closing point. Collinear input collapses to its extremes.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		out := make([]Point2D, len(points))
		copy(out, points)
		return out
	}

	pts := make([]Point2D, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	// Lower hull
	var lower []Point2D
	for _, p := range pts {
		for len(lower) >= 2 && crossProduct(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	// Upper hull
	var upper []Point2D
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && crossProduct(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// Concatenate, dropping the duplicated endpoints.
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	return hull
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
