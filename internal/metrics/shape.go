package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"droplet-analyzer/internal/roi"
	"droplet-analyzer/pkg/geometry"
)

const (
	// Below this absolute eigenvalue the pixel set has no measurable
	// extent (all points coincide up to float noise).
	eigenFloor = 1e-12
	// Below this eigenvalue ratio the pixel set is collinear and the
	// minor axis is undefined.
	collinearRatio = 1e-9
)

// eccentricity returns sqrt(lambda_min / lambda_max) of the 2x2 covariance
// matrix of the pixel coordinates, or nil when the shape is degenerate.
// A perfect disk scores 1.0; elongated shapes trend toward 0.
func eccentricity(xs, ys []float64) *float64 {
	if len(xs) < 2 {
		return nil
	}

	cov := mat.NewSymDense(2, []float64{
		stat.Variance(xs, nil), stat.Covariance(xs, ys, nil),
		stat.Covariance(xs, ys, nil), stat.Variance(ys, nil),
	})

	var eig mat.EigenSym
	if !eig.Factorize(cov, false) {
		return nil
	}
	vals := eig.Values(nil)
	lmin, lmax := vals[0], vals[1]
	if lmax <= eigenFloor || lmin/lmax < collinearRatio {
		return nil
	}

	e := math.Sqrt(lmin / lmax)
	return &e
}

// boundaryCount counts foreground pixels with at least one 4-neighbor
// outside the foreground. This serves as the perimeter estimate in pixels.
func boundaryCount(fg *roi.Bitmap) int {
	count := 0
	fg.ForEach(func(x, y int) {
		if !fg.At(x+1, y) || !fg.At(x-1, y) || !fg.At(x, y+1) || !fg.At(x, y-1) {
			count++
		}
	})
	return count
}

// circularity is 4*pi*area / perimeter^2, clamped to 1.0 since pixelated
// boundaries can overshoot the analytic bound slightly.
func circularity(area, perimeter int) *float64 {
	if perimeter <= 0 {
		return nil
	}
	c := 4 * math.Pi * float64(area) / float64(perimeter*perimeter)
	if c > 1 {
		c = 1
	}
	return &c
}

// convexity is the ratio of the pixel area to the area of the convex hull
// of the pixel centers, clamped to 1.0. Nil when the hull is degenerate.
func convexity(points []geometry.Point2D, area int) *float64 {
	if len(points) < 3 {
		return nil
	}
	hull := geometry.ConvexHull(points)
	hullArea := geometry.PolygonArea(hull)
	if hullArea <= 0 {
		return nil
	}
	c := float64(area) / hullArea
	if c > 1 {
		c = 1
	}
	return &c
}
