package roi

import (
	"image"
	"math"

	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/pkg/geometry"
)

// Resolve rasterizes a measurable ROI into a binary mask clipped to the
// image bounds, and returns the physical scale (mm per pixel, 0 when
// uncalibrated) that applies to it. Pixel (x, y) is sampled at the lattice
// point (x, y) in the same coordinate space as the ROI definition, so the
// mask is invariant under reversal of polygon vertex order.
//
// Rulers carry no mask; resolve them with RulerScale instead.
func Resolve(bounds image.Rectangle, r ROI, cal Calibration) (*Bitmap, float64, error) {
	var mask *Bitmap

	switch r.Kind {
	case KindPolygon:
		if len(r.Points) < 3 {
			return nil, 0, apperrors.InvalidGeometry("polygon has %d vertices, need at least 3", len(r.Points))
		}
		if !geometry.PolygonIsSimple(r.Points) {
			return nil, 0, apperrors.InvalidGeometry("polygon path is self-intersecting or degenerate")
		}
		mask = rasterizePolygon(bounds, r.Points)

	case KindCircle:
		if r.Center == nil {
			return nil, 0, apperrors.InvalidGeometry("circle has no center")
		}
		if r.Radius <= 0 {
			return nil, 0, apperrors.InvalidGeometry("circle radius %g is not positive", r.Radius)
		}
		mask = rasterizeCircle(bounds, *r.Center, r.Radius)

	case KindRuler:
		return nil, 0, apperrors.InvalidGeometry("ruler regions provide calibration, not masks")

	default:
		return nil, 0, apperrors.InvalidGeometry("unknown region kind %q", r.Kind)
	}

	if mask.Count() == 0 {
		return nil, 0, apperrors.OutOfBounds("region resolves to zero pixels inside %dx%d image", bounds.Dx(), bounds.Dy())
	}
	return mask, cal.MMPerPixel(), nil
}

// RulerScale derives a calibration from a ruler ROI: pixels per millimeter
// is the endpoint pixel distance divided by the declared real length.
func RulerScale(r ROI) (Calibration, error) {
	if r.Kind != KindRuler {
		return Calibration{}, apperrors.InvalidGeometry("region kind %q is not a ruler", r.Kind)
	}
	if len(r.Points) != 2 {
		return Calibration{}, apperrors.InvalidGeometry("ruler has %d endpoints, need exactly 2", len(r.Points))
	}
	if r.LengthMM <= 0 {
		return Calibration{}, apperrors.InvalidGeometry("ruler declared length %g mm is not positive", r.LengthMM)
	}
	d := r.Points[0].Distance(r.Points[1])
	if d == 0 {
		return Calibration{}, apperrors.InvalidGeometry("ruler endpoints coincide")
	}
	return Calibration{PxPerMM: d / r.LengthMM}, nil
}

// rasterizePolygon marks every lattice point strictly inside the polygon
// or on its boundary. Both predicates are symmetric in vertex order.
func rasterizePolygon(bounds image.Rectangle, pts []geometry.Point2D) *Bitmap {
	window := clipWindow(bounds, geometry.BoundingBox(pts))
	mask := NewBitmap(window)

	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			p := geometry.Point2D{X: float64(x), Y: float64(y)}
			if geometry.PointInPolygon(p, pts) || geometry.PointOnPolygonBoundary(p, pts) {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

// rasterizeCircle marks every lattice point within Euclidean distance
// radius of the center, boundary inclusive.
func rasterizeCircle(bounds image.Rectangle, center geometry.Point2D, radius float64) *Bitmap {
	box := geometry.Rect{
		X:      center.X - radius,
		Y:      center.Y - radius,
		Width:  2 * radius,
		Height: 2 * radius,
	}
	window := clipWindow(bounds, box)
	mask := NewBitmap(window)

	r2 := radius * radius
	for y := window.Min.Y; y < window.Max.Y; y++ {
		dy := float64(y) - center.Y
		for x := window.Min.X; x < window.Max.X; x++ {
			dx := float64(x) - center.X
			if dx*dx+dy*dy <= r2 {
				mask.Set(x, y, true)
			}
		}
	}
	return mask
}

// clipWindow converts a float bounding box to the smallest integer
// rectangle containing every lattice point in it, clipped to the image.
func clipWindow(bounds image.Rectangle, box geometry.Rect) image.Rectangle {
	window := image.Rect(
		int(math.Ceil(box.X)),
		int(math.Ceil(box.Y)),
		int(math.Floor(box.X+box.Width))+1,
		int(math.Floor(box.Y+box.Height))+1,
	)
	return window.Intersect(bounds)
}
