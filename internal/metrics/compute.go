package metrics

import (
	"image"

	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/internal/roi"
	"droplet-analyzer/pkg/geometry"
)

// Options select which descriptor families Compute evaluates. Area is
// always computed.
type Options struct {
	Intensity bool
	Shape     bool
	Halo      bool

	// HaloBandRadius is the halo search distance in pixels.
	HaloBandRadius int
}

// DefaultOptions enables every descriptor family.
func DefaultOptions() Options {
	return Options{
		Intensity:      true,
		Shape:          true,
		Halo:           true,
		HaloBandRadius: 4,
	}
}

func (o Options) withDefaults() Options {
	if o.HaloBandRadius <= 0 {
		o.HaloBandRadius = DefaultOptions().HaloBandRadius
	}
	return o
}

// Compute evaluates the selected descriptors for one region. img supplies
// intensities, mask is the resolved ROI, fg the segmented foreground
// (a subset of mask), and scale the physical edge length of one pixel in
// millimeters, zero when the session is uncalibrated.
//
// On an empty foreground Compute still returns a usable record (area zero,
// empty halo) together with an EmptyMetric error, so the caller can report
// the region as unmeasurable instead of dropping it.
func Compute(label string, img *image.Gray, mask, fg *roi.Bitmap, scale float64, opts Options) (*MetricRecord, error) {
	opts = opts.withDefaults()

	var (
		points []geometry.Point2D
		values []float64
	)
	fg.ForEach(func(x, y int) {
		if !mask.At(x, y) {
			return
		}
		points = append(points, geometry.NewPoint2D(float64(x), float64(y)))
		values = append(values, float64(img.GrayAt(x, y).Y))
	})
	n := len(points)

	rec := &MetricRecord{Label: label, PixelArea: n}
	if scale > 0 {
		area := float64(n) * scale * scale
		rec.PhysicalAreaMM2 = &area
	}

	if opts.Halo {
		halo := haloBitmap(mask, fg, opts.HaloBandRadius)
		hs := &HaloStats{PixelCount: halo.Count()}
		hxs, hys := coords(halo)
		hs.Eccentricity = eccentricity(hxs, hys)
		rec.Halo = hs
	}

	if n == 0 {
		if opts.Intensity || opts.Shape {
			return rec, apperrors.EmptyMetric("no foreground pixels under mask")
		}
		return rec, nil
	}

	if opts.Intensity {
		rec.Intensity = intensityStats(values)
	}

	if opts.Shape {
		xs := make([]float64, n)
		ys := make([]float64, n)
		for i, p := range points {
			xs[i] = p.X
			ys[i] = p.Y
		}
		rec.Eccentricity = eccentricity(xs, ys)

		per := boundaryCount(fg)
		rec.PerimeterPx = &per
		rec.Circularity = circularity(n, per)
		rec.Convexity = convexity(points, n)
	}

	return rec, nil
}

func coords(b *roi.Bitmap) ([]float64, []float64) {
	xs := make([]float64, 0, b.Count())
	ys := make([]float64, 0, b.Count())
	b.ForEach(func(x, y int) {
		xs = append(xs, float64(x))
		ys = append(ys, float64(y))
	})
	return xs, ys
}
