// Package segment separates droplet foreground from background inside a
// masked region using a per-pixel, background-adaptive threshold.
//
// The convention, fixed so results are reproducible bit for bit:
//
//  1. A provisional cut at (masked mean - offset) splits the region into
//     provisional ink and background.
//  2. Each pixel is then compared against the mean of the provisional
//     background pixels in a window around it, again minus the offset.
//     Windows that contain no background sample expand (doubling radius)
//     until one does, falling back to the global background mean.
//
// Ink is dark on a light scan, so foreground means "darker than the local
// background estimate by more than the offset". The threshold therefore
// follows gradual illumination drift across the scan instead of applying
// one global cutoff, while interiors of large droplets, where a plain
// local-mean window would see only ink, still segment correctly.
package segment

import (
	"image"

	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/internal/roi"
)

// Options tune the thresholder. Zero values are replaced by defaults.
type Options struct {
	// WindowRadius is the half-width of the local background window.
	WindowRadius int
	// Offset is how much darker than the background estimate a pixel
	// must be to count as ink, in intensity units.
	Offset float64
	// UniformEps is the variance floor below which the masked region is
	// treated as uniform and returned all-foreground.
	UniformEps float64
	// MinPixels is the smallest masked region worth segmenting.
	MinPixels int
}

// DefaultOptions returns the tuning used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		WindowRadius: 15,
		Offset:       10,
		UniformEps:   1.0,
		MinPixels:    4,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.WindowRadius < 1 {
		o.WindowRadius = def.WindowRadius
	}
	if o.Offset <= 0 {
		o.Offset = def.Offset
	}
	if o.UniformEps <= 0 {
		o.UniformEps = def.UniformEps
	}
	if o.MinPixels < 1 {
		o.MinPixels = def.MinPixels
	}
	return o
}

// Segment computes the foreground bitmap for the masked region of img.
// Pixels outside the mask are never foreground and never contribute to
// any window statistic. The result depends only on the inputs; repeated
// calls produce identical bitmaps.
func Segment(img *image.Gray, mask *roi.Bitmap, opts Options) (*roi.Bitmap, error) {
	opts = opts.withDefaults()

	n := mask.Count()
	if n < opts.MinPixels {
		return nil, apperrors.DegenerateRegion("masked region has %d pixels, need at least %d", n, opts.MinPixels)
	}

	// Masked population statistics.
	var sum, sumSq float64
	mask.ForEach(func(x, y int) {
		v := float64(img.GrayAt(x, y).Y)
		sum += v
		sumSq += v * v
	})
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean

	// A near-uniform region is all droplet rather than an arbitrary split
	// of scanner noise.
	if variance < opts.UniformEps {
		return mask.Clone(), nil
	}

	// Pass 1: provisional background from the global cut.
	cut := mean - opts.Offset
	bg := roi.NewBitmap(mask.Rect())
	var bgSum float64
	mask.ForEach(func(x, y int) {
		if v := float64(img.GrayAt(x, y).Y); v >= cut {
			bg.Set(x, y, true)
			bgSum += v
		}
	})
	globalBg := mean
	if bg.Count() > 0 {
		globalBg = bgSum / float64(bg.Count())
	}

	// Pass 2: per-pixel threshold from the local background field.
	integ := newMaskedIntegral(img, bg)
	rect := mask.Rect()
	maxRadius := rect.Dx()
	if rect.Dy() > maxRadius {
		maxRadius = rect.Dy()
	}

	fg := roi.NewBitmap(rect)
	mask.ForEach(func(x, y int) {
		v := float64(img.GrayAt(x, y).Y)

		bgMean := globalBg
		for r := opts.WindowRadius; ; r *= 2 {
			if s, c := integ.window(x-r, y-r, x+r, y+r); c > 0 {
				bgMean = s / float64(c)
				break
			}
			if r >= maxRadius {
				break
			}
		}

		if v < bgMean-opts.Offset {
			fg.Set(x, y, true)
		}
	})
	return fg, nil
}
