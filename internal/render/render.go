// Package render produces the visual artifacts of a run: segmentation
// overlays on the scan and per-region intensity heatmaps.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"droplet-analyzer/internal/roi"
	"droplet-analyzer/pkg/colorutil"
)

// Item is one region to draw: the ROI outline plus, when the region
// produced them, its resolved mask and segmented foreground.
type Item struct {
	ROI        roi.ROI
	Mask       *roi.Bitmap
	Foreground *roi.Bitmap
}

// Overlay composites a run over the scan: grayscale base, segmented
// foreground tinted green, droplet outlines red, rulers yellow.
func Overlay(gray *image.Gray, items []Item) *image.RGBA {
	bounds := gray.Bounds()
	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			out.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}

	for _, it := range items {
		if it.Foreground == nil {
			continue
		}
		it.Foreground.ForEach(func(x, y int) {
			out.SetRGBA(x, y, colorutil.Tint(out.RGBAAt(x, y), colorutil.Green, 0.45))
		})
	}

	// Outlines go on top of the tinting.
	for _, it := range items {
		drawROI(out, it.ROI)
	}

	return out
}

// Heatmap renders the intensities around one mask: the mask's bounding
// box padded by pad pixels, min-max normalized and mapped through the
// viridis colormap. The returned image is re-origined at (0, 0).
func Heatmap(gray *image.Gray, mask *roi.Bitmap, pad int) *image.RGBA {
	r := mask.Rect()
	window := image.Rect(r.Min.X-pad, r.Min.Y-pad, r.Max.X+pad, r.Max.Y+pad).
		Intersect(gray.Bounds())

	lo, hi := uint8(255), uint8(0)
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}

	span := float64(hi) - float64(lo)
	out := image.NewRGBA(image.Rect(0, 0, window.Dx(), window.Dy()))
	for y := window.Min.Y; y < window.Max.Y; y++ {
		for x := window.Min.X; x < window.Max.X; x++ {
			t := 0.0
			if span > 0 {
				t = (float64(gray.GrayAt(x, y).Y) - float64(lo)) / span
			}
			out.SetRGBA(x-window.Min.X, y-window.Min.Y, colorutil.Viridis(t))
		}
	}
	return out
}

// WritePNG writes img to path.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}

func drawROI(img *image.RGBA, r roi.ROI) {
	switch r.Kind {
	case roi.KindPolygon:
		n := len(r.Points)
		for i := 0; i < n; i++ {
			a := r.Points[i]
			b := r.Points[(i+1)%n]
			drawLine(img,
				int(math.Round(a.X)), int(math.Round(a.Y)),
				int(math.Round(b.X)), int(math.Round(b.Y)),
				colorutil.Red)
		}

	case roi.KindCircle:
		if r.Center == nil {
			return
		}
		drawCircle(img,
			int(math.Round(r.Center.X)), int(math.Round(r.Center.Y)),
			int(math.Round(r.Radius)), colorutil.Red)

	case roi.KindRuler:
		if len(r.Points) != 2 {
			return
		}
		a, b := r.Points[0], r.Points[1]
		drawThickLine(img, a.X, a.Y, b.X, b.Y, 3, colorutil.Yellow)

		// End ticks mark the measured span.
		length := a.Distance(b)
		if length == 0 {
			return
		}
		px := -(b.Y - a.Y) / length
		py := (b.X - a.X) / length
		tick := colorutil.Darken(colorutil.Yellow, 0.25)
		for _, end := range []struct{ x, y float64 }{{a.X, a.Y}, {b.X, b.Y}} {
			drawLine(img,
				int(end.x-px*5), int(end.y-py*5),
				int(end.x+px*5), int(end.y+py*5), tick)
		}
	}
}

// drawLine draws a line using Bresenham's algorithm.
func drawLine(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	bounds := img.Bounds()
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)

	sx := -1
	if x1 < x2 {
		sx = 1
	}
	sy := -1
	if y1 < y2 {
		sy = 1
	}

	err := dx - dy
	for {
		if x1 >= bounds.Min.X && x1 < bounds.Max.X && y1 >= bounds.Min.Y && y1 < bounds.Max.Y {
			img.SetRGBA(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawCircle draws a circle outline using the midpoint algorithm.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	bounds := img.Bounds()
	setPixel := func(x, y int) {
		if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.SetRGBA(x, y, c)
		}
	}

	x := r
	y := 0
	err := 0
	for x >= y {
		setPixel(cx+x, cy+y)
		setPixel(cx+y, cy+x)
		setPixel(cx-y, cy+x)
		setPixel(cx-x, cy+y)
		setPixel(cx-x, cy-y)
		setPixel(cx-y, cy-x)
		setPixel(cx+y, cy-x)
		setPixel(cx+x, cy-y)

		y++
		if err <= 0 {
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawThickLine sweeps parallel Bresenham lines across the thickness.
func drawThickLine(img *image.RGBA, x1, y1, x2, y2 float64, thickness int, c color.RGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := math.Sqrt(dx*dx + dy*dy)
	if length == 0 {
		return
	}

	px := -dy / length
	py := dx / length

	halfThick := float64(thickness) / 2
	for t := -halfThick; t <= halfThick; t += 1.0 {
		drawLine(img,
			int(x1+px*t), int(y1+py*t),
			int(x2+px*t), int(y2+py*t), c)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
