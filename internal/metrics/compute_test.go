package metrics

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/internal/roi"
	"droplet-analyzer/pkg/geometry"
)

func makeGray(w, h int, pattern func(x, y int) uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: pattern(x, y)})
		}
	}
	return img
}

func bitmapFrom(bounds image.Rectangle, keep func(x, y int) bool) *roi.Bitmap {
	b := roi.NewBitmap(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if keep(x, y) {
				b.Set(x, y, true)
			}
		}
	}
	return b
}

func insideDisk(x, y int, cx, cy, r float64) bool {
	dx := float64(x) - cx
	dy := float64(y) - cy
	return dx*dx+dy*dy <= r*r
}

// A rasterized disk of radius 50 must report an area within 1% of
// pi*r^2 and an eccentricity within 0.05 of 1.0.
func TestComputeDiskMetrics(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 200)
	mask := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 100, 100, 70) })
	fg := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 100, 100, 50) })
	img := makeGray(200, 200, func(x, y int) uint8 {
		if insideDisk(x, y, 100, 100, 50) {
			return 80
		}
		return 200
	})

	rec, err := Compute("1_5wtp_petro_01", img, mask, fg, 0.05, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	want := math.Pi * 50 * 50
	if rel := math.Abs(float64(rec.PixelArea)-want) / want; rel > 0.01 {
		t.Errorf("pixel area %d, want within 1%% of %.1f (rel %.4f)", rec.PixelArea, want, rel)
	}

	if rec.PhysicalAreaMM2 == nil {
		t.Fatal("physical area missing despite calibration")
	}
	wantMM2 := float64(rec.PixelArea) * 0.05 * 0.05
	if math.Abs(*rec.PhysicalAreaMM2-wantMM2) > 1e-9 {
		t.Errorf("physical area %.6f, want %.6f", *rec.PhysicalAreaMM2, wantMM2)
	}

	if rec.Intensity == nil {
		t.Fatal("intensity stats missing")
	}
	if rec.Intensity.Mean != 80 || rec.Intensity.Median != 80 || rec.Intensity.Std != 0 {
		t.Errorf("intensity = %+v, want mean/median 80 and std 0", *rec.Intensity)
	}

	if rec.Eccentricity == nil {
		t.Fatal("eccentricity missing for a disk")
	}
	if math.Abs(*rec.Eccentricity-1.0) > 0.05 {
		t.Errorf("eccentricity %.4f, want within 0.05 of 1.0", *rec.Eccentricity)
	}

	if rec.PerimeterPx == nil || *rec.PerimeterPx <= 0 {
		t.Fatal("perimeter missing or non-positive")
	}
	if rec.Circularity == nil || *rec.Circularity < 0.9 {
		t.Errorf("circularity = %v, want >= 0.9 for a disk", rec.Circularity)
	}
	if rec.Convexity == nil || *rec.Convexity < 0.95 {
		t.Errorf("convexity = %v, want >= 0.95 for a disk", rec.Convexity)
	}

	if rec.Halo == nil {
		t.Fatal("halo stats missing")
	}
	if rec.Halo.None() {
		t.Error("disk inside a larger mask should have a surrounding halo band")
	}
	if rec.Halo.Eccentricity == nil || math.Abs(*rec.Halo.Eccentricity-1.0) > 0.1 {
		t.Errorf("halo eccentricity = %v, want near 1.0 for a circular band", rec.Halo.Eccentricity)
	}
}

func ellipsePoints(cx, cy, a, b float64) ([]float64, []float64) {
	var xs, ys []float64
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			dx := (float64(x) - cx) / a
			dy := (float64(y) - cy) / b
			if dx*dx+dy*dy <= 1 {
				xs = append(xs, float64(x))
				ys = append(ys, float64(y))
			}
		}
	}
	return xs, ys
}

func TestEccentricityEllipseAxisRatio(t *testing.T) {
	xs, ys := ellipsePoints(100, 100, 40, 20)
	e := eccentricity(xs, ys)
	if e == nil {
		t.Fatal("eccentricity undefined for a filled ellipse")
	}
	if math.Abs(*e-0.5) > 0.02 {
		t.Errorf("eccentricity %.4f, want near 0.5 for a 2:1 ellipse", *e)
	}
}

func TestEccentricityTranslationInvariant(t *testing.T) {
	xs, ys := ellipsePoints(100, 100, 40, 20)
	base := eccentricity(xs, ys)

	tx := make([]float64, len(xs))
	ty := make([]float64, len(ys))
	for i := range xs {
		tx[i] = xs[i] + 37.5
		ty[i] = ys[i] - 12.25
	}
	moved := eccentricity(tx, ty)

	if base == nil || moved == nil {
		t.Fatal("eccentricity undefined")
	}
	if math.Abs(*base-*moved) > 1e-9 {
		t.Errorf("translation changed eccentricity: %.12f vs %.12f", *base, *moved)
	}
}

func TestEccentricityRotationInvariant(t *testing.T) {
	xs, ys := ellipsePoints(100, 100, 40, 20)
	base := eccentricity(xs, ys)

	rot := geometry.Rotation(math.Pi / 6)
	rx := make([]float64, len(xs))
	ry := make([]float64, len(ys))
	for i := range xs {
		p := rot.Apply(geometry.NewPoint2D(xs[i], ys[i]))
		rx[i] = p.X
		ry[i] = p.Y
	}
	rotated := eccentricity(rx, ry)

	if base == nil || rotated == nil {
		t.Fatal("eccentricity undefined")
	}
	if math.Abs(*base-*rotated) > 1e-9 {
		t.Errorf("rotation changed eccentricity: %.12f vs %.12f", *base, *rotated)
	}
}

func TestEccentricityDegenerate(t *testing.T) {
	tests := []struct {
		name   string
		xs, ys []float64
	}{
		{"SinglePixel", []float64{10}, []float64{10}},
		{"CoincidentPixels", []float64{10, 10}, []float64{10, 10}},
		{"TwoPixels", []float64{10, 11}, []float64{10, 10}},
		{"CollinearRun", lineXs(50), lineYs(50)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if e := eccentricity(tc.xs, tc.ys); e != nil {
				t.Errorf("eccentricity = %.6f, want undefined", *e)
			}
		})
	}
}

func lineXs(n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	return xs
}

func lineYs(n int) []float64 {
	ys := make([]float64, n)
	for i := range ys {
		ys[i] = 2 * float64(i)
	}
	return ys
}

// Zero foreground pixels: the record survives with area zero, statistics
// unavailable, and a measured empty halo, while the error reports
// EmptyMetric.
func TestComputeEmptyForeground(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	mask := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 50, 50, 30) })
	fg := roi.NewBitmap(bounds)
	img := makeGray(100, 100, func(x, y int) uint8 { return 200 })

	rec, err := Compute("3_25wtp_ipa_02", img, mask, fg, 0.05, DefaultOptions())
	if err == nil {
		t.Fatal("expected EmptyMetric error")
	}
	if !errors.Is(err, apperrors.ErrEmptyMetric) {
		t.Fatalf("error = %v, want EmptyMetric kind", err)
	}

	if rec == nil {
		t.Fatal("record must be returned alongside EmptyMetric")
	}
	if rec.PixelArea != 0 {
		t.Errorf("pixel area = %d, want 0", rec.PixelArea)
	}
	if rec.Intensity != nil || rec.Eccentricity != nil || rec.Circularity != nil {
		t.Error("statistics must be unavailable on an empty foreground")
	}
	if rec.Halo == nil || !rec.Halo.None() {
		t.Errorf("halo = %+v, want measured empty halo", rec.Halo)
	}
	if rec.PhysicalAreaMM2 == nil || *rec.PhysicalAreaMM2 != 0 {
		t.Errorf("physical area = %v, want 0 under calibration", rec.PhysicalAreaMM2)
	}
}

func TestComputePhysicalAreaScale(t *testing.T) {
	bounds := image.Rect(0, 0, 40, 40)
	mask := bitmapFrom(bounds, func(x, y int) bool { return true })
	fg := bitmapFrom(bounds, func(x, y int) bool {
		return x >= 10 && x < 20 && y >= 10 && y < 20
	})
	img := makeGray(40, 40, func(x, y int) uint8 { return 50 })

	t.Run("Calibrated", func(t *testing.T) {
		rec, err := Compute("sq", img, mask, fg, 0.05, Options{})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if rec.PixelArea != 100 {
			t.Fatalf("pixel area = %d, want 100", rec.PixelArea)
		}
		if rec.PhysicalAreaMM2 == nil || math.Abs(*rec.PhysicalAreaMM2-0.25) > 1e-12 {
			t.Errorf("physical area = %v, want 0.25", rec.PhysicalAreaMM2)
		}
	})

	t.Run("Uncalibrated", func(t *testing.T) {
		rec, err := Compute("sq", img, mask, fg, 0, Options{})
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if rec.PhysicalAreaMM2 != nil {
			t.Errorf("physical area = %v, want unavailable without calibration", *rec.PhysicalAreaMM2)
		}
	})
}

func TestComputeHaloBand(t *testing.T) {
	bounds := image.Rect(0, 0, 120, 120)
	mask := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 60, 60, 40) })
	fg := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 60, 60, 20) })

	halo := haloBitmap(mask, fg, 4)
	if halo.Count() == 0 {
		t.Fatal("expected a halo band around the droplet")
	}

	halo.ForEach(func(x, y int) {
		if fg.At(x, y) {
			t.Fatalf("halo pixel (%d,%d) overlaps foreground", x, y)
		}
		if !mask.At(x, y) {
			t.Fatalf("halo pixel (%d,%d) escapes the mask", x, y)
		}
	})

	if !halo.At(81, 60) {
		t.Error("pixel one step outside the droplet rim should be halo")
	}
	if halo.At(89, 60) {
		t.Error("pixel far outside the band radius should not be halo")
	}
}

// A droplet that fills its entire mask leaves no room for a halo, which
// is a measured no-halo outcome, not a failure.
func TestComputeHaloAbsentWhenForegroundFillsMask(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	mask := bitmapFrom(bounds, func(x, y int) bool { return insideDisk(x, y, 50, 50, 30) })
	img := makeGray(100, 100, func(x, y int) uint8 { return 60 })

	rec, err := Compute("4_sharpie_01", img, mask, mask.Clone(), 0, DefaultOptions())
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.Halo == nil {
		t.Fatal("halo stats missing")
	}
	if !rec.Halo.None() {
		t.Errorf("halo count = %d, want 0 when foreground fills the mask", rec.Halo.PixelCount)
	}
}

func TestComputeConvexityConcaveShape(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 100)
	mask := bitmapFrom(bounds, func(x, y int) bool { return true })
	// An L-shape: a 40x40 square with its top-right 20x20 quadrant removed.
	fg := bitmapFrom(bounds, func(x, y int) bool {
		if x < 10 || x >= 50 || y < 10 || y >= 50 {
			return false
		}
		return !(x >= 30 && y >= 30)
	})
	img := makeGray(100, 100, func(x, y int) uint8 { return 60 })

	rec, err := Compute("L", img, mask, fg, 0, Options{Shape: true})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if rec.Convexity == nil {
		t.Fatal("convexity missing")
	}
	if *rec.Convexity >= 0.95 || *rec.Convexity <= 0.7 {
		t.Errorf("convexity = %.4f, want clearly below 0.95 for an L-shape", *rec.Convexity)
	}
}

func TestIntensityStats(t *testing.T) {
	t.Run("EvenCount", func(t *testing.T) {
		s := intensityStats([]float64{10, 20, 30, 100})
		if s.Median != 25 {
			t.Errorf("median = %.1f, want 25", s.Median)
		}
		if s.Mean != 40 {
			t.Errorf("mean = %.1f, want 40", s.Mean)
		}
	})
	t.Run("OddCount", func(t *testing.T) {
		s := intensityStats([]float64{100, 10, 20})
		if s.Median != 20 {
			t.Errorf("median = %.1f, want 20", s.Median)
		}
	})
	t.Run("PopulationStd", func(t *testing.T) {
		s := intensityStats([]float64{2, 4, 4, 4, 5, 5, 7, 9})
		if math.Abs(s.Std-2) > 1e-12 {
			t.Errorf("std = %.6f, want 2", s.Std)
		}
	})
}
