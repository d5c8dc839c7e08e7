// Command roitest runs segmentation and metrics on a single region of a
// scan and prints the results.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"droplet-analyzer/internal/metrics"
	"droplet-analyzer/internal/roi"
	"droplet-analyzer/internal/scan"
	"droplet-analyzer/internal/segment"
	"droplet-analyzer/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to scan image (TIFF, PNG, JPEG, or BMP)")
	cx := flag.Float64("cx", 0, "Circle center X")
	cy := flag.Float64("cy", 0, "Circle center Y")
	radius := flag.Float64("radius", 50, "Circle radius in pixels")
	polygon := flag.String("polygon", "", "Polygon vertices \"x1,y1 x2,y2 ...\" (overrides circle)")
	label := flag.String("label", "1_test_1", "Region label")
	window := flag.Int("window", 15, "Local threshold window radius")
	offset := flag.Float64("offset", 10, "Threshold offset below local mean")
	eps := flag.Float64("eps", 1.0, "Uniform background variance floor")
	minPixels := flag.Int("min", 4, "Minimum foreground component size")
	band := flag.Int("band", 4, "Halo band radius in pixels")
	pxPerMM := flag.Float64("px-per-mm", 0, "Calibration (0 = use scan DPI if present)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: roitest -image <path> [-cx 0 -cy 0 -radius 50 | -polygon \"x1,y1 x2,y2 ...\"]")
		os.Exit(1)
	}

	sc, err := scan.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scan: %v\n", err)
		os.Exit(1)
	}

	cal := roi.Calibration{PxPerMM: *pxPerMM}
	if !cal.Calibrated() {
		cal = sc.Calibration()
	}

	fmt.Printf("Loaded scan: %dx%d pixels\n", sc.Width(), sc.Height())
	if cal.Calibrated() {
		fmt.Printf("Calibration: %.3f px/mm\n", cal.PxPerMM)
	} else {
		fmt.Println("Calibration: none (pixel units only)")
	}

	r, err := buildROI(*label, *cx, *cy, *radius, *polygon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Bad region: %v\n", err)
		os.Exit(1)
	}
	if r.Kind == roi.KindCircle {
		fmt.Printf("Region: circle center=(%.1f,%.1f) r=%.1f\n", r.Center.X, r.Center.Y, r.Radius)
	} else {
		fmt.Printf("Region: polygon with %d vertices\n", len(r.Points))
	}

	opts := segment.Options{
		WindowRadius: *window,
		Offset:       *offset,
		UniformEps:   *eps,
		MinPixels:    *minPixels,
	}
	fmt.Printf("\nThreshold parameters:\n")
	fmt.Printf("  Window radius: %d px\n", opts.WindowRadius)
	fmt.Printf("  Offset: %.1f\n", opts.Offset)
	fmt.Printf("  Uniform eps: %.2f\n", opts.UniformEps)
	fmt.Printf("  Min pixels: %d\n", opts.MinPixels)
	fmt.Printf("  Halo band: %d px\n", *band)

	mask, scale, err := roi.Resolve(sc.Bounds(), r, cal)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Resolve failed: %v\n", err)
		os.Exit(1)
	}

	fg, err := segment.Segment(sc.Gray, mask, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Segmentation failed: %v\n", err)
		os.Exit(1)
	}

	rec, err := metrics.Compute(r.Label, sc.Gray, mask, fg, scale, metrics.Options{
		Intensity:      true,
		Shape:          true,
		Halo:           true,
		HaloBandRadius: *band,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Metrics failed: %v\n", err)
	}
	if rec == nil {
		os.Exit(1)
	}

	fmt.Printf("\nMask:       %7d px\n", mask.Count())
	fmt.Printf("Foreground: %7d px\n", fg.Count())
	if rec.Halo != nil {
		fmt.Printf("Halo band:  %7d px\n", rec.Halo.PixelCount)
	}

	fmt.Printf("\n%-22s %12s\n", "Metric", "Value")
	fmt.Println(strings.Repeat("-", 35))
	printInt("pixel_area", rec.PixelArea)
	printFloat("physical_area_mm2", rec.PhysicalAreaMM2)
	if rec.Intensity != nil {
		printFloat("mean_intensity", &rec.Intensity.Mean)
		printFloat("median_intensity", &rec.Intensity.Median)
		printFloat("std_intensity", &rec.Intensity.Std)
	}
	printFloat("eccentricity", rec.Eccentricity)
	if rec.PerimeterPx != nil {
		printInt("perimeter_px", *rec.PerimeterPx)
	}
	printFloat("circularity", rec.Circularity)
	printFloat("convexity", rec.Convexity)
	if rec.Halo != nil {
		printInt("halo_pixels", rec.Halo.PixelCount)
		printFloat("halo_eccentricity", rec.Halo.Eccentricity)
	}
}

func buildROI(label string, cx, cy, radius float64, polygon string) (roi.ROI, error) {
	if polygon == "" {
		center := geometry.Point2D{X: cx, Y: cy}
		return roi.ROI{Kind: roi.KindCircle, Label: label, Center: &center, Radius: radius}, nil
	}

	var points []geometry.Point2D
	for _, tok := range strings.Fields(polygon) {
		parts := strings.Split(tok, ",")
		if len(parts) != 2 {
			return roi.ROI{}, fmt.Errorf("vertex %q is not x,y", tok)
		}
		x, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return roi.ROI{}, fmt.Errorf("vertex %q: %v", tok, err)
		}
		y, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return roi.ROI{}, fmt.Errorf("vertex %q: %v", tok, err)
		}
		points = append(points, geometry.Point2D{X: x, Y: y})
	}
	return roi.ROI{Kind: roi.KindPolygon, Label: label, Points: points}, nil
}

func printInt(name string, v int) {
	fmt.Printf("%-22s %12d\n", name, v)
}

func printFloat(name string, v *float64) {
	if v == nil {
		fmt.Printf("%-22s %12s\n", name, "-")
		return
	}
	fmt.Printf("%-22s %12.3f\n", name, *v)
}
