package roi

import (
	"errors"
	"image"
	"math"
	"testing"

	apperrors "droplet-analyzer/internal/errors"
	"droplet-analyzer/pkg/geometry"
)

func scanBounds() image.Rectangle {
	return image.Rect(0, 0, 200, 200)
}

func polygonROI(label string, pts ...geometry.Point2D) ROI {
	return ROI{Kind: KindPolygon, Label: label, Points: pts}
}

func circleROI(label string, cx, cy, r float64) ROI {
	return ROI{Kind: KindCircle, Label: label, Center: &geometry.Point2D{X: cx, Y: cy}, Radius: r}
}

func TestResolvePolygonSquareCount(t *testing.T) {
	// A 2x2 square holds a 3x3 grid of lattice points, boundary inclusive.
	r := polygonROI("sq", geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 2, Y: 0},
		geometry.Point2D{X: 2, Y: 2}, geometry.Point2D{X: 0, Y: 2})

	mask, _, err := Resolve(scanBounds(), r, Calibration{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mask.Count() != 9 {
		t.Errorf("square mask has %d pixels, want 9", mask.Count())
	}
}

func TestResolvePolygonVertexOrderInvariant(t *testing.T) {
	// L-shaped region, enumerated both ways around.
	ccw := []geometry.Point2D{
		{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 50, Y: 30},
		{X: 30, Y: 30}, {X: 30, Y: 50}, {X: 10, Y: 50},
	}
	cw := make([]geometry.Point2D, len(ccw))
	for i, p := range ccw {
		cw[len(ccw)-1-i] = p
	}

	maskCCW, _, err := Resolve(scanBounds(), polygonROI("l-ccw", ccw...), Calibration{})
	if err != nil {
		t.Fatalf("Resolve ccw failed: %v", err)
	}
	maskCW, _, err := Resolve(scanBounds(), polygonROI("l-cw", cw...), Calibration{})
	if err != nil {
		t.Fatalf("Resolve cw failed: %v", err)
	}

	if !maskCCW.Equal(maskCW) {
		t.Error("mask differs between clockwise and counter-clockwise vertex order")
	}
}

func TestResolveCircleAreaConvergence(t *testing.T) {
	for _, radius := range []float64{10, 20, 50} {
		mask, _, err := Resolve(scanBounds(), circleROI("c", 100, 100, radius), Calibration{})
		if err != nil {
			t.Fatalf("Resolve r=%g failed: %v", radius, err)
		}

		ideal := math.Pi * radius * radius
		relErr := math.Abs(float64(mask.Count())-ideal) / ideal
		if relErr > 0.01 {
			t.Errorf("r=%g: mask count %d vs ideal %.1f (rel err %.4f, want < 0.01)",
				radius, mask.Count(), ideal, relErr)
		}
	}
}

func TestResolveCircleClippedAtEdge(t *testing.T) {
	// Circle centered on the image corner: only one quadrant survives.
	mask, _, err := Resolve(scanBounds(), circleROI("corner", 0, 0, 20), Calibration{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	quarter := math.Pi * 400 / 4
	if f := float64(mask.Count()); f < quarter*0.9 || f > quarter*1.1 {
		t.Errorf("clipped corner circle has %d pixels, want about %.0f", mask.Count(), quarter)
	}
	if mask.At(-1, 0) || mask.At(0, -1) {
		t.Error("mask leaks outside image bounds")
	}
}

func TestResolveScaleFromCalibration(t *testing.T) {
	cal := Calibration{PxPerMM: 20}

	_, scale, err := Resolve(scanBounds(), circleROI("c", 100, 100, 10), cal)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if math.Abs(scale-0.05) > 1e-12 {
		t.Errorf("scale = %g mm/px, want 0.05", scale)
	}

	_, scale, err = Resolve(scanBounds(), circleROI("c", 100, 100, 10), Calibration{})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if scale != 0 {
		t.Errorf("uncalibrated scale = %g, want 0", scale)
	}
}

func TestRulerScaleRoundTrip(t *testing.T) {
	// Endpoints 120 px apart declared as 6 mm: 20 px/mm, 0.05 mm/px.
	ruler := ROI{
		Kind:     KindRuler,
		Label:    "ruler",
		Points:   []geometry.Point2D{{X: 10, Y: 10}, {X: 130, Y: 10}},
		LengthMM: 6,
	}

	cal, err := RulerScale(ruler)
	if err != nil {
		t.Fatalf("RulerScale failed: %v", err)
	}
	if math.Abs(cal.PxPerMM-20) > 1e-9 {
		t.Errorf("PxPerMM = %g, want 20", cal.PxPerMM)
	}
	if math.Abs(cal.MMPerPixel()-0.05) > 1e-12 {
		t.Errorf("MMPerPixel = %g, want 0.05", cal.MMPerPixel())
	}

	// Physical area of n pixels is n * (L/d)^2.
	area := cal.PhysicalArea(4000)
	if area == nil {
		t.Fatal("PhysicalArea returned nil for calibrated session")
	}
	want := 4000 * 0.05 * 0.05
	if math.Abs(*area-want) > 1e-9 {
		t.Errorf("PhysicalArea(4000) = %g, want %g", *area, want)
	}

	if (Calibration{}).PhysicalArea(4000) != nil {
		t.Error("PhysicalArea should be nil when uncalibrated")
	}
}

func TestResolveInvalidGeometry(t *testing.T) {
	testCases := []struct {
		name string
		roi  ROI
	}{
		{"TooFewVertices", polygonROI("p", geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 0})},
		{"SelfIntersecting", polygonROI("bowtie",
			geometry.Point2D{X: 0, Y: 0}, geometry.Point2D{X: 10, Y: 10},
			geometry.Point2D{X: 10, Y: 0}, geometry.Point2D{X: 0, Y: 10})},
		{"ZeroRadius", circleROI("c", 50, 50, 0)},
		{"NegativeRadius", circleROI("c", 50, 50, -5)},
		{"NoCenter", ROI{Kind: KindCircle, Label: "c", Radius: 5}},
		{"RulerAsMask", ROI{Kind: KindRuler, Label: "r",
			Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}, LengthMM: 1}},
		{"UnknownKind", ROI{Kind: Kind("blob"), Label: "x"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Resolve(scanBounds(), tc.roi, Calibration{})
			if !errors.Is(err, apperrors.ErrInvalidGeometry) {
				t.Errorf("got %v, want invalid_geometry", err)
			}
		})
	}
}

func TestResolveOutOfBounds(t *testing.T) {
	testCases := []struct {
		name string
		roi  ROI
	}{
		{"CircleOutside", circleROI("c", 500, 500, 10)},
		{"PolygonOutside", polygonROI("p",
			geometry.Point2D{X: 300, Y: 300}, geometry.Point2D{X: 320, Y: 300},
			geometry.Point2D{X: 310, Y: 320})},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Resolve(scanBounds(), tc.roi, Calibration{})
			if !errors.Is(err, apperrors.ErrOutOfBounds) {
				t.Errorf("got %v, want out_of_bounds", err)
			}
		})
	}
}

func TestRulerScaleInvalid(t *testing.T) {
	testCases := []struct {
		name  string
		ruler ROI
	}{
		{"NotARuler", circleROI("c", 0, 0, 5)},
		{"OneEndpoint", ROI{Kind: KindRuler, Points: []geometry.Point2D{{X: 0, Y: 0}}, LengthMM: 5}},
		{"ZeroLength", ROI{Kind: KindRuler,
			Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}}, LengthMM: 0}},
		{"CoincidentEndpoints", ROI{Kind: KindRuler,
			Points: []geometry.Point2D{{X: 5, Y: 5}, {X: 5, Y: 5}}, LengthMM: 5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := RulerScale(tc.ruler)
			if !errors.Is(err, apperrors.ErrInvalidGeometry) {
				t.Errorf("got %v, want invalid_geometry", err)
			}
		})
	}
}

func TestCirclePolygonAgreement(t *testing.T) {
	// A many-sided polygon approximating a circle should produce nearly
	// the same mask as the circle itself.
	pts := geometry.GenerateCirclePoints(100, 100, 30, 256)
	polyMask, _, err := Resolve(scanBounds(), polygonROI("poly", pts...), Calibration{})
	if err != nil {
		t.Fatalf("Resolve polygon failed: %v", err)
	}
	circMask, _, err := Resolve(scanBounds(), circleROI("circ", 100, 100, 30), Calibration{})
	if err != nil {
		t.Fatalf("Resolve circle failed: %v", err)
	}

	diff := math.Abs(float64(polyMask.Count() - circMask.Count()))
	if diff/float64(circMask.Count()) > 0.02 {
		t.Errorf("polygon approximation count %d vs circle %d", polyMask.Count(), circMask.Count())
	}
}
