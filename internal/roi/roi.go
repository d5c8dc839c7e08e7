// Package roi defines droplet regions of interest and resolves them into
// binary pixel masks. The three region kinds form a closed set: polygons
// and circles produce analysis masks, rulers produce calibration only.
package roi

import (
	"droplet-analyzer/pkg/geometry"
)

// Kind discriminates the ROI variants. The set is closed; every switch
// over it handles all three kinds plus a rejection default.
type Kind string

const (
	KindPolygon Kind = "polygon"
	KindCircle  Kind = "circle"
	KindRuler   Kind = "ruler"
)

// ROI is one user-defined region on a scan. Which geometry fields are
// meaningful depends on Kind:
//
//	polygon: Points (ordered vertices of a simple closed path)
//	circle:  Center, Radius
//	ruler:   Points (two endpoints), LengthMM (declared real length)
type ROI struct {
	Kind   Kind               `json:"kind"`
	Label  string             `json:"label"`
	Points []geometry.Point2D `json:"points,omitempty"`

	Center *geometry.Point2D `json:"center,omitempty"`
	Radius float64           `json:"radius,omitempty"`

	LengthMM float64 `json:"length_mm,omitempty"`

	// Halo overrides the session-level halo toggle for this region.
	Halo *bool `json:"halo,omitempty"`
}

// Measurable reports whether the ROI produces an analysis mask.
// Rulers calibrate; they are never measured.
func (r ROI) Measurable() bool {
	return r.Kind == KindPolygon || r.Kind == KindCircle
}

// Calibration maps pixel distances to physical lengths. The zero value
// means uncalibrated. Calibration is explicit session state, threaded
// through every resolve call; there is no ambient scale.
type Calibration struct {
	PxPerMM float64 `json:"px_per_mm"`
}

// Calibrated reports whether a physical scale is known.
func (c Calibration) Calibrated() bool {
	return c.PxPerMM > 0
}

// MMPerPixel returns the physical size of one pixel, or 0 if uncalibrated.
func (c Calibration) MMPerPixel() float64 {
	if !c.Calibrated() {
		return 0
	}
	return 1 / c.PxPerMM
}

// PhysicalArea converts a pixel count to square millimeters. Returns nil
// when uncalibrated.
func (c Calibration) PhysicalArea(pixels int) *float64 {
	if !c.Calibrated() {
		return nil
	}
	mmpp := c.MMPerPixel()
	area := float64(pixels) * mmpp * mmpp
	return &area
}
