// Package metrics computes the per-region quantitative descriptors:
// intensity statistics, shape descriptors, and halo descriptors. Every
// statistic that is mathematically undefined on its input is reported as
// a nil pointer, never as a sentinel number.
package metrics

// IntensityStats summarize raw intensities over the foreground pixels.
type IntensityStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

// HaloStats describe the diffuse band surrounding the droplet foreground.
// A PixelCount of zero means the droplet has no halo, which is a measured
// outcome distinct from "halo analysis unavailable".
type HaloStats struct {
	PixelCount   int      `json:"pixel_count"`
	Eccentricity *float64 `json:"eccentricity,omitempty"`
}

// None reports whether the measured halo is empty.
func (h HaloStats) None() bool {
	return h.PixelCount == 0
}

// MetricRecord holds every descriptor computed for one (image, ROI) pair.
// Records are immutable once returned by Compute.
type MetricRecord struct {
	Label string `json:"label"`

	PixelArea       int      `json:"pixel_area"`
	PhysicalAreaMM2 *float64 `json:"physical_area_mm2,omitempty"`

	Intensity *IntensityStats `json:"intensity,omitempty"`

	// Eccentricity is the minor/major principal axis ratio of the
	// foreground pixel set, in (0, 1] with 1 meaning isotropic.
	Eccentricity *float64 `json:"eccentricity,omitempty"`

	PerimeterPx *int     `json:"perimeter_px,omitempty"`
	Circularity *float64 `json:"circularity,omitempty"`
	Convexity   *float64 `json:"convexity,omitempty"`

	Halo *HaloStats `json:"halo,omitempty"`
}
