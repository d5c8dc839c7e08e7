// Package errors defines the per-region error kinds reported by the
// analysis pipeline. Every kind is non-fatal at session level: the engine
// skips or annotates the offending region and continues, so one bad ROI
// never aborts a whole scanned-image analysis.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies why a region could not be (fully) analyzed.
type Kind string

const (
	// KindInvalidGeometry: the ROI definition itself is unusable
	// (too few vertices, self-intersecting path, non-positive radius).
	KindInvalidGeometry Kind = "invalid_geometry"

	// KindOutOfBounds: the ROI resolves to zero pixels inside the image.
	KindOutOfBounds Kind = "out_of_bounds"

	// KindDegenerateRegion: too few masked pixels to segment.
	KindDegenerateRegion Kind = "degenerate_region"

	// KindEmptyMetric: a statistic was requested over an empty pixel set.
	// The region still produces a record with unavailable markers.
	KindEmptyMetric Kind = "empty_metric"
)

// RegionError describes a per-region analysis failure.
type RegionError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *RegionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *RegionError) Unwrap() error {
	return e.Err
}

// Is matches any RegionError of the same kind, so callers can test with
// errors.Is against the exported sentinels below.
func (e *RegionError) Is(target error) bool {
	t, ok := target.(*RegionError)
	return ok && e.Kind == t.Kind
}

// Sentinels for errors.Is matching by kind.
var (
	ErrInvalidGeometry  = &RegionError{Kind: KindInvalidGeometry}
	ErrOutOfBounds      = &RegionError{Kind: KindOutOfBounds}
	ErrDegenerateRegion = &RegionError{Kind: KindDegenerateRegion}
	ErrEmptyMetric      = &RegionError{Kind: KindEmptyMetric}
)

// InvalidGeometry creates an invalid-geometry error.
func InvalidGeometry(format string, args ...any) *RegionError {
	return &RegionError{Kind: KindInvalidGeometry, Msg: fmt.Sprintf(format, args...)}
}

// OutOfBounds creates an out-of-bounds error.
func OutOfBounds(format string, args ...any) *RegionError {
	return &RegionError{Kind: KindOutOfBounds, Msg: fmt.Sprintf(format, args...)}
}

// DegenerateRegion creates a degenerate-region error.
func DegenerateRegion(format string, args ...any) *RegionError {
	return &RegionError{Kind: KindDegenerateRegion, Msg: fmt.Sprintf(format, args...)}
}

// EmptyMetric creates an empty-metric error.
func EmptyMetric(format string, args ...any) *RegionError {
	return &RegionError{Kind: KindEmptyMetric, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the region error kind from an error chain. The boolean
// is false if no RegionError is present.
func KindOf(err error) (Kind, bool) {
	var re *RegionError
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}
