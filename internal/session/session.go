// Package session provides the session document: one scan image plus the
// regions, calibration, and analysis toggles used to measure it.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"droplet-analyzer/internal/roi"
)

// CurrentVersion is the session schema version written by Save.
const CurrentVersion = 1

// File represents a droplet analysis session document.
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Scan image path, relative to the session file.
	ImagePath string `json:"image"`

	// Explicit scale override. Zero means derive the scale from a ruler
	// ROI or from the scan's own resolution metadata.
	PxPerMM float64 `json:"px_per_mm,omitempty"`

	// Analysis toggles; every family defaults to enabled when absent.
	Analyses Analyses `json:"analyses,omitempty"`

	ROIs []roi.ROI `json:"rois"`
}

// Analyses selects which metric families the engine computes. Pointer
// fields distinguish "absent, default on" from an explicit false.
type Analyses struct {
	Intensity *bool `json:"intensity,omitempty"`
	Shape     *bool `json:"shape,omitempty"`
	Halo      *bool `json:"halo,omitempty"`
}

// IntensityEnabled reports whether intensity statistics are requested.
func (a Analyses) IntensityEnabled() bool { return enabled(a.Intensity) }

// ShapeEnabled reports whether shape descriptors are requested.
func (a Analyses) ShapeEnabled() bool { return enabled(a.Shape) }

// HaloEnabled reports whether halo analysis is requested.
func (a Analyses) HaloEnabled() bool { return enabled(a.Halo) }

func enabled(v *bool) bool { return v == nil || *v }

// New creates an empty session for the given scan image.
func New(name, imagePath string) *File {
	now := time.Now()
	return &File{
		Version:   CurrentVersion,
		Name:      name,
		Created:   now,
		Modified:  now,
		ImagePath: imagePath,
	}
}

// Load reads a session document from path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sess File
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", path, err)
	}
	if sess.Version > CurrentVersion {
		return nil, fmt.Errorf("session %s uses schema version %d, newest supported is %d",
			path, sess.Version, CurrentVersion)
	}

	return &sess, nil
}

// Save writes the session to path, bumping the modified timestamp.
func (f *File) Save(path string) error {
	f.Modified = time.Now()
	if f.Version == 0 {
		f.Version = CurrentVersion
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage stores imagePath relative to the session file location.
func (f *File) SetImage(sessionPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(sessionPath), imagePath)
	if err != nil {
		f.ImagePath = imagePath
	} else {
		f.ImagePath = rel
	}
	f.Modified = time.Now()
}

// ResolveImagePath returns the absolute path to the scan image.
func (f *File) ResolveImagePath(sessionPath string) string {
	if f.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(f.ImagePath) {
		return f.ImagePath
	}
	return filepath.Join(filepath.Dir(sessionPath), f.ImagePath)
}

// DefaultResultsPath derives the CSV output path from the session path.
func DefaultResultsPath(sessionPath string) string {
	base := sessionPath[:len(sessionPath)-len(filepath.Ext(sessionPath))]
	return base + "_results.csv"
}

// Calibration returns the session-level explicit scale, zero when unset.
func (f *File) Calibration() roi.Calibration {
	if f.PxPerMM <= 0 {
		return roi.Calibration{}
	}
	return roi.Calibration{PxPerMM: f.PxPerMM}
}

// Rulers returns the ruler ROIs in declaration order.
func (f *File) Rulers() []roi.ROI {
	var out []roi.ROI
	for _, r := range f.ROIs {
		if r.Kind == roi.KindRuler {
			out = append(out, r)
		}
	}
	return out
}

// Measurable returns the droplet ROIs (polygons and circles) in
// declaration order.
func (f *File) Measurable() []roi.ROI {
	var out []roi.ROI
	for _, r := range f.ROIs {
		if r.Measurable() {
			out = append(out, r)
		}
	}
	return out
}
