// Package scan loads droplet scan images and reduces them to the 8-bit
// grayscale plane the analysis pipeline works on.
package scan

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"droplet-analyzer/internal/roi"
)

const mmPerInch = 25.4

// Scan is one loaded scan: the decoded source reduced to grayscale, plus
// whatever physical resolution metadata the file carried.
type Scan struct {
	Path string
	Gray *image.Gray

	// DPI is the scanner resolution from TIFF metadata, 0 when unknown.
	DPI float64
}

// Load decodes the image at path. An unreadable or undecodable file is
// the pipeline's one fatal input error.
func Load(path string) (*Scan, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scan: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode scan %s: %w", path, err)
	}

	s := &Scan{
		Path: path,
		Gray: toGray(img),
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" {
		if dpi, err := probeTIFFDPI(path); err == nil {
			s.DPI = dpi
		}
	}

	return s, nil
}

// Bounds returns the pixel bounds of the grayscale plane.
func (s *Scan) Bounds() image.Rectangle {
	return s.Gray.Bounds()
}

// Width returns the scan width in pixels.
func (s *Scan) Width() int {
	return s.Gray.Bounds().Dx()
}

// Height returns the scan height in pixels.
func (s *Scan) Height() int {
	return s.Gray.Bounds().Dy()
}

// Calibration derives a pixel scale from the scanner DPI. The zero
// calibration is returned when the file carried no resolution.
func (s *Scan) Calibration() roi.Calibration {
	if s.DPI <= 0 {
		return roi.Calibration{}
	}
	return roi.Calibration{PxPerMM: s.DPI / mmPerInch}
}

// toGray reduces any decoded image to 8-bit grayscale with the standard
// luminance weights.
func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}

	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			gray.Pix[gray.PixOffset(x, y)] = uint8((19595*r + 38470*g + 7471*b + 1<<15) >> 24)
		}
	}
	return gray
}

// SupportedFormats returns the accepted scan file extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported extension.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
