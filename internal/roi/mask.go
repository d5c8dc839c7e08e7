package roi

import (
	"image"
)

// Bitmap is a binary pixel grid over a bounding rectangle in image
// coordinates. It backs both ROI masks and foreground segmentations.
// Producers fill it once and hand it out read-only; nothing mutates a
// Bitmap after the call that created it returns.
type Bitmap struct {
	rect  image.Rectangle
	bits  []bool
	count int
}

// NewBitmap creates an all-false bitmap covering rect.
func NewBitmap(rect image.Rectangle) *Bitmap {
	return &Bitmap{
		rect: rect,
		bits: make([]bool, rect.Dx()*rect.Dy()),
	}
}

// Rect returns the covered rectangle in image coordinates.
func (b *Bitmap) Rect() image.Rectangle {
	return b.rect
}

// At reports the bit at image coordinates (x, y). Points outside the
// covered rectangle are false.
func (b *Bitmap) At(x, y int) bool {
	if x < b.rect.Min.X || x >= b.rect.Max.X || y < b.rect.Min.Y || y >= b.rect.Max.Y {
		return false
	}
	return b.bits[(y-b.rect.Min.Y)*b.rect.Dx()+(x-b.rect.Min.X)]
}

// Set writes the bit at image coordinates (x, y). Out-of-rect writes are
// ignored.
func (b *Bitmap) Set(x, y int, v bool) {
	if x < b.rect.Min.X || x >= b.rect.Max.X || y < b.rect.Min.Y || y >= b.rect.Max.Y {
		return
	}
	idx := (y-b.rect.Min.Y)*b.rect.Dx() + (x - b.rect.Min.X)
	if b.bits[idx] == v {
		return
	}
	b.bits[idx] = v
	if v {
		b.count++
	} else {
		b.count--
	}
}

// Count returns the number of set bits.
func (b *Bitmap) Count() int {
	return b.count
}

// ForEach calls fn for every set bit in row-major order.
func (b *Bitmap) ForEach(fn func(x, y int)) {
	i := 0
	for y := b.rect.Min.Y; y < b.rect.Max.Y; y++ {
		for x := b.rect.Min.X; x < b.rect.Max.X; x++ {
			if b.bits[i] {
				fn(x, y)
			}
			i++
		}
	}
}

// Clone returns a deep copy.
func (b *Bitmap) Clone() *Bitmap {
	out := &Bitmap{
		rect:  b.rect,
		bits:  make([]bool, len(b.bits)),
		count: b.count,
	}
	copy(out.bits, b.bits)
	return out
}

// Equal reports whether two bitmaps cover the same rectangle with
// identical bits.
func (b *Bitmap) Equal(other *Bitmap) bool {
	if b.rect != other.rect || b.count != other.count {
		return false
	}
	for i := range b.bits {
		if b.bits[i] != other.bits[i] {
			return false
		}
	}
	return true
}
