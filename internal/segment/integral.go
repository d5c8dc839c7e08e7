package segment

import (
	"image"

	"droplet-analyzer/internal/roi"
)

// maskedIntegral holds summed-area tables of intensity and membership for
// the pixels selected by a bitmap, allowing O(1) windowed means that count
// only selected pixels.
type maskedIntegral struct {
	rect image.Rectangle
	w, h int
	sum  []float64
	cnt  []int
}

func newMaskedIntegral(img *image.Gray, sel *roi.Bitmap) *maskedIntegral {
	rect := sel.Rect()
	w, h := rect.Dx(), rect.Dy()
	mi := &maskedIntegral{
		rect: rect,
		w:    w,
		h:    h,
		sum:  make([]float64, (w+1)*(h+1)),
		cnt:  make([]int, (w+1)*(h+1)),
	}

	stride := w + 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var v float64
			var c int
			if sel.At(rect.Min.X+x, rect.Min.Y+y) {
				v = float64(img.GrayAt(rect.Min.X+x, rect.Min.Y+y).Y)
				c = 1
			}
			i := (y+1)*stride + (x + 1)
			mi.sum[i] = v + mi.sum[i-1] + mi.sum[i-stride] - mi.sum[i-stride-1]
			mi.cnt[i] = c + mi.cnt[i-1] + mi.cnt[i-stride] - mi.cnt[i-stride-1]
		}
	}
	return mi
}

// window returns the intensity sum and selected-pixel count inside the
// inclusive image-coordinate window [x0,x1]x[y0,y1], clamped to the table.
func (mi *maskedIntegral) window(x0, y0, x1, y1 int) (float64, int) {
	if x0 < mi.rect.Min.X {
		x0 = mi.rect.Min.X
	}
	if y0 < mi.rect.Min.Y {
		y0 = mi.rect.Min.Y
	}
	if x1 > mi.rect.Max.X-1 {
		x1 = mi.rect.Max.X - 1
	}
	if y1 > mi.rect.Max.Y-1 {
		y1 = mi.rect.Max.Y - 1
	}
	if x0 > x1 || y0 > y1 {
		return 0, 0
	}

	stride := mi.w + 1
	a := x0 - mi.rect.Min.X
	b := y0 - mi.rect.Min.Y
	c := x1 - mi.rect.Min.X + 1
	d := y1 - mi.rect.Min.Y + 1

	sum := mi.sum[d*stride+c] - mi.sum[b*stride+c] - mi.sum[d*stride+a] + mi.sum[b*stride+a]
	cnt := mi.cnt[d*stride+c] - mi.cnt[b*stride+c] - mi.cnt[d*stride+a] + mi.cnt[b*stride+a]
	return sum, cnt
}
