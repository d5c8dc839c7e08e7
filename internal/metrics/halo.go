package metrics

import "droplet-analyzer/internal/roi"

// haloBitmap extracts the background band around the foreground: every
// pixel that lies under the mask, is not foreground, and sits within
// bandRadius (Euclidean) of some foreground pixel. An empty foreground
// yields an empty halo.
func haloBitmap(mask, fg *roi.Bitmap, bandRadius int) *roi.Bitmap {
	halo := roi.NewBitmap(mask.Rect())
	if bandRadius < 1 {
		return halo
	}
	r2 := bandRadius * bandRadius
	fg.ForEach(func(x, y int) {
		for dy := -bandRadius; dy <= bandRadius; dy++ {
			for dx := -bandRadius; dx <= bandRadius; dx++ {
				if dx*dx+dy*dy > r2 {
					continue
				}
				px, py := x+dx, y+dy
				if mask.At(px, py) && !fg.At(px, py) {
					halo.Set(px, py, true)
				}
			}
		}
	})
	return halo
}
