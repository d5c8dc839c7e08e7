// Package colorutil provides shared color utilities for the droplet analyzer.
package colorutil

import (
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// viridisAnchors are evenly spaced samples of the viridis colormap,
// interpolated linearly in between. Dark purple at 0, yellow at 1.
var viridisAnchors = []color.RGBA{
	{68, 1, 84, 255},
	{71, 19, 101, 255},
	{72, 36, 117, 255},
	{70, 52, 128, 255},
	{65, 68, 135, 255},
	{59, 82, 139, 255},
	{53, 95, 141, 255},
	{47, 108, 142, 255},
	{42, 120, 142, 255},
	{37, 132, 142, 255},
	{33, 145, 140, 255},
	{30, 156, 137, 255},
	{34, 168, 132, 255},
	{47, 180, 124, 255},
	{68, 191, 112, 255},
	{94, 201, 98, 255},
	{122, 209, 81, 255},
	{155, 217, 60, 255},
	{189, 223, 38, 255},
	{223, 227, 24, 255},
	{253, 231, 37, 255},
}

// Viridis maps t in [0, 1] onto the viridis colormap. Values outside the
// range are clamped.
func Viridis(t float64) color.RGBA {
	if t <= 0 {
		return viridisAnchors[0]
	}
	if t >= 1 {
		return viridisAnchors[len(viridisAnchors)-1]
	}

	pos := t * float64(len(viridisAnchors)-1)
	i := int(pos)
	frac := pos - float64(i)

	a, b := viridisAnchors[i], viridisAnchors[i+1]
	return color.RGBA{
		R: lerpByte(a.R, b.R, frac),
		G: lerpByte(a.G, b.G, frac),
		B: lerpByte(a.B, b.B, frac),
		A: 255,
	}
}

// Tint blends base toward tint by the given strength in [0, 1].
func Tint(base, tint color.RGBA, strength float64) color.RGBA {
	if strength <= 0 {
		return base
	}
	if strength >= 1 {
		return tint
	}
	return color.RGBA{
		R: lerpByte(base.R, tint.R, strength),
		G: lerpByte(base.G, tint.G, strength),
		B: lerpByte(base.B, tint.B, strength),
		A: base.A,
	}
}

// Darken reduces the brightness of a color by the given factor in [0, 1].
func Darken(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * (1 - factor)),
		G: uint8(float64(c.G) * (1 - factor)),
		B: uint8(float64(c.B) * (1 - factor)),
		A: c.A,
	}
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
