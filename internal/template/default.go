package template

import (
	"image"
	"image/color"

	"github.com/lakeshore-events/photostrip/internal/frame"
)

// Default synthesizes the fallback background: a vertical gradient with a
// subtle dot pattern. It exists so the strip is never submitted on a blank
// or transparent background.
func Default() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, frame.SurfaceWidth, frame.SurfaceHeight))

	top := color.RGBA{46, 26, 71, 255}
	bottom := color.RGBA{120, 60, 110, 255}

	for y := 0; y < frame.SurfaceHeight; y++ {
		t := float64(y) / float64(frame.SurfaceHeight-1)
		c := color.RGBA{
			R: lerp(top.R, bottom.R, t),
			G: lerp(top.G, bottom.G, t),
			B: lerp(top.B, bottom.B, t),
			A: 255,
		}
		for x := 0; x < frame.SurfaceWidth; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	// Dot pattern on a 60px grid, offset every other row.
	dot := color.RGBA{255, 255, 255, 40}
	for gy := 30; gy < frame.SurfaceHeight; gy += 60 {
		offset := 0
		if (gy/60)%2 == 1 {
			offset = 30
		}
		for gx := 30 + offset; gx < frame.SurfaceWidth; gx += 60 {
			setDot(img, gx, gy, dot)
		}
	}

	return img
}

func setDot(img *image.RGBA, cx, cy int, c color.RGBA) {
	for dy := -2; dy <= 2; dy++ {
		for dx := -2; dx <= 2; dx++ {
			if dx*dx+dy*dy > 4 {
				continue
			}
			x, y := cx+dx, cy+dy
			if image.Pt(x, y).In(img.Bounds()) {
				blend(img, x, y, c)
			}
		}
	}
}

func blend(img *image.RGBA, x, y int, c color.RGBA) {
	base := img.RGBAAt(x, y)
	a := uint32(c.A)
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((uint32(c.R)*a + uint32(base.R)*(255-a)) / 255),
		G: uint8((uint32(c.G)*a + uint32(base.G)*(255-a)) / 255),
		B: uint8((uint32(c.B)*a + uint32(base.B)*(255-a)) / 255),
		A: 255,
	})
}

func lerp(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
