package frame

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	borderColor      = color.RGBA{255, 255, 255, 255}
	innerBorderColor = color.RGBA{255, 255, 255, 96}
	labelColor       = color.RGBA{255, 255, 255, 255}
)

// DrawOverlay draws the decorative slot borders. It must be the last draw
// operation of a composite pass, after the background and every photo.
func DrawOverlay(dst *image.RGBA, layout Layout) {
	for _, slot := range layout.Slots {
		drawRing(dst, slot, BorderWidth, borderColor)
		inner := slot.Inset(BorderWidth)
		drawRing(dst, inner, InnerBorderWidth, innerBorderColor)
	}
}

// drawRing fills a frame of the given thickness just inside r.
func drawRing(dst *image.RGBA, r image.Rectangle, thickness int, c color.Color) {
	src := image.NewUniform(c)
	// top, bottom, left, right bands
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Min.X, r.Min.Y+thickness, r.Min.X+thickness, r.Max.Y-thickness), src, image.Point{}, draw.Over)
	draw.Draw(dst, image.Rect(r.Max.X-thickness, r.Min.Y+thickness, r.Max.X, r.Max.Y-thickness), src, image.Point{}, draw.Over)
}

// DrawLabel centers the event label in the footer band. Drawn together with
// the overlay so text never races an in-flight photo load.
func DrawLabel(dst *image.RGBA, layout Layout, text string) {
	if text == "" {
		return
	}
	face := basicfont.Face7x13
	width := font.MeasureString(face, text)
	x := (fixed.I(SurfaceWidth) - width) / 2
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: fixed.I(layout.LabelBaseline)},
	}
	d.DrawString(text)
}
