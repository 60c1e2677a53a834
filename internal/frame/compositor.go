package frame

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// NewSurface allocates a blank (fully transparent) strip surface.
func NewSurface() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, SurfaceWidth, SurfaceHeight))
}

// DrawBackground scales the template image to cover the whole surface.
func DrawBackground(dst *image.RGBA, tmpl image.Image) {
	if tmpl == nil {
		return
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), tmpl, tmpl.Bounds(), xdraw.Src, nil)
}

// PlacePhoto draws a photo into one slot using the center-crop rule, scaled
// to exactly fill the slot rectangle.
func PlacePhoto(dst *image.RGBA, photo image.Image, slot image.Rectangle) {
	b := photo.Bounds()
	crop := CropRect(b.Dx(), b.Dy(), slot.Dx(), slot.Dy()).Add(b.Min)
	xdraw.BiLinear.Scale(dst, slot, photo, crop, xdraw.Src, nil)
}
