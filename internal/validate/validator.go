// Package validate inspects a composited surface for evidence of real
// photographic content before anything leaves the client.
package validate

import (
	"image"

	"github.com/lakeshore-events/photostrip/internal/frame"
)

// HasExpectedContent samples one pixel at the geometric center of each slot.
// A slot has content when the sample is non-transparent and not pure black,
// the convention for "never drawn". It returns true only when the number of
// slots with content covers expected and, for expected > 0, at least one
// slot registered content.
//
// A nil surface means pixel access is unavailable; in that case the expected
// count alone is trusted. That is a deliberately weaker guarantee, kept so a
// degraded sampling path cannot block every submission.
func HasExpectedContent(surface image.Image, layout frame.Layout, expected int) bool {
	if expected < 0 {
		expected = 0
	}
	if surface == nil || surface.Bounds().Empty() {
		return expected > 0
	}

	content := 0
	for _, slot := range layout.Slots {
		center := image.Pt(slot.Min.X+slot.Dx()/2, slot.Min.Y+slot.Dy()/2)
		if hasContentAt(surface, center) {
			content++
		}
	}

	if expected > 0 && content == 0 {
		return false
	}
	return content >= expected
}

func hasContentAt(surface image.Image, pt image.Point) bool {
	if !pt.In(surface.Bounds()) {
		return false
	}
	r, g, b, a := surface.At(pt.X, pt.Y).RGBA()
	if a == 0 {
		return false
	}
	return r != 0 || g != 0 || b != 0
}
