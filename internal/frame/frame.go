// Package frame holds the strip geometry and the drawing primitives used to
// composite captured photos onto the output surface.
package frame

import (
	"fmt"
	"image"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Strip geometry. The output is a 2.2x6 inch strip at 300 DPI.
const (
	SurfaceWidth  = 660
	SurfaceHeight = 1800

	SlotWidth  = 520
	SlotHeight = 385
	SlotX      = 70

	BorderWidth      = 4
	InnerBorderWidth = 1

	SlotCount = 3
)

// Default slot Y positions, top to bottom.
var defaultSlotY = [SlotCount]int{90, 515, 940}

// Layout describes where the three photo slots and the footer label sit on
// the surface.
type Layout struct {
	Slots []image.Rectangle
	// LabelBaseline is the Y coordinate of the event label baseline in the
	// footer band below the last slot.
	LabelBaseline int
}

// DefaultLayout returns the standard three-slot strip layout.
func DefaultLayout() Layout {
	l := Layout{LabelBaseline: 1740}
	for _, y := range defaultSlotY {
		l.Slots = append(l.Slots, image.Rect(SlotX, y, SlotX+SlotWidth, y+SlotHeight))
	}
	return l
}

type layoutFile struct {
	Slots []struct {
		X      int `yaml:"x"`
		Y      int `yaml:"y"`
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"slots"`
	LabelBaseline int `yaml:"label_baseline"`
}

// LoadLayout reads a slot layout from a YAML file. Missing fields fall back
// to the default layout.
func LoadLayout(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to read layout file: %w", err)
	}

	var lf layoutFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return Layout{}, fmt.Errorf("failed to parse layout file: %w", err)
	}

	layout := DefaultLayout()
	if lf.LabelBaseline > 0 {
		layout.LabelBaseline = lf.LabelBaseline
	}
	if len(lf.Slots) == 0 {
		return layout, nil
	}
	if len(lf.Slots) != SlotCount {
		return Layout{}, fmt.Errorf("layout must define exactly %d slots, got %d", SlotCount, len(lf.Slots))
	}

	layout.Slots = layout.Slots[:0]
	for i, s := range lf.Slots {
		if s.Width <= 0 || s.Height <= 0 {
			return Layout{}, fmt.Errorf("slot %d has non-positive dimensions", i)
		}
		r := image.Rect(s.X, s.Y, s.X+s.Width, s.Y+s.Height)
		if !r.In(image.Rect(0, 0, SurfaceWidth, SurfaceHeight)) {
			return Layout{}, fmt.Errorf("slot %d does not fit the %dx%d surface", i, SurfaceWidth, SurfaceHeight)
		}
		layout.Slots = append(layout.Slots, r)
	}
	return layout, nil
}

// CropRect selects the source rectangle that fills a boxW x boxH destination
// without stretching. Relatively wide images are cropped symmetrically left
// and right; relatively tall images are cropped from the bottom only, so the
// top of the frame (where faces sit in a selfie-style capture) is always
// preserved.
func CropRect(imgW, imgH, boxW, boxH int) image.Rectangle {
	imgAspect := float64(imgW) / float64(imgH)
	boxAspect := float64(boxW) / float64(boxH)

	if imgAspect > boxAspect {
		srcW := int(math.Round(float64(imgH) * boxAspect))
		srcX := (imgW - srcW) / 2
		return image.Rect(srcX, 0, srcX+srcW, imgH)
	}

	srcH := int(math.Round(float64(imgW) / boxAspect))
	return image.Rect(0, 0, imgW, srcH)
}
