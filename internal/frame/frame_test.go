package frame

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
)

func TestCropRectWideImages(t *testing.T) {
	tests := []struct {
		name         string
		imgW, imgH   int
		boxW, boxH   int
		wantW, wantX int
	}{
		{
			// 1000/400 = 2.5 > 520/385 ≈ 1.35: symmetric horizontal crop.
			name: "panoramic capture",
			imgW: 1000, imgH: 400,
			boxW: SlotWidth, boxH: SlotHeight,
			wantW: 540, wantX: 230,
		},
		{
			name: "double-wide capture",
			imgW: 2000, imgH: 500,
			boxW: SlotWidth, boxH: SlotHeight,
			wantW: 675, wantX: 662,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(tt.imgW, tt.imgH, tt.boxW, tt.boxH)
			if got.Dx() != tt.wantW {
				t.Errorf("source width = %d, want %d", got.Dx(), tt.wantW)
			}
			if got.Min.X != tt.wantX {
				t.Errorf("source X = %d, want %d", got.Min.X, tt.wantX)
			}
			// Symmetric: left margin equals right margin within rounding.
			left := got.Min.X
			right := tt.imgW - got.Max.X
			if diff := left - right; diff < -1 || diff > 1 {
				t.Errorf("crop not symmetric: left %d, right %d", left, right)
			}
			// Full height consumed.
			if got.Min.Y != 0 || got.Max.Y != tt.imgH {
				t.Errorf("height range = [%d,%d), want [0,%d)", got.Min.Y, got.Max.Y, tt.imgH)
			}
		})
	}
}

func TestCropRectTallImages(t *testing.T) {
	tests := []struct {
		name       string
		imgW, imgH int
	}{
		{"portrait capture", 600, 800},
		{"square capture", 500, 500},
		{"near box aspect", 800, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CropRect(tt.imgW, tt.imgH, SlotWidth, SlotHeight)
			// Top is never cropped; the bottom is discarded.
			if got.Min.Y != 0 {
				t.Errorf("source Y = %d, want 0", got.Min.Y)
			}
			if got.Min.X != 0 || got.Max.X != tt.imgW {
				t.Errorf("width range = [%d,%d), want full [0,%d)", got.Min.X, got.Max.X, tt.imgW)
			}
			if got.Max.Y > tt.imgH {
				t.Errorf("source height %d exceeds image height %d", got.Max.Y, tt.imgH)
			}
		})
	}
}

func TestDefaultLayout(t *testing.T) {
	layout := DefaultLayout()
	if len(layout.Slots) != SlotCount {
		t.Fatalf("got %d slots, want %d", len(layout.Slots), SlotCount)
	}

	wantY := []int{90, 515, 940}
	for i, slot := range layout.Slots {
		if slot.Min.Y != wantY[i] {
			t.Errorf("slot %d Y = %d, want %d", i, slot.Min.Y, wantY[i])
		}
		if slot.Dx() != SlotWidth || slot.Dy() != SlotHeight {
			t.Errorf("slot %d size = %dx%d, want %dx%d", i, slot.Dx(), slot.Dy(), SlotWidth, SlotHeight)
		}
		if !slot.In(image.Rect(0, 0, SurfaceWidth, SurfaceHeight)) {
			t.Errorf("slot %d %v outside surface", i, slot)
		}
	}
}

func TestLoadLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	content := `
slots:
  - {x: 10, y: 20, width: 300, height: 200}
  - {x: 10, y: 240, width: 300, height: 200}
  - {x: 10, y: 460, width: 300, height: 200}
label_baseline: 1700
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	if layout.LabelBaseline != 1700 {
		t.Errorf("label baseline = %d, want 1700", layout.LabelBaseline)
	}
	if got := layout.Slots[1]; got != image.Rect(10, 240, 310, 440) {
		t.Errorf("slot 1 = %v, want %v", got, image.Rect(10, 240, 310, 440))
	}
}

func TestLoadLayoutRejectsWrongSlotCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layout.yaml")
	content := "slots:\n  - {x: 0, y: 0, width: 100, height: 100}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadLayout(path); err == nil {
		t.Error("expected error for 1-slot layout, got nil")
	}
}

func TestPlacePhotoFillsSlot(t *testing.T) {
	dst := NewSurface()
	red := image.NewRGBA(image.Rect(0, 0, 1000, 400))
	for y := 0; y < 400; y++ {
		for x := 0; x < 1000; x++ {
			red.SetRGBA(x, y, color.RGBA{200, 10, 10, 255})
		}
	}

	slot := DefaultLayout().Slots[0]
	PlacePhoto(dst, red, slot)

	// Every corner and the center of the slot must carry photo pixels.
	points := []image.Point{
		slot.Min,
		{X: slot.Max.X - 1, Y: slot.Min.Y},
		{X: slot.Min.X, Y: slot.Max.Y - 1},
		{X: slot.Max.X - 1, Y: slot.Max.Y - 1},
		{X: slot.Min.X + slot.Dx()/2, Y: slot.Min.Y + slot.Dy()/2},
	}
	for _, pt := range points {
		r, _, _, a := dst.At(pt.X, pt.Y).RGBA()
		if a == 0 || r == 0 {
			t.Errorf("pixel at %v not filled (r=%d a=%d)", pt, r, a)
		}
	}

	// One pixel outside the slot stays untouched.
	outside := image.Pt(slot.Min.X-1, slot.Min.Y-1)
	if _, _, _, a := dst.At(outside.X, outside.Y).RGBA(); a != 0 {
		t.Errorf("pixel outside slot at %v was drawn", outside)
	}
}

func TestDrawOverlayEdges(t *testing.T) {
	dst := NewSurface()
	layout := DefaultLayout()
	DrawOverlay(dst, layout)

	slot := layout.Slots[0]
	// Border band should be opaque white.
	r, g, b, a := dst.At(slot.Min.X+1, slot.Min.Y+1).RGBA()
	if a != 0xffff || r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("border pixel = (%d,%d,%d,%d), want opaque white", r, g, b, a)
	}
	// Slot interior stays untouched.
	center := image.Pt(slot.Min.X+slot.Dx()/2, slot.Min.Y+slot.Dy()/2)
	if _, _, _, a := dst.At(center.X, center.Y).RGBA(); a != 0 {
		t.Error("overlay drew into slot interior")
	}
}

func TestDrawLabel(t *testing.T) {
	dst := NewSurface()
	layout := DefaultLayout()
	DrawLabel(dst, layout, "SUMMER GALA 2026")

	// Some pixel in the footer band must be set.
	found := false
	for y := layout.LabelBaseline - 14; y < layout.LabelBaseline+2 && !found; y++ {
		for x := 0; x < SurfaceWidth; x++ {
			if _, _, _, a := dst.At(x, y).RGBA(); a != 0 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("label drew no pixels in the footer band")
	}
}
