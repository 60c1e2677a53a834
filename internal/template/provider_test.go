package template

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lakeshore-events/photostrip/internal/frame"
)

func templatePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 330, 900))
	for y := 0; y < 900; y++ {
		for x := 0; x < 330; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x), uint8(y), 200, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() < minTemplateBytes {
		t.Fatalf("test template only %d bytes", buf.Len())
	}
	return buf.Bytes()
}

func TestResolveDefaultsWithoutRemote(t *testing.T) {
	p := NewProvider(t.TempDir())

	res := p.Resolve()
	if res.Source != SourceDefault {
		t.Fatalf("source = %v, want default", res.Source)
	}
	if res.Image == nil {
		t.Fatal("nil default image")
	}
	// The synthesized default is never blank: the slot area carries the
	// gradient, not transparent black.
	b := res.Image.Bounds()
	_, _, _, a := res.Image.At(b.Dx()/2, b.Dy()/2).RGBA()
	if a == 0 {
		t.Error("default background is transparent at center")
	}
}

func TestRefreshFromRemote(t *testing.T) {
	data := templatePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	p := NewProvider(t.TempDir())
	p.Refresh(context.Background(), srv.URL)

	res := p.Resolve()
	if res.Source != SourceRemote {
		t.Fatalf("source = %v, want remote", res.Source)
	}
	if res.Ref != srv.URL {
		t.Errorf("ref = %q, want %q", res.Ref, srv.URL)
	}
	if res.Image.Bounds().Dx() != 330 {
		t.Errorf("width = %d, want 330", res.Image.Bounds().Dx())
	}
}

func TestRefreshFailureDegradesSilently(t *testing.T) {
	data := templatePNG(t)
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	p := NewProvider(t.TempDir())
	p.Refresh(context.Background(), good.URL)
	p.Refresh(context.Background(), bad.URL)

	// The previous template keeps serving.
	if res := p.Resolve(); res.Source != SourceRemote || res.Ref != good.URL {
		t.Errorf("resolution = %+v, want previous remote template", res)
	}
}

func TestRefreshRejectsPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("tiny"))
	}))
	defer srv.Close()

	p := NewProvider(t.TempDir())
	p.Refresh(context.Background(), srv.URL)

	if res := p.Resolve(); res.Source != SourceDefault {
		t.Errorf("source = %v, want default after placeholder response", res.Source)
	}
}

func TestRefreshDataURI(t *testing.T) {
	ref := "data:image/png;base64," + base64.StdEncoding.EncodeToString(templatePNG(t))

	p := NewProvider(t.TempDir())
	p.Refresh(context.Background(), ref)

	if res := p.Resolve(); res.Source != SourceRemote {
		t.Errorf("source = %v, want remote for inline template", res.Source)
	}
}

func TestDiskCacheSurvivesNewProvider(t *testing.T) {
	dir := t.TempDir()
	data := templatePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	first := NewProvider(dir)
	first.Refresh(context.Background(), srv.URL)
	srv.Close()

	// A fresh provider (new session, collaborator gone) falls back to the
	// cached decode, not the synthesized default.
	second := NewProvider(dir)
	if res := second.Resolve(); res.Source != SourceCached {
		t.Errorf("source = %v, want cached", res.Source)
	}
}

func TestDefaultDimensions(t *testing.T) {
	img := Default()
	b := img.Bounds()
	if b.Dx() != frame.SurfaceWidth || b.Dy() != frame.SurfaceHeight {
		t.Errorf("default template is %dx%d, want %dx%d", b.Dx(), b.Dy(), frame.SurfaceWidth, frame.SurfaceHeight)
	}
}
