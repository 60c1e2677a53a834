package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/lakeshore-events/photostrip/internal/models"
	"github.com/lakeshore-events/photostrip/internal/settings"
	"github.com/lakeshore-events/photostrip/internal/storage"
	"github.com/lakeshore-events/photostrip/internal/submit"
)

func testServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	store, err := storage.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	mediaDir := t.TempDir()
	h := New(store, mediaDir, settings.Settings{EventLabel: "Homecoming"})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv, mediaDir
}

// stripPNG builds a PNG comfortably above the plausibility floor.
func stripPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 660, 1800))
	for y := 0; y < 1800; y++ {
		for x := 0; x < 660; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(x ^ y), uint8(y), uint8(x), 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if buf.Len() < submit.MinPayloadBytes {
		t.Fatalf("test strip only %d bytes", buf.Len())
	}
	return buf.Bytes()
}

func createStrip(t *testing.T, srv *httptest.Server, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/strips", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /api/strips: %v", err)
	}
	return resp
}

func TestCreateStrip(t *testing.T) {
	srv, mediaDir := testServer(t)

	payload, err := json.Marshal(map[string]string{
		"image":        base64.StdEncoding.EncodeToString(stripPNG(t)),
		"template_ref": "https://example.com/t.png",
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := createStrip(t, srv, string(payload))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var receipt submit.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatalf("decode receipt: %v", err)
	}
	if receipt.StripID == "" {
		t.Fatal("empty strip ID")
	}
	if !strings.HasPrefix(receipt.ImageRef, "/media/") {
		t.Errorf("image ref = %q, want /media/ path", receipt.ImageRef)
	}

	// The image landed on disk and is served back.
	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("media dir holds %d files, want 1", len(entries))
	}
	got, err := http.Get(srv.URL + receipt.ImageRef)
	if err != nil {
		t.Fatalf("GET %s: %v", receipt.ImageRef, err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusOK {
		t.Errorf("media status = %d, want 200", got.StatusCode)
	}

	// The record carries the event label current at submission time.
	var records []models.StripRecord
	list, err := http.Get(srv.URL + "/api/strips")
	if err != nil {
		t.Fatal(err)
	}
	defer list.Body.Close()
	if err := json.NewDecoder(list.Body).Decode(&records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].EventLabel != "Homecoming" {
		t.Errorf("event label = %q", records[0].EventLabel)
	}
	if records[0].TemplateRef != "https://example.com/t.png" {
		t.Errorf("template ref = %q", records[0].TemplateRef)
	}
}

func TestCreateStripRejections(t *testing.T) {
	srv, _ := testServer(t)

	tiny := base64.StdEncoding.EncodeToString([]byte("too small"))
	undecodable := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("x"), submit.MinPayloadBytes))

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid JSON", "{not json", http.StatusBadRequest},
		{"missing image", `{"template_ref":"x"}`, http.StatusBadRequest},
		{"bad base64", `{"image":"!!!not-base64!!!"}`, http.StatusBadRequest},
		{"below byte floor", `{"image":"` + tiny + `"}`, http.StatusBadRequest},
		{"not an image", `{"image":"` + undecodable + `"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := createStrip(t, srv, tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestCreateStripOverCap(t *testing.T) {
	srv, _ := testServer(t)

	// A syntactically fine request whose image field alone exceeds the cap.
	big := `{"image":"` + strings.Repeat("A", MaxUploadBytes) + `"}`
	resp := createStrip(t, srv, big)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}

func TestListStripsEmpty(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/strips")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var records []models.StripRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if records == nil || len(records) != 0 {
		t.Errorf("records = %v, want empty array", records)
	}
}

func TestGetDeletePrintLifecycle(t *testing.T) {
	srv, mediaDir := testServer(t)

	payload, _ := json.Marshal(map[string]string{
		"image": base64.StdEncoding.EncodeToString(stripPNG(t)),
	})
	resp := createStrip(t, srv, string(payload))
	var receipt submit.Receipt
	if err := json.NewDecoder(resp.Body).Decode(&receipt); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	get, err := http.Get(srv.URL + "/api/strips/" + receipt.StripID)
	if err != nil {
		t.Fatal(err)
	}
	defer get.Body.Close()
	if get.StatusCode != http.StatusOK {
		t.Fatalf("GET status = %d", get.StatusCode)
	}

	printed, err := http.Post(srv.URL+"/api/strips/"+receipt.StripID+"/print", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer printed.Body.Close()
	var rec models.StripRecord
	if err := json.NewDecoder(printed.Body).Decode(&rec); err != nil {
		t.Fatal(err)
	}
	if rec.PrintCount != 1 || rec.PrintedAt == nil {
		t.Errorf("after print: count=%d at=%v", rec.PrintCount, rec.PrintedAt)
	}

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/api/strips/"+receipt.StripID, nil)
	del, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	del.Body.Close()
	if del.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want 204", del.StatusCode)
	}

	// Record and file are both gone.
	gone, err := http.Get(srv.URL + "/api/strips/" + receipt.StripID)
	if err != nil {
		t.Fatal(err)
	}
	gone.Body.Close()
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("GET after delete = %d, want 404", gone.StatusCode)
	}
	entries, err := os.ReadDir(mediaDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("media dir still holds %d files", len(entries))
	}
}

func TestUnknownStripIs404(t *testing.T) {
	srv, _ := testServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/strips/missing"},
		{http.MethodDelete, "/api/strips/missing"},
		{http.MethodPost, "/api/strips/missing/print"},
	}
	for _, p := range paths {
		req, _ := http.NewRequest(p.method, srv.URL+p.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", p.method, p.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s %s = %d, want 404", p.method, p.path, resp.StatusCode)
		}
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	var s settings.Settings
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if s.EventLabel != "Homecoming" {
		t.Fatalf("initial label = %q", s.EventLabel)
	}

	req, _ := http.NewRequest(http.MethodPut, srv.URL+"/api/settings",
		strings.NewReader(`{"event_label":"After Party","template_ref":"https://example.com/np.png"}`))
	req.Header.Set("Content-Type", "application/json")
	put, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	put.Body.Close()
	if put.StatusCode != http.StatusOK {
		t.Fatalf("PUT status = %d", put.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		t.Fatal(err)
	}
	if s.EventLabel != "After Party" || s.TemplateRef != "https://example.com/np.png" {
		t.Errorf("settings after update = %+v", s)
	}
}

func TestHealthcheck(t *testing.T) {
	srv, _ := testServer(t)

	resp, err := http.Get(srv.URL + "/healthcheck")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
