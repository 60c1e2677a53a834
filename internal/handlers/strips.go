package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lakeshore-events/photostrip/internal/models"
	"github.com/lakeshore-events/photostrip/internal/storage"
	"github.com/lakeshore-events/photostrip/internal/submit"
)

type createStripRequest struct {
	Image       string `json:"image"`
	TemplateRef string `json:"template_ref"`
}

// CreateStrip accepts a finished strip from the booth, persists the image,
// and records it for the admin surface.
func (h *Handler) CreateStrip(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var req createStripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Payload too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		h.writeError(w, "image is required", http.StatusBadRequest)
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		h.writeError(w, "image is not valid base64", http.StatusBadRequest)
		return
	}
	if len(imageData) < submit.MinPayloadBytes {
		h.writeError(w, "image implausibly small", http.StatusBadRequest)
		return
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(imageData)); err != nil {
		h.writeError(w, "image does not decode", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.mediaDir, 0755); err != nil {
		h.writeError(w, "Failed to create media directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	stripID := uuid.NewString()
	filename := stripID + ".png"
	imagePath := filepath.Join(h.mediaDir, filename)
	if err := os.WriteFile(imagePath, imageData, 0644); err != nil {
		h.writeError(w, "Failed to save strip image: "+err.Error(), http.StatusInternalServerError)
		return
	}

	rec := models.StripRecord{
		ID:          stripID,
		ImagePath:   imagePath,
		ImageRef:    "/media/" + filename,
		TemplateRef: req.TemplateRef,
		EventLabel:  h.currentSettings().EventLabel,
		ByteSize:    int64(len(imageData)),
		CreatedAt:   time.Now(),
	}
	if err := h.store.Save(rec); err != nil {
		h.writeError(w, "Failed to record strip: "+err.Error(), http.StatusInternalServerError)
		return
	}

	slog.Info("Strip stored", "strip_id", stripID, "bytes", len(imageData))
	h.writeJSON(w, submit.Receipt{StripID: stripID, ImageRef: rec.ImageRef})
}

// ListStrips returns every stored strip, newest first.
func (h *Handler) ListStrips(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List()
	if err != nil {
		h.writeError(w, "Failed to list strips: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.StripRecord{}
	}
	h.writeJSON(w, records)
}

// GetStrip returns one strip by ID.
func (h *Handler) GetStrip(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.Get(chi.URLParam(r, "id"))
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Strip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to load strip: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rec)
}

// DeleteStrip removes a strip record and its stored image.
func (h *Handler) DeleteStrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.store.Get(id)
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Strip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to load strip: "+err.Error(), http.StatusInternalServerError)
		return
	}

	if err := h.store.Delete(id); err != nil {
		h.writeError(w, "Failed to delete strip: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := os.Remove(rec.ImagePath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove strip image", "strip_id", id, "error", err)
	}

	slog.Info("Strip deleted", "strip_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// PrintStrip marks a strip printed. Printing itself belongs to the print
// collaborator; the strip is addressable only via its image ref.
func (h *Handler) PrintStrip(w http.ResponseWriter, r *http.Request) {
	rec, err := h.store.MarkPrinted(chi.URLParam(r, "id"), time.Now())
	if errors.Is(err, storage.ErrNotFound) {
		h.writeError(w, "Strip not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, "Failed to mark strip printed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, rec)
}
