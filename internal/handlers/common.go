// Package handlers implements the booth-facing and admin-facing HTTP
// surface: settings, strip submission, and strip administration.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lakeshore-events/photostrip/internal/settings"
	"github.com/lakeshore-events/photostrip/internal/storage"
)

// MaxUploadBytes caps a strip submission body. The upload contract requires
// accepting encoded images of at least 20MB; base64 framing adds a third.
const MaxUploadBytes = 32 << 20

type Handler struct {
	store    *storage.StripStore
	mediaDir string

	mu       sync.RWMutex
	settings settings.Settings
}

// New builds the handler set around a strip store and media directory.
func New(store *storage.StripStore, mediaDir string, initial settings.Settings) *Handler {
	return &Handler{
		store:    store,
		mediaDir: mediaDir,
		settings: initial,
	}
}

// Routes wires every endpoint onto a chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/settings", h.GetSettings)
	r.Put("/api/settings", h.UpdateSettings)

	r.Post("/api/strips", h.CreateStrip)
	r.Get("/api/strips", h.ListStrips)
	r.Get("/api/strips/{id}", h.GetStrip)
	r.Delete("/api/strips/{id}", h.DeleteStrip)
	r.Post("/api/strips/{id}/print", h.PrintStrip)

	r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(h.mediaDir))))

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})

	return r
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}
