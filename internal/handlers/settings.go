package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lakeshore-events/photostrip/internal/settings"
)

// GetSettings serves the current event settings to the booth.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.currentSettings())
}

// UpdateSettings lets the admin surface change the event label and template
// reference. The booth picks the change up on its next poll.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var s settings.Settings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.settings = s
	h.mu.Unlock()

	slog.Info("Settings changed", "event_label", s.EventLabel, "template_ref", s.TemplateRef != "")
	h.writeJSON(w, s)
}

// SetSettings replaces the served settings. Used when the backend mirrors
// an upstream event coordinator instead of being edited directly.
func (h *Handler) SetSettings(s settings.Settings) {
	h.mu.Lock()
	h.settings = s
	h.mu.Unlock()
}

func (h *Handler) currentSettings() settings.Settings {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.settings
}
