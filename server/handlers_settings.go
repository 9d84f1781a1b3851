package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/stream-avatars/backend/telemetry"
)

// HandleSettings handles GET and PUT requests for the overlay settings. A PUT
// body may name any subset of fields; the rest keep their current values.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cur, err := h.store.Load(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, cur)
	case http.MethodPut:
		// read-merge-write; held until the merged value is stored
		h.settingsMu.Lock()
		defer h.settingsMu.Unlock()

		prev, err := h.store.Load(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		next := prev
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&next); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := next.Validate(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// Apply before saving so a stopped stage leaves the store untouched.
		if err := h.stage.ApplySettings(r.Context(), next); err != nil {
			stageError(w, err)
			return
		}
		if err := h.store.Save(r.Context(), next); err != nil {
			log := telemetry.LoggerWithCorr(r.Context())
			log.Error("failed to save settings", slog.Any("error", err), slog.String("component", "http"))
			if rerr := h.stage.ApplySettings(r.Context(), prev); rerr != nil {
				log.Warn("failed to restore stage settings", slog.Any("error", rerr), slog.String("component", "http"))
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		telemetry.LoggerWithCorr(r.Context()).Info("settings updated",
			slog.String("theme", next.BackgroundTheme), slog.String("component", "http"))
		writeJSON(w, http.StatusOK, next)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
