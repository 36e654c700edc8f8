package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finsymposium/marketpulse/internal/metrics"
	"github.com/finsymposium/marketpulse/internal/store/github"
)

// validatable is what a content document must offer the generic handler.
type validatable interface {
	Validate() error
	Touch()
	Version() int64
}

// documentHandler serves one named document with the read-whole /
// write-whole contract. Malformed edits are the one request class this
// API rejects outright: market data can be approximated, an admin's
// document cannot.
type documentHandler struct {
	name     string
	store    *github.Store
	metrics  *metrics.Registry
	empty    func() validatable
	defaults func() validatable
}

// load fetches the current document, seeding defaults when the store has
// none yet. Seeding is best-effort: without a token the defaults are
// served but not persisted.
func (h *documentHandler) load(r *http.Request) (validatable, error) {
	doc := h.empty()
	err := h.store.Load(r.Context(), h.name, doc)
	if err == nil {
		h.count("load", "ok")
		return doc, nil
	}
	if errors.Is(err, github.ErrNotFound) {
		log.Info().Str("document", h.name).Msg("document missing, seeding defaults")
		seeded := h.defaults()
		if h.store.WritesEnabled() {
			if saveErr := h.store.Save(r.Context(), h.name, seeded); saveErr != nil {
				log.Warn().Str("document", h.name).Err(saveErr).Msg("default seed commit failed")
			}
		}
		h.count("load", "seeded")
		return seeded, nil
	}
	h.count("load", "error")
	return nil, err
}

func (h *documentHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.load(r)
	if err != nil {
		log.Error().Str("document", h.name).Err(err).Msg("document load failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to load " + h.name + " data",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"data":      doc,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *documentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || len(body.Data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid " + h.name + " configuration data",
		})
		return
	}

	doc := h.empty()
	if err := json.Unmarshal(body.Data, doc); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid " + h.name + " configuration data",
		})
		return
	}
	if err := doc.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	doc.Touch()
	if err := h.store.Save(r.Context(), h.name, doc); err != nil {
		h.count("save", "error")
		log.Error().Str("document", h.name).Err(err).Msg("document save failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to update " + h.name + " data",
		})
		return
	}
	h.count("save", "ok")

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   h.name + " configuration updated successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleSync answers the admin UI's staleness poll against the document's
// lastModified stamp.
func (h *documentHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	doc, err := h.load(r)
	if err != nil {
		log.Error().Str("document", h.name).Err(err).Msg("document sync check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "failed to check " + h.name + " sync",
		})
		return
	}

	clientLastModified, _ := strconv.ParseInt(r.URL.Query().Get("lastModified"), 10, 64)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"needsUpdate":        doc.Version() > clientLastModified,
		"serverLastModified": doc.Version(),
		"clientLastModified": clientLastModified,
	})
}

func (h *documentHandler) count(op, result string) {
	if h.metrics != nil {
		h.metrics.StoreRequests.WithLabelValues(h.name, op, result).Inc()
	}
}
