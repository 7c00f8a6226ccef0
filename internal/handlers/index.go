package handlers

import (
	"net/http"

	"hbnb-api/internal/models"
)

// IndexHandler serves the status and stats endpoints
type IndexHandler struct{}

// NewIndexHandler creates a new index handler
func NewIndexHandler() *IndexHandler {
	return &IndexHandler{}
}

// Status handles GET /api/v1/status
func (h *IndexHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "OK"}, http.StatusOK)
}

// Stats handles GET /api/v1/stats
func (h *IndexHandler) Stats(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	counts := make(map[string]int, len(models.Kinds))
	for _, kind := range models.Kinds {
		n, err := sess.Count(r.Context(), kind)
		if err != nil {
			internalError(w, r, err, "Failed to count "+kind.Plural())
			return
		}
		counts[kind.Plural()] = n
	}
	respondJSON(w, counts, http.StatusOK)
}
