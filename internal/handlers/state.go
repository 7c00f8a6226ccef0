package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
)

// StateHandler handles /states requests
type StateHandler struct {
	base
}

// NewStateHandler creates a new state handler
func NewStateHandler(publisher events.Publisher) *StateHandler {
	return &StateHandler{base{events: publisher}}
}

// List handles GET /api/v1/states
func (h *StateHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	list[*models.State](w, r, sess, nil)
}

// Get handles GET /api/v1/states/{id}
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.State](w, r)
}

// Create handles POST /api/v1/states
func (h *StateHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.StateCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}
	h.create(w, r, sess, req.Build())
}

// Update handles PUT /api/v1/states/{id}
func (h *StateHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(s *models.State, req models.StateUpdate) error {
		req.Apply(s)
		return nil
	})
}

// Delete handles DELETE /api/v1/states/{id}
func (h *StateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.State](h.base, w, r)
}
