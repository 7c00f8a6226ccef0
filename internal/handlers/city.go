package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
)

// CityHandler handles /cities and /states/{state_id}/cities requests
type CityHandler struct {
	base
}

// NewCityHandler creates a new city handler
func NewCityHandler(publisher events.Publisher) *CityHandler {
	return &CityHandler{base{events: publisher}}
}

// ListByState handles GET /api/v1/states/{state_id}/cities
func (h *CityHandler) ListByState(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	state, ok := fetch[*models.State](w, r, sess, "state_id")
	if !ok {
		return
	}
	list(w, r, sess, func(c *models.City) bool { return c.StateID == state.ID })
}

// Get handles GET /api/v1/cities/{id}
func (h *CityHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.City](w, r)
}

// Create handles POST /api/v1/states/{state_id}/cities
func (h *CityHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.CityCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}
	state, ok := fetch[*models.State](w, r, sess, "state_id")
	if !ok {
		return
	}
	h.create(w, r, sess, req.Build(state.ID))
}

// Update handles PUT /api/v1/cities/{id}
func (h *CityHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(c *models.City, req models.CityUpdate) error {
		req.Apply(c)
		return nil
	})
}

// Delete handles DELETE /api/v1/cities/{id}
func (h *CityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.City](h.base, w, r)
}
