package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
)

// PlaceHandler handles /places and /cities/{city_id}/places requests
type PlaceHandler struct {
	base
}

// NewPlaceHandler creates a new place handler
func NewPlaceHandler(publisher events.Publisher) *PlaceHandler {
	return &PlaceHandler{base{events: publisher}}
}

// ListByCity handles GET /api/v1/cities/{city_id}/places
func (h *PlaceHandler) ListByCity(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	city, ok := fetch[*models.City](w, r, sess, "city_id")
	if !ok {
		return
	}
	list(w, r, sess, func(p *models.Place) bool { return p.CityID == city.ID })
}

// Get handles GET /api/v1/places/{id}
func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.Place](w, r)
}

// Create handles POST /api/v1/cities/{city_id}/places
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.PlaceCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}
	city, ok := fetch[*models.City](w, r, sess, "city_id")
	if !ok {
		return
	}
	if !exists[*models.User](w, r, sess, *req.UserID) {
		return
	}
	h.create(w, r, sess, req.Build(city.ID))
}

// Update handles PUT /api/v1/places/{id}. city_id and user_id are fixed
// at creation.
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(p *models.Place, req models.PlaceUpdate) error {
		req.Apply(p)
		return nil
	})
}

// Delete handles DELETE /api/v1/places/{id}
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.Place](h.base, w, r)
}
