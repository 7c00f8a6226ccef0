package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
)

// AmenityHandler handles /amenities requests
type AmenityHandler struct {
	base
}

// NewAmenityHandler creates a new amenity handler
func NewAmenityHandler(publisher events.Publisher) *AmenityHandler {
	return &AmenityHandler{base{events: publisher}}
}

// List handles GET /api/v1/amenities
func (h *AmenityHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	list[*models.Amenity](w, r, sess, nil)
}

// Get handles GET /api/v1/amenities/{id}
func (h *AmenityHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.Amenity](w, r)
}

// Create handles POST /api/v1/amenities
func (h *AmenityHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.AmenityCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}
	h.create(w, r, sess, req.Build())
}

// Update handles PUT /api/v1/amenities/{id}
func (h *AmenityHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(a *models.Amenity, req models.AmenityUpdate) error {
		req.Apply(a)
		return nil
	})
}

// Delete handles DELETE /api/v1/amenities/{id}. Places keep the dangling
// link; listings skip it.
func (h *AmenityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.Amenity](h.base, w, r)
}
