package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
)

// ReviewHandler handles /reviews and /places/{place_id}/reviews requests
type ReviewHandler struct {
	base
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(publisher events.Publisher) *ReviewHandler {
	return &ReviewHandler{base{events: publisher}}
}

// ListByPlace handles GET /api/v1/places/{place_id}/reviews
func (h *ReviewHandler) ListByPlace(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	place, ok := fetch[*models.Place](w, r, sess, "place_id")
	if !ok {
		return
	}
	list(w, r, sess, func(rv *models.Review) bool { return rv.PlaceID == place.ID })
}

// Get handles GET /api/v1/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.Review](w, r)
}

// Create handles POST /api/v1/places/{place_id}/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.ReviewCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}
	place, ok := fetch[*models.Place](w, r, sess, "place_id")
	if !ok {
		return
	}
	if !exists[*models.User](w, r, sess, *req.UserID) {
		return
	}
	h.create(w, r, sess, req.Build(place.ID))
}

// Update handles PUT /api/v1/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(rv *models.Review, req models.ReviewUpdate) error {
		req.Apply(rv)
		return nil
	})
}

// Delete handles DELETE /api/v1/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.Review](h.base, w, r)
}
