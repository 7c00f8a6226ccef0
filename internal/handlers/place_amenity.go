package handlers

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"
)

// PlaceAmenityHandler handles the place to amenity relation
type PlaceAmenityHandler struct {
	base
}

// NewPlaceAmenityHandler creates a new place amenity handler
func NewPlaceAmenityHandler(publisher events.Publisher) *PlaceAmenityHandler {
	return &PlaceAmenityHandler{base{events: publisher}}
}

type linkData struct {
	AmenityID string `json:"amenity_id"`
}

// List handles GET /api/v1/places/{place_id}/amenities. Links to deleted
// amenities are skipped.
func (h *PlaceAmenityHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	place, ok := fetch[*models.Place](w, r, sess, "place_id")
	if !ok {
		return
	}

	out := make([]*models.Amenity, 0, len(place.AmenityIDs))
	for _, id := range place.AmenityIDs {
		a, ok, err := storage.Get[*models.Amenity](r.Context(), sess, id)
		if err != nil {
			internalError(w, r, err, "Failed to load amenity")
			return
		}
		if ok {
			out = append(out, a)
		}
	}
	respondJSON(w, out, http.StatusOK)
}

// Link handles POST /api/v1/places/{place_id}/amenities/{amenity_id}
func (h *PlaceAmenityHandler) Link(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	place, ok := fetch[*models.Place](w, r, sess, "place_id")
	if !ok {
		return
	}
	amenity, ok := fetch[*models.Amenity](w, r, sess, "amenity_id")
	if !ok {
		return
	}

	if !place.LinkAmenity(amenity.ID) {
		respondJSON(w, amenity, http.StatusOK)
		return
	}
	if !h.commit(w, r, sess, events.New(events.Linked, place, linkData{AmenityID: amenity.ID})) {
		return
	}
	respondJSON(w, amenity, http.StatusCreated)
}

// Unlink handles DELETE /api/v1/places/{place_id}/amenities/{amenity_id}.
// It answers 200 {} whether or not the amenity was linked, and 404 when
// the place has no amenities at all.
func (h *PlaceAmenityHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	place, ok := fetch[*models.Place](w, r, sess, "place_id")
	if !ok {
		return
	}
	amenity, ok := fetch[*models.Amenity](w, r, sess, "amenity_id")
	if !ok {
		return
	}
	if len(place.AmenityIDs) == 0 {
		NotFound(w, r)
		return
	}

	if place.UnlinkAmenity(amenity.ID) {
		if !h.commit(w, r, sess, events.New(events.Unlinked, place, linkData{AmenityID: amenity.ID})) {
			return
		}
	}
	respondJSON(w, struct{}{}, http.StatusOK)
}
