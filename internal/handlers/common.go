package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"
	"hbnb-api/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends v as a JSON response
func respondJSON(w http.ResponseWriter, v interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// NotFound handles unmatched routes and unsupported methods
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, "Not found", http.StatusNotFound)
}

// internalError logs err with the request context and sends a generic 500
func internalError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().
		Err(err).
		Str("request_id", chiMiddleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(msg)
	respondError(w, "Internal server error", http.StatusInternalServerError)
}

// decodeObject reads a JSON object body into dst. On failure it writes the
// 400 response itself and returns false.
func decodeObject(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		respondError(w, "Not a JSON", http.StatusBadRequest)
		return false
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return false
		}
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		respondError(w, "Not a JSON", http.StatusBadRequest)
		return false
	}
	if !json.Valid(data) {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	if data[0] != '{' {
		respondError(w, "Not a JSON", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		respondError(w, "Invalid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// sessionFrom returns the request's storage session
func sessionFrom(w http.ResponseWriter, r *http.Request) (storage.Session, bool) {
	sess, ok := storage.FromContext(r.Context())
	if !ok {
		internalError(w, r, errors.New("no storage session in context"), "Storage session missing")
		return nil, false
	}
	return sess, true
}

// base carries what every resource handler needs
type base struct {
	events events.Publisher
}

// commit saves the session and announces ev. A failed publish is logged
// and does not affect the response.
func (b base) commit(w http.ResponseWriter, r *http.Request, sess storage.Session, ev events.Event) bool {
	if err := sess.Save(r.Context()); err != nil {
		internalError(w, r, err, "Failed to save changes")
		return false
	}
	if err := b.events.Publish(r.Context(), ev); err != nil {
		log.Warn().
			Err(err).
			Str("type", string(ev.Type)).
			Str("kind", string(ev.Kind)).
			Str("id", ev.ID).
			Msg("Failed to publish event")
	}
	return true
}

// fetch loads the entity named by the URL parameter param. It writes the
// 404 or 500 response itself when the entity cannot be returned.
func fetch[T models.Entity](w http.ResponseWriter, r *http.Request, sess storage.Session, param string) (T, bool) {
	id := chi.URLParam(r, param)
	e, ok, err := storage.Get[T](r.Context(), sess, id)
	if err != nil {
		var zero T
		internalError(w, r, err, "Failed to load "+string(zero.Kind()))
		return e, false
	}
	if !ok {
		NotFound(w, r)
		return e, false
	}
	return e, true
}

// exists checks a reference given in a request body
func exists[T models.Entity](w http.ResponseWriter, r *http.Request, sess storage.Session, id string) bool {
	_, ok, err := storage.Get[T](r.Context(), sess, id)
	if err != nil {
		var zero T
		internalError(w, r, err, "Failed to load "+string(zero.Kind()))
		return false
	}
	if !ok {
		NotFound(w, r)
		return false
	}
	return true
}

// list responds with every entity of type T accepted by keep
func list[T models.Entity](w http.ResponseWriter, r *http.Request, sess storage.Session, keep func(T) bool) {
	all, err := storage.All[T](r.Context(), sess)
	if err != nil {
		var zero T
		internalError(w, r, err, "Failed to list "+zero.Kind().Plural())
		return
	}

	out := make([]T, 0, len(all))
	for _, e := range all {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
	}
	respondJSON(w, out, http.StatusOK)
}

// show responds with the entity named by the "id" URL parameter
func show[T models.Entity](w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	e, ok := fetch[T](w, r, sess, "id")
	if !ok {
		return
	}
	respondJSON(w, e, http.StatusOK)
}

// create stages e, commits and responds 201
func (b base) create(w http.ResponseWriter, r *http.Request, sess storage.Session, e models.Entity) {
	sess.New(e)
	if !b.commit(w, r, sess, events.New(events.Created, e, e)) {
		return
	}
	log.Info().Str("kind", string(e.Kind())).Str("id", e.Meta().ID).Msg("Entity created")
	respondJSON(w, e, http.StatusCreated)
}

// update loads the entity named by "id", decodes a P body and applies it
func update[T models.Entity, P any](b base, w http.ResponseWriter, r *http.Request, apply func(T, P) error) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	e, ok := fetch[T](w, r, sess, "id")
	if !ok {
		return
	}

	var payload P
	if !decodeObject(w, r, &payload) {
		return
	}
	if err := apply(e, payload); err != nil {
		var bad badRequest
		if errors.As(err, &bad) {
			respondError(w, string(bad), http.StatusBadRequest)
			return
		}
		internalError(w, r, err, "Failed to apply update")
		return
	}

	if !b.commit(w, r, sess, events.New(events.Updated, e, e)) {
		return
	}
	respondJSON(w, e, http.StatusOK)
}

// remove deletes the entity named by "id" and responds 200 {}
func remove[T models.Entity](b base, w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	e, ok := fetch[T](w, r, sess, "id")
	if !ok {
		return
	}

	sess.Delete(e)
	if !b.commit(w, r, sess, events.New(events.Deleted, e, nil)) {
		return
	}
	log.Info().Str("kind", string(e.Kind())).Str("id", e.Meta().ID).Msg("Entity deleted")
	respondJSON(w, struct{}{}, http.StatusOK)
}

// badRequest is an input error whose text is sent to the client
type badRequest string

func (e badRequest) Error() string { return string(e) }

// missing responds 400 when a required create field is absent
func missing(w http.ResponseWriter, field string) bool {
	if field == "" {
		return false
	}
	respondError(w, "Missing "+field, http.StatusBadRequest)
	return true
}
