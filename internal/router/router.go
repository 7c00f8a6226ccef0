// Package router assembles the HTTP API.
package router

import (
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/handlers"
	"hbnb-api/internal/middleware"
	"hbnb-api/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Deps are the collaborators the routes are built on
type Deps struct {
	Engine storage.Engine
	// Events receives every committed change. Nil discards them.
	Events events.Publisher
	// Hub enables GET /api/v1/events when set
	Hub        *events.Hub
	BcryptCost int
	// RateLimit wraps every request when set
	RateLimit func(http.Handler) http.Handler
}

// New builds the API handler
func New(d Deps) http.Handler {
	publisher := d.Events
	if publisher == nil {
		publisher = events.Nop{}
	}

	index := handlers.NewIndexHandler()
	states := handlers.NewStateHandler(publisher)
	cities := handlers.NewCityHandler(publisher)
	amenities := handlers.NewAmenityHandler(publisher)
	users := handlers.NewUserHandler(publisher, d.BcryptCost)
	places := handlers.NewPlaceHandler(publisher)
	reviews := handlers.NewReviewHandler(publisher)
	placeAmenities := handlers.NewPlaceAmenityHandler(publisher)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.StripSlashes)
	r.Use(middleware.CORS)
	if d.RateLimit != nil {
		r.Use(d.RateLimit)
	}

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.NotFound)

	r.Route("/api/v1", func(r chi.Router) {
		if d.Hub != nil {
			r.Get("/events", handlers.NewWebSocketHandler(d.Hub).HandleWebSocket)
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.Session(d.Engine))

			r.Get("/status", index.Status)
			r.Get("/stats", index.Stats)

			r.Get("/states", states.List)
			r.Post("/states", states.Create)
			r.Get("/states/{id}", states.Get)
			r.Put("/states/{id}", states.Update)
			r.Delete("/states/{id}", states.Delete)

			r.Get("/states/{state_id}/cities", cities.ListByState)
			r.Post("/states/{state_id}/cities", cities.Create)
			r.Get("/cities/{id}", cities.Get)
			r.Put("/cities/{id}", cities.Update)
			r.Delete("/cities/{id}", cities.Delete)

			r.Get("/amenities", amenities.List)
			r.Post("/amenities", amenities.Create)
			r.Get("/amenities/{id}", amenities.Get)
			r.Put("/amenities/{id}", amenities.Update)
			r.Delete("/amenities/{id}", amenities.Delete)

			r.Get("/users", users.List)
			r.Post("/users", users.Create)
			r.Get("/users/{id}", users.Get)
			r.Put("/users/{id}", users.Update)
			r.Delete("/users/{id}", users.Delete)

			r.Get("/cities/{city_id}/places", places.ListByCity)
			r.Post("/cities/{city_id}/places", places.Create)
			r.Get("/places/{id}", places.Get)
			r.Put("/places/{id}", places.Update)
			r.Delete("/places/{id}", places.Delete)

			r.Get("/places/{place_id}/reviews", reviews.ListByPlace)
			r.Post("/places/{place_id}/reviews", reviews.Create)
			r.Get("/reviews/{id}", reviews.Get)
			r.Put("/reviews/{id}", reviews.Update)
			r.Delete("/reviews/{id}", reviews.Delete)

			r.Get("/places/{place_id}/amenities", placeAmenities.List)
			r.Post("/places/{place_id}/amenities/{amenity_id}", placeAmenities.Link)
			r.Delete("/places/{place_id}/amenities/{amenity_id}", placeAmenities.Unlink)
		})
	})

	return r
}
