package handlers

import (
	"errors"
	"net/http"

	"hbnb-api/internal/events"
	"hbnb-api/internal/models"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	base
	bcryptCost int
}

// NewUserHandler creates a new user handler. Passwords are hashed with
// bcryptCost.
func NewUserHandler(publisher events.Publisher, bcryptCost int) *UserHandler {
	return &UserHandler{
		base:       base{events: publisher},
		bcryptCost: bcryptCost,
	}
}

// List handles GET /api/v1/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}
	list[*models.User](w, r, sess, nil)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	show[*models.User](w, r)
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := sessionFrom(w, r)
	if !ok {
		return
	}

	var req models.UserCreate
	if !decodeObject(w, r, &req) || missing(w, req.Missing()) {
		return
	}

	user, err := req.Build(h.bcryptCost)
	if err != nil {
		if pwErr := passwordError(err); pwErr != err {
			respondError(w, pwErr.Error(), http.StatusBadRequest)
			return
		}
		internalError(w, r, err, "Failed to hash password")
		return
	}

	log.Debug().Str("email", user.Email).Msg("Creating user")
	h.create(w, r, sess, user)
}

// Update handles PUT /api/v1/users/{id}. Email cannot be changed.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	update(h.base, w, r, func(u *models.User, req models.UserUpdate) error {
		return passwordError(req.Apply(u, h.bcryptCost))
	})
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	remove[*models.User](h.base, w, r)
}

// passwordError turns bcrypt's input limit into a client error
func passwordError(err error) error {
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return badRequest("Password too long")
	}
	return err
}
