package models

import (
	"slices"
	"time"
)

// Kind identifies one of the fixed entity types
type Kind string

const (
	KindAmenity Kind = "Amenity"
	KindCity    Kind = "City"
	KindPlace   Kind = "Place"
	KindReview  Kind = "Review"
	KindState   Kind = "State"
	KindUser    Kind = "User"
)

// Kinds lists every entity kind in a stable order
var Kinds = []Kind{KindAmenity, KindCity, KindPlace, KindReview, KindState, KindUser}

// ParseKind resolves a kind from its class name
func ParseKind(name string) (Kind, bool) {
	k := Kind(name)
	if slices.Contains(Kinds, k) {
		return k, true
	}
	return "", false
}

// Plural returns the collection name used in routes and stats
func (k Kind) Plural() string {
	switch k {
	case KindAmenity:
		return "amenities"
	case KindCity:
		return "cities"
	case KindPlace:
		return "places"
	case KindReview:
		return "reviews"
	case KindState:
		return "states"
	case KindUser:
		return "users"
	}
	return ""
}

// Entity is implemented by every stored record
type Entity interface {
	Kind() Kind
	Meta() *Base
}

// Base holds the identity and timestamps shared by all entities
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Meta returns the shared fields of an entity
func (b *Base) Meta() *Base {
	return b
}

// State represents a state
type State struct {
	Base
	Name string `json:"name"`
}

// City represents a city inside a state
type City struct {
	Base
	StateID string `json:"state_id"`
	Name    string `json:"name"`
}

// Amenity represents something a place can offer
type Amenity struct {
	Base
	Name string `json:"name"`
}

// User represents an account. Password holds a bcrypt hash and is never
// part of the API representation.
type User struct {
	Base
	Email     string `json:"email"`
	Password  string `json:"-"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Place represents a rentable place
type Place struct {
	Base
	CityID         string   `json:"city_id"`
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	NumberRooms    int      `json:"number_rooms"`
	NumberBathroom int      `json:"number_bathrooms"`
	MaxGuest       int      `json:"max_guest"`
	PriceByNight   int      `json:"price_by_night"`
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AmenityIDs     []string `json:"amenity_ids"`
}

// Review represents a user's review of a place
type Review struct {
	Base
	PlaceID string `json:"place_id"`
	UserID  string `json:"user_id"`
	Text    string `json:"text"`
}

func (*State) Kind() Kind   { return KindState }
func (*City) Kind() Kind    { return KindCity }
func (*Amenity) Kind() Kind { return KindAmenity }
func (*User) Kind() Kind    { return KindUser }
func (*Place) Kind() Kind   { return KindPlace }
func (*Review) Kind() Kind  { return KindReview }

// New returns an empty entity of the given kind
func New(kind Kind) (Entity, bool) {
	switch kind {
	case KindState:
		return &State{}, true
	case KindCity:
		return &City{}, true
	case KindAmenity:
		return &Amenity{}, true
	case KindUser:
		return &User{}, true
	case KindPlace:
		return &Place{AmenityIDs: []string{}}, true
	case KindReview:
		return &Review{}, true
	}
	return nil, false
}

// HasAmenity reports whether the amenity is linked to the place
func (p *Place) HasAmenity(amenityID string) bool {
	return slices.Contains(p.AmenityIDs, amenityID)
}

// LinkAmenity attaches an amenity and reports whether the link is new
func (p *Place) LinkAmenity(amenityID string) bool {
	if p.HasAmenity(amenityID) {
		return false
	}
	p.AmenityIDs = append(p.AmenityIDs, amenityID)
	return true
}

// UnlinkAmenity detaches an amenity and reports whether it was linked
func (p *Place) UnlinkAmenity(amenityID string) bool {
	i := slices.Index(p.AmenityIDs, amenityID)
	if i < 0 {
		return false
	}
	p.AmenityIDs = slices.Delete(p.AmenityIDs, i, i+1)
	return true
}
