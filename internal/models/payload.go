package models

import (
	"golang.org/x/crypto/bcrypt"
)

// Create payloads use pointers for required fields so that an absent key
// can be told apart from an empty value. Missing returns the first required
// field that was not supplied.

type StateCreate struct {
	Name *string `json:"name"`
}

func (p StateCreate) Missing() string {
	if p.Name == nil {
		return "name"
	}
	return ""
}

func (p StateCreate) Build() *State {
	return &State{Name: *p.Name}
}

type CityCreate struct {
	Name *string `json:"name"`
}

func (p CityCreate) Missing() string {
	if p.Name == nil {
		return "name"
	}
	return ""
}

func (p CityCreate) Build(stateID string) *City {
	return &City{StateID: stateID, Name: *p.Name}
}

type AmenityCreate struct {
	Name *string `json:"name"`
}

func (p AmenityCreate) Missing() string {
	if p.Name == nil {
		return "name"
	}
	return ""
}

func (p AmenityCreate) Build() *Amenity {
	return &Amenity{Name: *p.Name}
}

type UserCreate struct {
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
}

func (p UserCreate) Missing() string {
	switch {
	case p.Email == nil:
		return "email"
	case p.Password == nil:
		return "password"
	}
	return ""
}

// Build hashes the password with the given bcrypt cost
func (p UserCreate) Build(cost int) (*User, error) {
	u := &User{Email: *p.Email, FirstName: p.FirstName, LastName: p.LastName}
	if err := u.SetPassword(*p.Password, cost); err != nil {
		return nil, err
	}
	return u, nil
}

type PlaceCreate struct {
	UserID         *string `json:"user_id"`
	Name           *string `json:"name"`
	Description    string  `json:"description"`
	NumberRooms    int     `json:"number_rooms"`
	NumberBathroom int     `json:"number_bathrooms"`
	MaxGuest       int     `json:"max_guest"`
	PriceByNight   int     `json:"price_by_night"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

func (p PlaceCreate) Missing() string {
	switch {
	case p.UserID == nil:
		return "user_id"
	case p.Name == nil:
		return "name"
	}
	return ""
}

func (p PlaceCreate) Build(cityID string) *Place {
	return &Place{
		CityID:         cityID,
		UserID:         *p.UserID,
		Name:           *p.Name,
		Description:    p.Description,
		NumberRooms:    p.NumberRooms,
		NumberBathroom: p.NumberBathroom,
		MaxGuest:       p.MaxGuest,
		PriceByNight:   p.PriceByNight,
		Latitude:       p.Latitude,
		Longitude:      p.Longitude,
		AmenityIDs:     []string{},
	}
}

type ReviewCreate struct {
	UserID *string `json:"user_id"`
	Text   *string `json:"text"`
}

func (p ReviewCreate) Missing() string {
	switch {
	case p.UserID == nil:
		return "user_id"
	case p.Text == nil:
		return "text"
	}
	return ""
}

func (p ReviewCreate) Build(placeID string) *Review {
	return &Review{PlaceID: placeID, UserID: *p.UserID, Text: *p.Text}
}

// Update payloads list the only fields a client may change. Keys such as
// id, created_at and updated_at have no field here and are dropped by the
// decoder.

type StateUpdate struct {
	Name *string `json:"name"`
}

func (p StateUpdate) Apply(s *State) {
	if p.Name != nil {
		s.Name = *p.Name
	}
}

type CityUpdate struct {
	Name *string `json:"name"`
}

func (p CityUpdate) Apply(c *City) {
	if p.Name != nil {
		c.Name = *p.Name
	}
}

type AmenityUpdate struct {
	Name *string `json:"name"`
}

func (p AmenityUpdate) Apply(a *Amenity) {
	if p.Name != nil {
		a.Name = *p.Name
	}
}

type UserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Password  *string `json:"password"`
}

func (p UserUpdate) Apply(u *User, cost int) error {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Password != nil {
		return u.SetPassword(*p.Password, cost)
	}
	return nil
}

type PlaceUpdate struct {
	Name           *string  `json:"name"`
	Description    *string  `json:"description"`
	NumberRooms    *int     `json:"number_rooms"`
	NumberBathroom *int     `json:"number_bathrooms"`
	MaxGuest       *int     `json:"max_guest"`
	PriceByNight   *int     `json:"price_by_night"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
}

func (p PlaceUpdate) Apply(pl *Place) {
	if p.Name != nil {
		pl.Name = *p.Name
	}
	if p.Description != nil {
		pl.Description = *p.Description
	}
	if p.NumberRooms != nil {
		pl.NumberRooms = *p.NumberRooms
	}
	if p.NumberBathroom != nil {
		pl.NumberBathroom = *p.NumberBathroom
	}
	if p.MaxGuest != nil {
		pl.MaxGuest = *p.MaxGuest
	}
	if p.PriceByNight != nil {
		pl.PriceByNight = *p.PriceByNight
	}
	if p.Latitude != nil {
		pl.Latitude = *p.Latitude
	}
	if p.Longitude != nil {
		pl.Longitude = *p.Longitude
	}
}

type ReviewUpdate struct {
	Text *string `json:"text"`
}

func (p ReviewUpdate) Apply(r *Review) {
	if p.Text != nil {
		r.Text = *p.Text
	}
}

// SetPassword stores a bcrypt hash of the plain password
func (u *User) SetPassword(plain string, cost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plain)) == nil
}
