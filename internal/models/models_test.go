package models

import (
	"encoding/json"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, ok := ParseKind(string(k))
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, ok)
		}
		if k.Plural() == "" {
			t.Fatalf("kind %q has no plural", k)
		}
	}
	if _, ok := ParseKind("BaseModel"); ok {
		t.Fatalf("expected unknown kind to be rejected")
	}
}

func TestPlaceAmenityLinks(t *testing.T) {
	p := &Place{AmenityIDs: []string{}}

	if !p.LinkAmenity("a1") {
		t.Fatalf("expected first link to be new")
	}
	if p.LinkAmenity("a1") {
		t.Fatalf("expected second link to be a no-op")
	}
	if len(p.AmenityIDs) != 1 {
		t.Fatalf("expected 1 amenity, got=%d", len(p.AmenityIDs))
	}
	if p.UnlinkAmenity("a2") {
		t.Fatalf("unlinking an absent amenity must report false")
	}
	if !p.UnlinkAmenity("a1") || p.HasAmenity("a1") {
		t.Fatalf("expected a1 to be unlinked")
	}
}

func TestUserRecordKeepsPasswordHash(t *testing.T) {
	u, err := UserCreate{
		Email:    ptr("a@b.c"),
		Password: ptr("secret"),
	}.Build(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	u.ID = "u1"

	api, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(api), "password") {
		t.Fatalf("password leaked into API representation: %s", api)
	}

	rec, err := MarshalRecord(u)
	if err != nil {
		t.Fatalf("MarshalRecord: %v", err)
	}
	back, err := UnmarshalRecord(KindUser, rec)
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	got := back.(*User)
	if got.ID != "u1" || got.Email != "a@b.c" {
		t.Fatalf("unexpected user after round trip: %+v", got)
	}
	if !got.CheckPassword("secret") {
		t.Fatalf("expected stored hash to verify the original password")
	}
}

func TestUnmarshalRecordNormalizesAmenityIDs(t *testing.T) {
	e, err := UnmarshalRecord(KindPlace, []byte(`{"id":"p1","amenity_ids":null}`))
	if err != nil {
		t.Fatalf("UnmarshalRecord: %v", err)
	}
	if ids := e.(*Place).AmenityIDs; ids == nil || len(ids) != 0 {
		t.Fatalf("expected empty non-nil amenity ids, got=%#v", ids)
	}

	if _, err := UnmarshalRecord("Nope", []byte(`{}`)); err == nil {
		t.Fatalf("expected error for unknown kind")
	}
}

func TestCreateMissingFieldOrder(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"user empty", UserCreate{}.Missing(), "email"},
		{"user no password", UserCreate{Email: ptr("x")}.Missing(), "password"},
		{"place empty", PlaceCreate{}.Missing(), "user_id"},
		{"place no name", PlaceCreate{UserID: ptr("u")}.Missing(), "name"},
		{"review no text", ReviewCreate{UserID: ptr("u")}.Missing(), "text"},
		{"state ok", StateCreate{Name: ptr("")}.Missing(), ""},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s: Missing() = %q, want %q", tt.name, tt.got, tt.want)
		}
	}
}

func TestPlaceUpdateAppliesOnlyGivenFields(t *testing.T) {
	p := &Place{Name: "old", Description: "keep", NumberRooms: 2}

	var upd PlaceUpdate
	body := `{"name":"new","number_rooms":5,"id":"hijack","city_id":"other"}`
	if err := json.Unmarshal([]byte(body), &upd); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	upd.Apply(p)

	if p.Name != "new" || p.NumberRooms != 5 {
		t.Fatalf("expected whitelisted fields applied, got=%+v", p)
	}
	if p.Description != "keep" || p.ID != "" || p.CityID != "" {
		t.Fatalf("expected other fields untouched, got=%+v", p)
	}
}

func ptr(s string) *string { return &s }
