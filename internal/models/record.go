package models

import (
	"encoding/json"
	"fmt"
)

// userRecord is the persisted form of a user, which keeps the password hash
type userRecord struct {
	*User
	Password string `json:"password"`
}

// MarshalRecord encodes an entity in its persisted form. Unlike the API
// representation it includes write-only fields.
func MarshalRecord(e Entity) ([]byte, error) {
	if u, ok := e.(*User); ok {
		return json.Marshal(userRecord{User: u, Password: u.Password})
	}
	return json.Marshal(e)
}

// UnmarshalRecord decodes a persisted entity of the given kind
func UnmarshalRecord(kind Kind, data []byte) (Entity, error) {
	e, ok := New(kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	if u, ok := e.(*User); ok {
		rec := userRecord{User: u}
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
		}
		u.Password = rec.Password
		return u, nil
	}

	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	if p, ok := e.(*Place); ok && p.AmenityIDs == nil {
		p.AmenityIDs = []string{}
	}
	return e, nil
}
