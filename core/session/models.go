package session

import (
	"encoding/json"
	"strconv"
	"time"
)

// Role namespaces the three independent authentication domains.
// Sessions for different roles never share storage keys.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

var AllRoles = []Role{RoleAdmin, RoleTeacher, RoleStudent}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole maps a path segment or flag value to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Profile is the cached display snapshot of the authenticated principal.
// It is written once at login time and read-only afterwards; staleness is
// accepted until the next login.
type Profile struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Trade    string `json:"trade,omitempty"` // teacher/student vocational trade
	Role     Role   `json:"role"`
}

// UnmarshalJSON tolerates numeric ids; the backend is not consistent about
// serializing them as strings.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias Profile
	aux := struct {
		ID interface{} `json:"id"`
		*alias
	}{alias: (*alias)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	switch v := aux.ID.(type) {
	case string:
		p.ID = v
	case float64:
		p.ID = strconv.FormatFloat(v, 'f', -1, 64)
	default:
		p.ID = ""
	}
	return nil
}

// Record is what a Store persists per (scope, role): the opaque bearer
// credential and the profile snapshot, kept in one record so the pair is
// always written and cleared atomically.
type Record struct {
	Token     string          `json:"token"`
	Profile   json.RawMessage `json:"profile"`
	CreatedAt time.Time       `json:"created_at"` // UTC
}

// DecodeProfile parses the cached profile defensively: malformed or
// incomplete cached data yields absent, never an error.
func (r Record) DecodeProfile() (Profile, bool) {
	if len(r.Profile) == 0 {
		return Profile{}, false
	}
	var p Profile
	if err := json.Unmarshal(r.Profile, &p); err != nil {
		return Profile{}, false
	}
	if p.ID == "" || !p.Role.Valid() {
		return Profile{}, false
	}
	return p, true
}
