package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoSession is returned by Store.Get when no record exists for the
	// (scope, role) pair.
	ErrNoSession = errors.New("no session")

	errEmptyToken = errors.New("session token must not be empty")
)

type (
	// Store is durable, role-namespaced persistence of session Records.
	// Implementations live under storage/session.
	Store interface {
		Set(ctx context.Context, scopeID string, role Role, rec Record) error
		Get(ctx context.Context, scopeID string, role Role) (Record, error)
		// Clear removes the record; clearing an absent record is not an error.
		Clear(ctx context.Context, scopeID string, role Role) error
	}

	// Purger is implemented by stores that can drop records older than a
	// cutoff (maintenance; redis expires records on its own).
	Purger interface {
		PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
	}
)

// Key builds the namespaced storage key for a (role, scope) pair.
// Role comes first so the three domains stay disjoint by construction.
func Key(role Role, scopeID string) string {
	return "portal:session:" + string(role) + ":" + scopeID
}

// Scope binds a Store to one client identity (one browser, in practice) and
// exposes the per-role session operations the rest of the app works with.
type Scope struct {
	store Store
	id    string
}

func NewScope(store Store, id string) Scope {
	return Scope{store: store, id: id}
}

func (s Scope) ID() string { return s.id }

// Set persists the credential and profile together, overwriting any prior
// session for the role.
func (s Scope) Set(ctx context.Context, role Role, token string, profile Profile) error {
	if token == "" {
		return errEmptyToken
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return errors.Wrap(err, "encoding profile")
	}
	rec := Record{Token: token, Profile: raw, CreatedAt: time.Now().UTC()}
	return errors.Wrap(s.store.Set(ctx, s.id, role, rec), "storing session")
}

// Token reports the stored credential for the role. Absent sessions and
// storage failures both read as "not authenticated"; this is a presence
// check, not a server-side validation.
func (s Scope) Token(ctx context.Context, role Role) (string, bool) {
	rec, err := s.store.Get(ctx, s.id, role)
	if err != nil || rec.Token == "" {
		return "", false
	}
	return rec.Token, true
}

// Profile returns the cached profile for the role, or absent. A profile
// without a credential is never treated as a session.
func (s Scope) Profile(ctx context.Context, role Role) (Profile, bool) {
	rec, err := s.store.Get(ctx, s.id, role)
	if err != nil || rec.Token == "" {
		return Profile{}, false
	}
	return rec.DecodeProfile()
}

// Clear drops the role's session. Idempotent.
func (s Scope) Clear(ctx context.Context, role Role) error {
	return errors.Wrap(s.store.Clear(ctx, s.id, role), "clearing session")
}
