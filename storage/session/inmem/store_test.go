package inmemstore

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/csamedu/portal/core/session"
)

var testProfile = session.Profile{
	ID:       "42",
	FullName: "Awa Traore",
	Email:    "awa@csam.edu",
	Trade:    "Electricity",
	Role:     session.RoleStudent,
}

func TestScope_SetGetClear(t *testing.T) {
	ctx := context.Background()
	scope := session.NewScope(New(), "browser-1")

	if _, ok := scope.Token(ctx, session.RoleStudent); ok {
		t.Fatal("fresh scope should have no token")
	}

	if err := scope.Set(ctx, session.RoleStudent, "tok-123", testProfile); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	token, ok := scope.Token(ctx, session.RoleStudent)
	if !ok || token != "tok-123" {
		t.Errorf("Token() = %q, %v; want tok-123, true", token, ok)
	}
	prof, ok := scope.Profile(ctx, session.RoleStudent)
	if !ok {
		t.Fatal("Profile() absent after Set")
	}
	if prof != testProfile {
		t.Errorf("Profile() = %+v; want %+v", prof, testProfile)
	}

	if err := scope.Clear(ctx, session.RoleStudent); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, ok := scope.Token(ctx, session.RoleStudent); ok {
		t.Error("token still present after Clear")
	}
	if _, ok := scope.Profile(ctx, session.RoleStudent); ok {
		t.Error("profile still present after Clear")
	}
}

func TestScope_ClearIsIdempotent(t *testing.T) {
	ctx := context.Background()
	scope := session.NewScope(New(), "browser-1")

	if err := scope.Clear(ctx, session.RoleAdmin); err != nil {
		t.Fatalf("Clear() on absent session failed: %v", err)
	}
	if err := scope.Clear(ctx, session.RoleAdmin); err != nil {
		t.Fatalf("second Clear() failed: %v", err)
	}
}

func TestScope_RoleIsolation(t *testing.T) {
	ctx := context.Background()
	scope := session.NewScope(New(), "browser-1")

	teacher := testProfile
	teacher.Role = session.RoleTeacher
	if err := scope.Set(ctx, session.RoleTeacher, "tok-t", teacher); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	if _, ok := scope.Token(ctx, session.RoleAdmin); ok {
		t.Error("teacher login leaked into admin namespace")
	}
	if _, ok := scope.Token(ctx, session.RoleStudent); ok {
		t.Error("teacher login leaked into student namespace")
	}
	if _, ok := scope.Token(ctx, session.RoleTeacher); !ok {
		t.Error("teacher session missing")
	}
}

func TestScope_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := New()
	s1 := session.NewScope(store, "browser-1")
	s2 := session.NewScope(store, "browser-2")

	if err := s1.Set(ctx, session.RoleStudent, "tok-1", testProfile); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if _, ok := s2.Token(ctx, session.RoleStudent); ok {
		t.Error("session leaked across scopes")
	}
}

func TestScope_RejectsEmptyToken(t *testing.T) {
	ctx := context.Background()
	scope := session.NewScope(New(), "browser-1")

	if err := scope.Set(ctx, session.RoleStudent, "", testProfile); err == nil {
		t.Error("Set() accepted an empty token")
	}
	if _, ok := scope.Token(ctx, session.RoleStudent); ok {
		t.Error("empty-token Set left a session behind")
	}
}

func TestScope_CorruptProfileReadsAbsent(t *testing.T) {
	ctx := context.Background()
	store := New()
	scope := session.NewScope(store, "browser-1")

	for name, raw := range map[string]json.RawMessage{
		"malformed json": json.RawMessage(`{"id": "42",`),
		"wrong shape":    json.RawMessage(`"just a string"`),
		"missing id":     json.RawMessage(`{"full_name": "Awa", "role": "student"}`),
		"bad role":       json.RawMessage(`{"id": "42", "role": "superuser"}`),
		"empty":          nil,
	} {
		rec := session.Record{Token: "tok-123", Profile: raw, CreatedAt: time.Now().UTC()}
		if err := store.Set(ctx, "browser-1", session.RoleStudent, rec); err != nil {
			t.Fatalf("%s: Set() failed: %v", name, err)
		}

		if _, ok := scope.Profile(ctx, session.RoleStudent); ok {
			t.Errorf("%s: corrupt profile parsed as present", name)
		}
		// the credential itself is still a session
		if _, ok := scope.Token(ctx, session.RoleStudent); !ok {
			t.Errorf("%s: token lost", name)
		}
	}
}

func TestStore_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	store := New()

	old := session.Record{Token: "tok-old", CreatedAt: time.Now().UTC().Add(-10 * 24 * time.Hour)}
	fresh := session.Record{Token: "tok-new", CreatedAt: time.Now().UTC()}
	if err := store.Set(ctx, "browser-1", session.RoleStudent, old); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if err := store.Set(ctx, "browser-2", session.RoleStudent, fresh); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}

	n, err := store.PurgeOlderThan(ctx, time.Now().UTC().Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("PurgeOlderThan() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("purged = %d; want 1", n)
	}
	if _, err := store.Get(ctx, "browser-1", session.RoleStudent); err != session.ErrNoSession {
		t.Errorf("old session still present: %v", err)
	}
	if _, err := store.Get(ctx, "browser-2", session.RoleStudent); err != nil {
		t.Errorf("fresh session purged: %v", err)
	}
}
