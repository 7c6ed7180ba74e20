package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/auth"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"

	logsvc "github.com/csamedu/portal/services/logger"
	inmemstore "github.com/csamedu/portal/storage/session/inmem"
)

const goodPassword = "open-sesame-1"

var backendProfiles = map[session.Role]map[string]interface{}{
	session.RoleAdmin:   {"id": 1, "full_name": "Aminata Keita", "username": "akeita", "email": "admin@csam.edu"},
	session.RoleTeacher: {"id": "t-9", "full_name": "Moussa Diallo", "email": "moussa@csam.edu", "trade": "Plumbing"},
	session.RoleStudent: {"id": 42, "full_name": "Awa Traore", "email": "awa@csam.edu", "trade": "Electricity"},
}

// newFakeBackend fakes the school REST API's auth endpoints.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	login := func(role session.Role, profileKey string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			w.Header().Set("Content-Type", "application/json")

			if req.Password != goodPassword {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"message": "invalid email or password",
				})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":  true,
				"token":    "tok-" + string(role),
				profileKey: backendProfiles[role],
			})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", login(session.RoleAdmin, "user"))
	mux.HandleFunc("/teachers/auth/login", login(session.RoleTeacher, "teacher"))
	mux.HandleFunc("/students/auth/login", login(session.RoleStudent, "student"))
	mux.HandleFunc("/teachers/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "application received, awaiting approval",
		})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"message": "account created",
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newAPI(t *testing.T, baseURL string) *schoolapi.Client {
	t.Helper()
	conf := &core.Config{
		AppName: "CSAM Portal",
		Backend: core.BackendConfig{BaseURL: baseURL, Timeout: 2 * time.Second},
	}
	return schoolapi.NewClient(conf, logsvc.NewConsoleLogger(log.New(io.Discard, "", 0)))
}

func setup(t *testing.T) (*schoolapi.Client, session.Scope) {
	t.Helper()
	backend := newFakeBackend(t)
	return newAPI(t, backend.URL), session.NewScope(inmemstore.New(), "browser-1")
}

func TestClient_Login(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)

	for _, role := range session.AllRoles {
		client := auth.NewClient(role, api, scope)

		if client.IsAuthenticated(ctx) {
			t.Errorf("%s: authenticated before login", role)
		}

		profile, err := client.Login(ctx, auth.LoginCredentials{Email: "someone@csam.edu", Password: goodPassword})
		if err != nil {
			t.Fatalf("%s: Login() failed: %v", role, err)
		}
		if !client.IsAuthenticated(ctx) {
			t.Errorf("%s: not authenticated right after Login()", role)
		}

		stored, ok := client.StoredProfile(ctx)
		if !ok {
			t.Fatalf("%s: StoredProfile() absent after Login()", role)
		}
		if stored != profile {
			t.Errorf("%s: StoredProfile() = %+v; want %+v", role, stored, profile)
		}
		if stored.Role != role {
			t.Errorf("%s: stored role = %q", role, stored.Role)
		}
	}
}

func TestClient_LoginInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)
	client := auth.NewClient(session.RoleAdmin, api, scope)

	_, err := client.Login(ctx, auth.LoginCredentials{Email: "admin@csam.edu", Password: "wrong"})
	if !schoolapi.IsCredentialsError(err) {
		t.Fatalf("Login() error = %v; want CredentialsError", err)
	}
	if got := err.Error(); got != "invalid email or password" {
		t.Errorf("error message = %q; backend message not surfaced", got)
	}
	if client.IsAuthenticated(ctx) {
		t.Error("failed login mutated the session store")
	}
	if _, ok := client.StoredProfile(ctx); ok {
		t.Error("failed login stored a profile")
	}
}

func TestClient_LoginValidation(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)
	client := auth.NewClient(session.RoleStudent, api, scope)

	// checked locally, before any network call
	_, err := client.Login(ctx, auth.LoginCredentials{Email: "not-an-email", Password: ""})
	if err == nil {
		t.Fatal("Login() accepted invalid credentials shape")
	}
	if client.IsAuthenticated(ctx) {
		t.Error("invalid form mutated the session store")
	}
}

func TestClient_LoginNetworkError(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend(t)
	api := newAPI(t, backend.URL)
	backend.Close() // connection refused from here on

	client := auth.NewClient(session.RoleStudent, api, session.NewScope(inmemstore.New(), "browser-1"))

	_, err := client.Login(ctx, auth.LoginCredentials{Email: "awa@csam.edu", Password: goodPassword})
	if !core.IsNetworkError(err) {
		t.Fatalf("Login() error = %v; want NetworkError", err)
	}
	if schoolapi.IsCredentialsError(err) {
		t.Error("transport failure must not read as bad credentials")
	}
	if client.IsAuthenticated(ctx) {
		t.Error("network failure mutated the session store")
	}
}

func TestClient_RoleIsolation(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)

	teacher := auth.NewClient(session.RoleTeacher, api, scope)
	if _, err := teacher.Login(ctx, auth.LoginCredentials{Email: "moussa@csam.edu", Password: goodPassword}); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	if auth.NewClient(session.RoleAdmin, api, scope).IsAuthenticated(ctx) {
		t.Error("teacher login authenticated the admin domain")
	}
	if auth.NewClient(session.RoleStudent, api, scope).IsAuthenticated(ctx) {
		t.Error("teacher login authenticated the student domain")
	}
}

func TestClient_RegisterTeacherStaysPending(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)
	client := auth.NewClient(session.RoleTeacher, api, scope)

	result, err := client.RegisterTeacher(ctx, auth.TeacherRegistration{
		FullName:        "Moussa Diallo",
		Email:           "moussa@csam.edu",
		Trade:           "Plumbing",
		Password:        "open-sesame-1",
		PasswordConfirm: "open-sesame-1",
	})
	if err != nil {
		t.Fatalf("RegisterTeacher() failed: %v", err)
	}
	if !result.Pending {
		t.Error("teacher registration not reported pending")
	}
	if client.IsAuthenticated(ctx) {
		t.Error("registration must not self-authenticate")
	}
}

func TestClient_RegisterTeacherValidation(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)
	client := auth.NewClient(session.RoleTeacher, api, scope)

	_, err := client.RegisterTeacher(ctx, auth.TeacherRegistration{
		FullName:        "Moussa Diallo",
		Email:           "moussa@csam.edu",
		Trade:           "Plumbing",
		Password:        "open-sesame-1",
		PasswordConfirm: "does-not-match",
	})
	if err == nil {
		t.Fatal("RegisterTeacher() accepted mismatched passwords")
	}
}

func TestClient_LogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	api, scope := setup(t)
	client := auth.NewClient(session.RoleStudent, api, scope)

	if _, err := client.Login(ctx, auth.LoginCredentials{Email: "awa@csam.edu", Password: goodPassword}); err != nil {
		t.Fatalf("Login() failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := client.Logout(ctx); err != nil {
			t.Fatalf("Logout() #%d failed: %v", i+1, err)
		}
		if client.IsAuthenticated(ctx) {
			t.Errorf("Logout() #%d left the session authenticated", i+1)
		}
		if _, ok := client.StoredProfile(ctx); ok {
			t.Errorf("Logout() #%d left a profile behind", i+1)
		}
	}
}
