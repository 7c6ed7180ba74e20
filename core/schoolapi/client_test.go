package schoolapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/session"

	logsvc "github.com/csamedu/portal/services/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &core.Config{
		Backend: core.BackendConfig{BaseURL: srv.URL, Timeout: 2 * time.Second},
	}
	return NewClient(conf, logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))), srv
}

func jsonHandler(status int, body interface{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}

func TestClient_RejectedTokenIsStaleSession(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(http.StatusUnauthorized, map[string]interface{}{
		"success": false, "message": "token expired",
	}))

	_, err := client.Exams(context.Background(), session.RoleStudent, "tok-stale")
	if errors.Cause(err) != ErrSessionRejected {
		t.Fatalf("Exams() error = %v; want ErrSessionRejected", err)
	}
}

func TestClient_UnauthenticatedDenialIsCredentialsError(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(http.StatusUnauthorized, map[string]interface{}{
		"success": false, "message": "invalid email or password",
	}))

	_, err := client.Login(context.Background(), session.RoleAdmin, LoginRequest{Email: "a@b.c", Password: "x"})
	if !IsCredentialsError(err) {
		t.Fatalf("Login() error = %v; want CredentialsError", err)
	}
}

func TestClient_NonSuccessEnvelopeOn200(t *testing.T) {
	// some backends answer 200 with success:false
	client, _ := newTestClient(t, jsonHandler(http.StatusOK, map[string]interface{}{
		"success": false, "message": "account deactivated",
	}))

	_, err := client.Login(context.Background(), session.RoleAdmin, LoginRequest{Email: "a@b.c", Password: "x"})
	if !IsCredentialsError(err) {
		t.Fatalf("Login() error = %v; want CredentialsError", err)
	}
	if err.Error() != "account deactivated" {
		t.Errorf("message = %q; backend message not surfaced", err.Error())
	}
}

func TestClient_MalformedResponse(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))

	_, err := client.News(context.Background())
	if _, ok := errors.Cause(err).(*RemoteError); !ok {
		t.Fatalf("News() error = %v; want RemoteError", err)
	}
}

func TestClient_ServerErrorIsRemoteError(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(http.StatusInternalServerError, map[string]interface{}{
		"success": false, "message": "boom",
	}))

	_, err := client.News(context.Background())
	remote, ok := errors.Cause(err).(*RemoteError)
	if !ok {
		t.Fatalf("News() error = %v; want RemoteError", err)
	}
	if remote.Status != http.StatusInternalServerError || remote.Message != "boom" {
		t.Errorf("RemoteError = %+v", remote)
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	client, srv := newTestClient(t, jsonHandler(http.StatusOK, nil))
	srv.Close()

	_, err := client.News(context.Background())
	if !core.IsNetworkError(err) {
		t.Fatalf("News() error = %v; want NetworkError", err)
	}
}

func TestClient_DecodesListPayloads(t *testing.T) {
	client, _ := newTestClient(t, jsonHandler(http.StatusOK, map[string]interface{}{
		"success": true,
		"data": []map[string]interface{}{
			{"id": "n1", "title": "Open day", "body": "Saturday"},
		},
	}))

	items, err := client.News(context.Background())
	if err != nil {
		t.Fatalf("News() failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Open day" {
		t.Errorf("News() = %+v", items)
	}
}

func TestClient_UnreadCount(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    map[string]int{"count": 3},
		})
	}))

	count, err := client.UnreadNotificationCount(context.Background(), session.RoleTeacher, "tok-abc")
	if err != nil {
		t.Fatalf("UnreadNotificationCount() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d; want 3", count)
	}
	if gotAuth != "Bearer tok-abc" {
		t.Errorf("Authorization = %q; want bearer token", gotAuth)
	}
}

func TestClient_LoginDecodesRoleProfiles(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		var body map[string]interface{}
		switch r.URL.Path {
		case "/students/auth/login":
			body = map[string]interface{}{
				"success": true, "token": "tok-s",
				"student": map[string]interface{}{"id": 42, "full_name": "Awa Traore", "email": "awa@csam.edu", "trade": "Electricity"},
			}
		case "/teachers/auth/login":
			body = map[string]interface{}{
				"success": true, "token": "tok-t",
				"teacher": map[string]interface{}{"id": "t-9", "full_name": "Moussa Diallo", "email": "moussa@csam.edu", "trade": "Plumbing"},
			}
		default:
			body = map[string]interface{}{
				"success": true, "token": "tok-a",
				"user": map[string]interface{}{"id": 1, "full_name": "Aminata Keita", "username": "akeita", "email": "admin@csam.edu"},
			}
		}
		_ = json.NewEncoder(w).Encode(body)
	}))

	tests := []struct {
		role     session.Role
		wantID   string
		wantName string
	}{
		{session.RoleAdmin, "1", "Aminata Keita"},
		{session.RoleTeacher, "t-9", "Moussa Diallo"},
		{session.RoleStudent, "42", "Awa Traore"},
	}
	for _, tt := range tests {
		res, err := client.Login(context.Background(), tt.role, LoginRequest{Email: "x@y.z", Password: "pwd"})
		if err != nil {
			t.Fatalf("%s: Login() failed: %v", tt.role, err)
		}
		if res.Profile.ID != tt.wantID || res.Profile.FullName != tt.wantName {
			t.Errorf("%s: profile = %+v", tt.role, res.Profile)
		}
		if res.Profile.Role != tt.role {
			t.Errorf("%s: profile role = %q", tt.role, res.Profile.Role)
		}
	}
}
