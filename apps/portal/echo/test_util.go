package echoportal

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"

	emailsvc "github.com/csamedu/portal/services/email"
	logsvc "github.com/csamedu/portal/services/logger"
	inmemstore "github.com/csamedu/portal/storage/session/inmem"
)

const goodPassword = "open-sesame-1"

// fakeBackend stands in for the school REST API.
type fakeBackend struct {
	srv *httptest.Server

	mu           sync.Mutex
	rejectTokens bool // authed endpoints answer 401
}

func (fb *fakeBackend) setRejectTokens(v bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectTokens = v
}

func (fb *fakeBackend) rejecting() bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.rejectTokens
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := new(fakeBackend)

	profiles := map[session.Role]map[string]interface{}{
		session.RoleAdmin:   {"id": 1, "full_name": "Aminata Keita", "username": "akeita", "email": "admin@csam.edu"},
		session.RoleTeacher: {"id": "t-9", "full_name": "Moussa Diallo", "email": "moussa@csam.edu", "trade": "Plumbing"},
		session.RoleStudent: {"id": 42, "full_name": "Awa Traore", "email": "awa@csam.edu", "trade": "Electricity"},
	}

	login := func(role session.Role, profileKey string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Password != goodPassword {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "message": "invalid email or password",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"success": true, "token": "tok-" + string(role), profileKey: profiles[role],
			})
		}
	}

	authed := func(role session.Role, data interface{}) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if fb.rejecting() || r.Header.Get("Authorization") != "Bearer tok-"+string(role) {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "message": "token rejected",
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": data})
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", login(session.RoleAdmin, "user"))
	mux.HandleFunc("/teachers/auth/login", login(session.RoleTeacher, "teacher"))
	mux.HandleFunc("/students/auth/login", login(session.RoleStudent, "student"))
	mux.HandleFunc("/teachers/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "message": "application received, awaiting approval",
		})
	})
	mux.HandleFunc("/auth/register", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true, "message": "account created",
		})
	})

	mux.HandleFunc("/testimonials/approved", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": []map[string]interface{}{
				{"id": "tm1", "author": "Awa Traore", "quote": "CSAM changed my life", "approved": true},
			},
		})
	})
	mux.HandleFunc("/news", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"id": "n1", "title": "Open day", "body": "Saturday"}},
		})
	})
	mux.HandleFunc("/blog/published", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    []map[string]interface{}{{"id": "b1", "title": "New workshop", "slug": "new-workshop"}},
		})
	})

	for _, role := range session.AllRoles {
		role := role
		mux.HandleFunc("/"+string(role)+"/exams", authed(role, []map[string]interface{}{
			{"id": "e1", "title": "Wiring basics", "trade": "Electricity", "max_mark": 20},
		}))
		mux.HandleFunc("/"+string(role)+"/attendance/summary", authed(role, map[string]interface{}{
			"present": 40, "absent": 2, "late": 1, "rate": 0.93,
		}))
		mux.HandleFunc("/"+string(role)+"/notifications", authed(role, []map[string]interface{}{
			{"id": "nt1", "title": "Exam scheduled", "read": false},
		}))
		mux.HandleFunc("/"+string(role)+"/notifications/unread-count", authed(role, map[string]int{"count": 2}))
	}

	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)
	return fb
}

func testConfig(backendURL string) *core.Config {
	return &core.Config{
		Debug:            true,
		TestMode:         true,
		Env:              "TEST",
		AppName:          "CSAM Portal",
		SecretKey:        "secret",
		DefaultFromEmail: "noreply@csam.edu",
		ContactEmail:     "office@csam.edu",
		Backend:          core.BackendConfig{BaseURL: backendURL, Timeout: 2 * time.Second},
		Sessions:         core.SessionConfig{Store: "inmem", TTL: time.Hour, CookieAge: time.Hour},
	}
}

type testApp struct {
	server  Server
	backend *fakeBackend
	store   session.Store
	conf    *core.Config

	cookies []*http.Cookie
}

func initApp(t *testing.T) *testApp {
	t.Helper()

	backend := newFakeBackend(t)
	conf := testConfig(backend.srv.URL)
	store := inmemstore.New()

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logsvc.NewConsoleLogger(log.New(io.Discard, "", 0)),
		Store:          store,
		API:            schoolapi.NewClient(conf, logsvc.NewConsoleLogger(log.New(io.Discard, "", 0))),
		MailSvc:        emailsvc.NewConsoleServiceMock(conf),
		DisableReqLogs: true,
	})
	return &testApp{server: server, backend: backend, store: store, conf: conf}
}

// do runs one request through the app, carrying cookies across calls like a
// browser would.
func (ta *testApp) do(t *testing.T, method, path string, data ...[]byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	for _, c := range ta.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ta.server.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		ta.setCookie(c)
	}
	return rec
}

func (ta *testApp) setCookie(c *http.Cookie) {
	for i, existing := range ta.cookies {
		if existing.Name == c.Name {
			ta.cookies[i] = c
			return
		}
	}
	ta.cookies = append(ta.cookies, c)
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

// loginAs authenticates the role through the HTTP flow.
func (ta *testApp) loginAs(t *testing.T, role session.Role, redirect ...string) *httptest.ResponseRecorder {
	t.Helper()

	path := loginPath(role)
	if len(redirect) > 0 {
		path += "?redirect=" + redirect[0]
	}
	creds := marshallObj(t, map[string]string{"email": string(role) + "@csam.edu", "password": goodPassword})
	return ta.do(t, http.MethodPost, path, creds)
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantData []byte) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(wantData))
	}
}

func checkRedirect(t *testing.T, rec *httptest.ResponseRecorder, wantCode int, wantLocation string) {
	t.Helper()
	if rec.Code != wantCode {
		t.Fatalf("code = %d; want %d (body: %s)", rec.Code, wantCode, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != wantLocation {
		t.Errorf("Location = %q; want %q", loc, wantLocation)
	}
}

func bodyContains(rec *httptest.ResponseRecorder, s string) bool {
	return strings.Contains(rec.Body.String(), s)
}
