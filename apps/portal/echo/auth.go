package echoportal

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/session"
)

// Each role area identifies the browser with its own cookie so the three
// session namespaces stay independent down to the transport. The cookie
// carries a signed claim wrapping the scope id; a forged or expired cookie
// reads as no session at all.

const (
	ctxScopeKey   = "sessionScope"
	ctxTokenKey   = "sessionToken"
	ctxProfileKey = "sessionProfile"
)

type scopeClaims struct {
	jwt.StandardClaims
	ScopeID string `json:"sid"`
	Role    string `json:"role"`
}

func cookieName(role session.Role) string {
	return "csam_" + string(role) + "_scope"
}

func loginPath(role session.Role) string {
	return "/" + string(role) + "/login"
}

func homePath(role session.Role) string {
	return "/" + string(role) + "/home"
}

func (s *server) signScopeCookie(role session.Role, scopeID string) (string, error) {
	now := time.Now()
	claims := &scopeClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    s.deps.Conf.AppName,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.deps.Conf.Sessions.CookieAge).Unix(),
		},
		ScopeID: scopeID,
		Role:    string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(s.deps.Conf.SecretKey))
	return ss, errors.Wrap(err, "signing scope cookie")
}

func (s *server) parseScopeCookie(role session.Role, value string) (string, error) {
	claims := new(scopeClaims)
	_, err := jwt.ParseWithClaims(value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(s.deps.Conf.SecretKey), nil
	})
	if err != nil {
		return "", errors.Wrap(err, "parsing scope cookie")
	}
	if claims.Role != string(role) || claims.ScopeID == "" {
		return "", errors.New("scope cookie role mismatch")
	}
	return claims.ScopeID, nil
}

// requestScope resolves the browser's existing scope for the role, if any.
func (s *server) requestScope(ctx echo.Context, role session.Role) (session.Scope, bool) {
	cookie, err := ctx.Cookie(cookieName(role))
	if err != nil || cookie.Value == "" {
		return session.Scope{}, false
	}
	scopeID, err := s.parseScopeCookie(role, cookie.Value)
	if err != nil {
		return session.Scope{}, false
	}
	return session.NewScope(s.deps.Store, scopeID), true
}

// ensureScope returns the browser's scope for the role, minting a fresh one
// (and setting its cookie) when absent.
func (s *server) ensureScope(ctx echo.Context, role session.Role) (session.Scope, error) {
	if scope, ok := s.requestScope(ctx, role); ok {
		return scope, nil
	}

	scopeID := uuid.New().String()
	signed, err := s.signScopeCookie(role, scopeID)
	if err != nil {
		return session.Scope{}, err
	}
	ctx.SetCookie(&http.Cookie{
		Name:     cookieName(role),
		Value:    signed,
		Path:     "/",
		Expires:  time.Now().Add(s.deps.Conf.Sessions.CookieAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !s.deps.Conf.Debug,
	})
	return session.NewScope(s.deps.Store, scopeID), nil
}
