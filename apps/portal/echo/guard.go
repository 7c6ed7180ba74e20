package echoportal

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/csamedu/portal/core/session"
)

// requireSession is the route guard for a role area. It is a pure local
// presence check re-evaluated on every request: no backend calls, no
// caching, so a session cleared elsewhere is caught on the next navigation.
// Unauthenticated requests are bounced to the role's login page with the
// attempted path+query preserved for the post-login redirect.
func (s *server) requireSession(role session.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			reqCtx := ctx.Request().Context()

			if scope, ok := s.requestScope(ctx, role); ok {
				if token, ok := scope.Token(reqCtx, role); ok {
					ctx.Set(ctxScopeKey, scope)
					ctx.Set(ctxTokenKey, token)
					if profile, ok := scope.Profile(reqCtx, role); ok {
						ctx.Set(ctxProfileKey, profile)
					}
					return next(ctx)
				}
			}
			return s.redirectToLogin(ctx, role)
		}
	}
}

// redirectToLogin bounces to the role's login route, capturing the attempted
// destination in a `redirect` query parameter.
func (s *server) redirectToLogin(ctx echo.Context, role session.Role) error {
	attempted := ctx.Request().RequestURI
	target := loginPath(role) + "?redirect=" + url.QueryEscape(attempted)
	return ctx.Redirect(http.StatusFound, target)
}

// safeRedirect returns the pending redirect target if it is a same-site
// relative path, else the role's landing page. Keeps the login flow from
// being used as an open redirector.
func safeRedirect(raw string, role session.Role) string {
	if raw == "" {
		return homePath(role)
	}
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.ContainsAny(raw, "\\\r\n") {
		return homePath(role)
	}
	return raw
}

func contextScope(ctx echo.Context) (session.Scope, bool) {
	scope, ok := ctx.Get(ctxScopeKey).(session.Scope)
	return scope, ok
}

func contextToken(ctx echo.Context) (string, bool) {
	token, ok := ctx.Get(ctxTokenKey).(string)
	return token, ok
}

func contextProfile(ctx echo.Context) (session.Profile, bool) {
	profile, ok := ctx.Get(ctxProfileKey).(session.Profile)
	return profile, ok
}
