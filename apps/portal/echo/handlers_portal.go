package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"
)

// Guarded dashboard endpoints. Every one of them goes through retireStale:
// a present-but-rejected token clears the role's session and bounces to its
// login page instead of leaving a "looks logged in but every call fails"
// half-state.

func (s *server) portalHome(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		profile, ok := contextProfile(ctx)
		if !ok {
			// authenticated but the cached profile is unreadable; the
			// session is only good for re-login
			return s.retireSession(ctx, role)
		}
		return ctx.JSON(http.StatusOK, profile)
	}
}

func (s *server) exams(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _ := contextToken(ctx)
		items, err := s.deps.API.Exams(ctx.Request().Context(), role, token)
		if err != nil {
			return s.retireStale(ctx, role, err)
		}
		return ctx.JSON(http.StatusOK, items)
	}
}

func (s *server) attendance(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _ := contextToken(ctx)
		summary, err := s.deps.API.Attendance(ctx.Request().Context(), role, token)
		if err != nil {
			return s.retireStale(ctx, role, err)
		}
		return ctx.JSON(http.StatusOK, summary)
	}
}

func (s *server) notifications(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _ := contextToken(ctx)
		items, err := s.deps.API.Notifications(ctx.Request().Context(), role, token)
		if err != nil {
			return s.retireStale(ctx, role, err)
		}
		return ctx.JSON(http.StatusOK, items)
	}
}

func (s *server) unreadCount(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token, _ := contextToken(ctx)
		count, err := s.deps.API.UnreadNotificationCount(ctx.Request().Context(), role, token)
		if err != nil {
			return s.retireStale(ctx, role, err)
		}
		return ctx.JSON(http.StatusOK, echo.Map{"count": count})
	}
}

// retireStale converts a session-rejected backend answer into a cleared
// session + login redirect; all other errors propagate untouched.
func (s *server) retireStale(ctx echo.Context, role session.Role, err error) error {
	if errors.Cause(err) != schoolapi.ErrSessionRejected {
		return err
	}
	return s.retireSession(ctx, role)
}

func (s *server) retireSession(ctx echo.Context, role session.Role) error {
	if scope, ok := contextScope(ctx); ok {
		if cerr := scope.Clear(ctx.Request().Context(), role); cerr != nil {
			s.deps.Logger.Warn("clearing stale session", cerr)
		}
	}
	return s.redirectToLogin(ctx, role)
}
