package echoportal

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/auth"
	"github.com/csamedu/portal/core/session"
)

// loginPage hands the frontend what it needs to render the form: the role
// and the pending redirect target, echoed back so it survives the POST.
func (s *server) loginPage(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, echo.Map{
			"role":     role,
			"redirect": safeRedirect(ctx.QueryParam("redirect"), role),
		})
	}
}

// login authenticates the role's session and answers 303 to the pending
// redirect target (or the role's landing page). Failed logins leave the
// stored session untouched; the error handler surfaces the message.
func (s *server) login(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data auth.LoginCredentials
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to LoginCredentials")
		}

		scope, err := s.ensureScope(ctx, role)
		if err != nil {
			return errors.Wrap(err, "resolving session scope")
		}

		client := auth.NewClient(role, s.deps.API, scope)
		if _, err := client.Login(ctx.Request().Context(), data); err != nil {
			return err
		}

		return ctx.Redirect(http.StatusSeeOther, safeRedirect(ctx.QueryParam("redirect"), role))
	}
}

// logout clears the role's session and bounces to its login page. Logging
// out an absent session is a no-op, not an error.
func (s *server) logout(role session.Role) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		if scope, ok := s.requestScope(ctx, role); ok {
			client := auth.NewClient(role, s.deps.API, scope)
			if err := client.Logout(ctx.Request().Context()); err != nil {
				return errors.Wrap(err, "logging out")
			}
		}
		return ctx.Redirect(http.StatusSeeOther, loginPath(role))
	}
}

// registerTeacher submits a teacher application. The account stays pending
// until an admin approves it; the applicant is never logged in here.
func (s *server) registerTeacher(ctx echo.Context) error {
	var data auth.TeacherRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherRegistration")
	}

	scope, err := s.ensureScope(ctx, session.RoleTeacher)
	if err != nil {
		return errors.Wrap(err, "resolving session scope")
	}

	client := auth.NewClient(session.RoleTeacher, s.deps.API, scope)
	result, err := client.RegisterTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusAccepted, echo.Map{
		"message": result.Message,
		"pending": result.Pending,
	})
}

func (s *server) registerAdmin(ctx echo.Context) error {
	var data auth.AdminRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AdminRegistration")
	}

	scope, err := s.ensureScope(ctx, session.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "resolving session scope")
	}

	client := auth.NewClient(session.RoleAdmin, s.deps.API, scope)
	result, err := client.RegisterAdmin(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, echo.Map{
		"message": result.Message,
		"pending": result.Pending,
	})
}
