// Package auth mediates between the portal UI and the backend's
// authentication endpoints, per role, on top of a session scope.
package auth

import (
	"context"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"
)

// Client is cheap to construct; the portal builds one per request for the
// role area being served, bound to the request's session scope.
type Client struct {
	role  session.Role
	api   *schoolapi.Client
	scope session.Scope
}

func NewClient(role session.Role, api *schoolapi.Client, scope session.Scope) *Client {
	return &Client{role: role, api: api, scope: scope}
}

func (c *Client) Role() session.Role { return c.role }

// Login authenticates against the backend and persists the session.
// The storage write completes before Login returns, so IsAuthenticated is
// guaranteed true immediately after a successful call. On any failure the
// stored session is left untouched.
func (c *Client) Login(ctx context.Context, creds LoginCredentials) (session.Profile, error) {
	if err := creds.Validate(); err != nil {
		return session.Profile{}, err
	}

	res, err := c.api.Login(ctx, c.role, schoolapi.LoginRequest{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err != nil {
		return session.Profile{}, err
	}

	if err := c.scope.Set(ctx, c.role, res.Token, res.Profile); err != nil {
		return session.Profile{}, errors.Wrap(err, "persisting session")
	}
	return res.Profile, nil
}

// RegisterTeacher submits a teacher application. The account is created in a
// pending state awaiting admin approval; the teacher is never logged in here
// and must authenticate explicitly once approved.
func (c *Client) RegisterTeacher(ctx context.Context, form TeacherRegistration) (schoolapi.RegisterResult, error) {
	if c.role != session.RoleTeacher {
		return schoolapi.RegisterResult{}, errors.Errorf("teacher registration on %q client", c.role)
	}
	if err := form.Validate(); err != nil {
		return schoolapi.RegisterResult{}, err
	}
	return c.api.Register(ctx, c.role, schoolapi.RegisterRequest{
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
		Trade:    form.Trade,
	})
}

// RegisterAdmin submits a new admin account request.
func (c *Client) RegisterAdmin(ctx context.Context, form AdminRegistration) (schoolapi.RegisterResult, error) {
	if c.role != session.RoleAdmin {
		return schoolapi.RegisterResult{}, errors.Errorf("admin registration on %q client", c.role)
	}
	if err := form.Validate(); err != nil {
		return schoolapi.RegisterResult{}, err
	}
	return c.api.Register(ctx, c.role, schoolapi.RegisterRequest{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		FullName: form.FullName,
	})
}

// IsAuthenticated reports token presence only. It never talks to the
// backend; an expired-but-present token reads as authenticated until the
// first authenticated call fails (the stale-session path handles that).
func (c *Client) IsAuthenticated(ctx context.Context) bool {
	_, ok := c.scope.Token(ctx, c.role)
	return ok
}

// Token exposes the stored credential for authenticated backend calls.
func (c *Client) Token(ctx context.Context) (string, bool) {
	return c.scope.Token(ctx, c.role)
}

// StoredProfile returns the cached profile snapshot, or absent.
func (c *Client) StoredProfile(ctx context.Context) (session.Profile, bool) {
	return c.scope.Profile(ctx, c.role)
}

// Logout drops the role's session. Stateless bearer tokens mean there is no
// backend call to make; calling it on an absent session is a no-op.
func (c *Client) Logout(ctx context.Context) error {
	return c.scope.Clear(ctx, c.role)
}
