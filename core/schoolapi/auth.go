package schoolapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/session"
)

var loginPaths = map[session.Role]string{
	session.RoleAdmin:   "/auth/login",
	session.RoleTeacher: "/teachers/auth/login",
	session.RoleStudent: "/students/auth/login",
}

var registerPaths = map[session.Role]string{
	session.RoleAdmin:   "/auth/register",
	session.RoleTeacher: "/teachers/auth/register",
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	// LoginResult is a freshly minted backend session: the opaque bearer
	// token and the principal's profile from the response envelope.
	LoginResult struct {
		Token   string
		Profile session.Profile
	}

	RegisterRequest struct {
		Username string `json:"username,omitempty"`
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"full_name"`
		Trade    string `json:"trade,omitempty"`
	}

	RegisterResult struct {
		// Pending is true when the account awaits admin approval and the
		// caller must not be logged in (teacher registrations).
		Pending bool
		Message string
	}
)

// Login posts credentials to the role's login endpoint.
// A non-success envelope surfaces as CredentialsError; transport failures as
// core.NetworkError.
func (c *Client) Login(ctx context.Context, role session.Role, req LoginRequest) (LoginResult, error) {
	path, ok := loginPaths[role]
	if !ok {
		return LoginResult{}, errors.Errorf("no login endpoint for role %q", role)
	}

	env, err := c.do(ctx, http.MethodPost, path, "", req)
	if err != nil {
		return LoginResult{}, err
	}
	if !env.Success || env.Token == "" {
		return LoginResult{}, &CredentialsError{Message: messageOr(env, "authentication failed")}
	}

	profile, err := decodeProfile(env, role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: env.Token, Profile: profile}, nil
}

// Register submits a new-account request. Teacher accounts come back pending
// approval and carry no token; admin registrations are active immediately
// but are still not logged in here (the caller decides).
func (c *Client) Register(ctx context.Context, role session.Role, req RegisterRequest) (RegisterResult, error) {
	path, ok := registerPaths[role]
	if !ok {
		return RegisterResult{}, errors.Errorf("no registration endpoint for role %q", role)
	}

	env, err := c.do(ctx, http.MethodPost, path, "", req)
	if err != nil {
		return RegisterResult{}, err
	}
	if !env.Success {
		return RegisterResult{}, core.NewValidationError(errors.New(messageOr(env, "registration failed")))
	}

	return RegisterResult{
		Pending: role == session.RoleTeacher,
		Message: messageOr(env, "account created"),
	}, nil
}

// decodeProfile reads the role-specific principal object off the envelope.
func decodeProfile(env *envelope, role session.Role) (session.Profile, error) {
	var raw json.RawMessage
	switch role {
	case session.RoleTeacher:
		raw = env.Teacher
	case session.RoleStudent:
		raw = env.Student
	default:
		raw = env.User
	}
	if len(raw) == 0 {
		return session.Profile{}, &RemoteError{Status: http.StatusOK, Message: "login response carried no profile"}
	}

	var p session.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return session.Profile{}, errors.Wrap(err, "decoding profile")
	}
	p.Role = role
	return p, nil
}
