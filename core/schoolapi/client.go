// Package schoolapi is the typed client for the school's REST backend.
// The portal owns no domain data; everything here is fetched over HTTP and
// rendered as-is.
package schoolapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core"
)

var (
	// ErrSessionRejected signals a present-but-stale credential: the backend
	// answered an authenticated call with 401/403. Callers must clear the
	// role's session and send the user back to its login page.
	ErrSessionRejected = errors.New("session rejected by backend")
)

// CredentialsError carries the backend's message for a failed login.
type CredentialsError struct {
	Message string
}

func (e CredentialsError) Error() string { return e.Message }

func IsCredentialsError(err error) bool {
	_, ok := errors.Cause(err).(*CredentialsError)
	return ok
}

// RemoteError is any other non-2xx answer from the backend.
type RemoteError struct {
	Status  int
	Message string
}

func (e RemoteError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// envelope is the backend's uniform response shape:
// {success, message, token, user|teacher|student, data}.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Token   string          `json:"token"`
	User    json.RawMessage `json:"user"`
	Teacher json.RawMessage `json:"teacher"`
	Student json.RawMessage `json:"student"`
	Data    json.RawMessage `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
	logger  core.Logger
}

func NewClient(conf *core.Config, logger core.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.Backend.BaseURL, "/"),
		http:    &http.Client{Timeout: conf.Backend.Timeout},
		logger:  logger,
	}
}

// do performs a request and decodes the envelope. Transport failures come
// back as core.NetworkError; auth denials on authed calls as
// ErrSessionRejected; other non-2xx as RemoteError.
func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (*envelope, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend unreachable: "+method+" "+path, err)
		return nil, core.NewNetworkError(method+" "+path, err)
	}
	defer res.Body.Close()

	raw, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, core.NewNetworkError("reading response of "+path, err)
	}

	env := new(envelope)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, env); err != nil {
			return nil, &RemoteError{Status: res.StatusCode, Message: "malformed response"}
		}
	}

	switch {
	case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
		if token != "" {
			return nil, errors.Wrap(ErrSessionRejected, env.Message)
		}
		return nil, &CredentialsError{Message: messageOr(env, "authentication failed")}
	case res.StatusCode >= http.StatusBadRequest:
		return nil, &RemoteError{Status: res.StatusCode, Message: messageOr(env, http.StatusText(res.StatusCode))}
	}
	return env, nil
}

// get fetches a list payload from `data`.
func (c *Client) get(ctx context.Context, path, token string, out interface{}) error {
	env, err := c.do(ctx, http.MethodGet, path, token, nil)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(env.Data, out), "decoding %s payload", path)
}

func messageOr(env *envelope, fallback string) string {
	if env != nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
