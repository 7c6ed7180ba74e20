package schoolapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/session"
)

// Authenticated reads backing the role dashboards. All of them require the
// stored bearer token; a 401/403 comes back as ErrSessionRejected so the
// caller can retire the stale session.

type (
	Exam struct {
		ID      string    `json:"id"`
		Title   string    `json:"title"`
		Trade   string    `json:"trade"`
		Date    time.Time `json:"date"`
		Score   *float64  `json:"score,omitempty"`
		MaxMark float64   `json:"max_mark"`
	}

	AttendanceSummary struct {
		Present int     `json:"present"`
		Absent  int     `json:"absent"`
		Late    int     `json:"late"`
		Rate    float64 `json:"rate"`
	}

	Notification struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Body      string    `json:"body"`
		Read      bool      `json:"read"`
		CreatedAt time.Time `json:"created_at"`
	}
)

func (c *Client) Exams(ctx context.Context, role session.Role, token string) ([]Exam, error) {
	var out []Exam
	return out, c.get(ctx, "/"+string(role)+"/exams", token, &out)
}

func (c *Client) Attendance(ctx context.Context, role session.Role, token string) (AttendanceSummary, error) {
	var out AttendanceSummary
	return out, c.get(ctx, "/"+string(role)+"/attendance/summary", token, &out)
}

func (c *Client) Notifications(ctx context.Context, role session.Role, token string) ([]Notification, error) {
	var out []Notification
	return out, c.get(ctx, "/"+string(role)+"/notifications", token, &out)
}

// UnreadNotificationCount returns the badge count polled by dashboards.
func (c *Client) UnreadNotificationCount(ctx context.Context, role session.Role, token string) (int, error) {
	env, err := c.do(ctx, http.MethodGet, "/"+string(role)+"/notifications/unread-count", token, nil)
	if err != nil {
		return 0, err
	}
	var payload struct {
		Count int `json:"count"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return 0, errors.Wrap(err, "decoding unread count")
		}
	}
	return payload.Count, nil
}
