// Package pgstore keeps portal sessions in a single postgres table, for
// deployments that already run the database and do not want redis.
package pgstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/csamedu/portal/core/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS portal_sessions (
    scope_id   text        NOT NULL,
    role       text        NOT NULL,
    token      text        NOT NULL,
    profile    jsonb       NOT NULL,
    created_at timestamptz NOT NULL,
    updated_at timestamptz NOT NULL,
    PRIMARY KEY (scope_id, role)
);`

type record struct {
	ScopeID   string    `db:"scope_id"`
	Role      string    `db:"role"`
	Token     string    `db:"token"`
	Profile   []byte    `db:"profile"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type store struct {
	db *sqlx.DB
}

var (
	_ session.Store  = (*store)(nil)
	_ session.Purger = (*store)(nil)
)

func Open(databaseURL string) (*store, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	return &store{db: db}, nil
}

func New(db *sqlx.DB) *store { return &store{db: db} }

func (s *store) Close() error { return s.db.Close() }

// EnsureSchema bootstraps the sessions table.
func (s *store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return errors.Wrap(err, "creating portal_sessions")
}

func (s *store) Set(ctx context.Context, scopeID string, role session.Role, rec session.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO portal_sessions (scope_id, role, token, profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (scope_id, role)
		DO UPDATE SET token = $3, profile = $4, created_at = $5, updated_at = $6`,
		scopeID, string(role), rec.Token, []byte(rec.Profile), rec.CreatedAt, time.Now().UTC(),
	)
	return errors.Wrap(err, "upserting session record")
}

func (s *store) Get(ctx context.Context, scopeID string, role session.Role) (session.Record, error) {
	var row record
	err := s.db.GetContext(ctx, &row, `
		SELECT scope_id, role, token, profile, created_at, updated_at
		FROM portal_sessions WHERE scope_id = $1 AND role = $2`,
		scopeID, string(role),
	)
	if err == sql.ErrNoRows {
		return session.Record{}, session.ErrNoSession
	}
	if err != nil {
		return session.Record{}, errors.Wrap(err, "reading session record")
	}
	return session.Record{
		Token:     row.Token,
		Profile:   row.Profile,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *store) Clear(ctx context.Context, scopeID string, role session.Role) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM portal_sessions WHERE scope_id = $1 AND role = $2`,
		scopeID, string(role),
	)
	return errors.Wrap(err, "deleting session record")
}

func (s *store) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM portal_sessions WHERE created_at < $1`, cutoff,
	)
	if err != nil {
		return 0, errors.Wrap(err, "purging session records")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting purged records")
}
