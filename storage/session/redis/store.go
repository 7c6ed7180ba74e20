// Package redisstore keeps portal sessions in redis so multiple portal
// instances can share them. Records expire with the session TTL; redis does
// the purging itself.
package redisstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/session"
)

type store struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ session.Store = (*store)(nil)

func New(conf *core.Config) *store {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr: conf.Sessions.RedisAddr,
		DB:   conf.Sessions.RedisDB,
	}), conf.Sessions.TTL)
}

func NewWithClient(rdb *redis.Client, ttl time.Duration) *store {
	return &store{rdb: rdb, ttl: ttl}
}

func (s *store) Set(ctx context.Context, scopeID string, role session.Role, rec session.Record) error {
	blob, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "encoding session record")
	}
	return errors.Wrap(
		s.rdb.Set(ctx, session.Key(role, scopeID), blob, s.ttl).Err(),
		"writing session record",
	)
}

func (s *store) Get(ctx context.Context, scopeID string, role session.Role) (session.Record, error) {
	blob, err := s.rdb.Get(ctx, session.Key(role, scopeID)).Bytes()
	if err == redis.Nil {
		return session.Record{}, session.ErrNoSession
	}
	if err != nil {
		return session.Record{}, errors.Wrap(err, "reading session record")
	}

	var rec session.Record
	if err := json.Unmarshal(blob, &rec); err != nil {
		// corrupt blob reads as no session; it will be overwritten on next login
		return session.Record{}, session.ErrNoSession
	}
	return rec, nil
}

func (s *store) Clear(ctx context.Context, scopeID string, role session.Role) error {
	return errors.Wrap(
		s.rdb.Del(ctx, session.Key(role, scopeID)).Err(),
		"deleting session record",
	)
}
