// Package inmemstore is the dev/test session store: a process-local map.
package inmemstore

import (
	"context"
	"sync"
	"time"

	"github.com/csamedu/portal/core/session"
)

type store struct {
	mu   sync.RWMutex
	recs map[string]session.Record
}

var (
	_ session.Store  = (*store)(nil)
	_ session.Purger = (*store)(nil)
)

func New() *store {
	return &store{recs: make(map[string]session.Record)}
}

func (s *store) Set(_ context.Context, scopeID string, role session.Role, rec session.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[session.Key(role, scopeID)] = rec
	return nil
}

func (s *store) Get(_ context.Context, scopeID string, role session.Role) (session.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[session.Key(role, scopeID)]
	if !ok {
		return session.Record{}, session.ErrNoSession
	}
	return rec, nil
}

func (s *store) Clear(_ context.Context, scopeID string, role session.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, session.Key(role, scopeID))
	return nil
}

func (s *store) PurgeOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for key, rec := range s.recs {
		if rec.CreatedAt.Before(cutoff) {
			delete(s.recs, key)
			n++
		}
	}
	return n, nil
}
