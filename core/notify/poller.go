// Package notify polls the backend for unread-notification counts on a
// fixed interval, with a lifetime bound to its caller's context so a torn
// down view never leaks a timer.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"
)

type Poller struct {
	api      *schoolapi.Client
	role     session.Role
	token    string
	interval time.Duration
	logger   core.Logger
	onCount  func(int)

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewPoller builds a poller delivering counts to onCount. Nothing runs
// until Start.
func NewPoller(
	api *schoolapi.Client,
	role session.Role,
	token string,
	interval time.Duration,
	logger core.Logger,
	onCount func(int),
) *Poller {
	return &Poller{
		api:      api,
		role:     role,
		token:    token,
		interval: interval,
		logger:   logger,
		onCount:  onCount,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs the poll loop until ctx is cancelled or Stop is called. The
// first poll fires immediately. Counts observed after cancellation are
// discarded, never delivered.
func (p *Poller) Start(ctx context.Context) {
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if stopped := p.poll(ctx); stopped {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
		}
	}
}

// poll fetches one count. A rejected session ends the loop: the session is
// gone and every further poll would fail the same way.
func (p *Poller) poll(ctx context.Context) (stopped bool) {
	count, err := p.api.UnreadNotificationCount(ctx, p.role, p.token)
	if err != nil {
		if errors.Cause(err) == schoolapi.ErrSessionRejected {
			p.logger.Info("notification poll stopped: session rejected")
			return true
		}
		if ctx.Err() == nil {
			p.logger.Warn("notification poll failed", err)
		}
		return false
	}

	select {
	case <-ctx.Done():
	case <-p.stop:
	default:
		p.onCount(count)
	}
	return false
}

// Stop ends the loop and waits for it to exit. Idempotent.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}
