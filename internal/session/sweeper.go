package session

import (
	"context"
	"time"

	"github.com/ledgerbook/portal/internal/logger"
)

const (
	defaultSweepInterval  = time.Hour
	defaultTokenRetention = 30 * 24 * time.Hour
)

// Sweeper periodically removes expired sessions and stale consumed-token
// records. It is the only writer besides the login flow and logout, and it
// only ever deletes.
type Sweeper struct {
	interval  time.Duration
	retention time.Duration

	store  Store
	tokens TokenLog
	logger logger.Logger
}

func NewSweeper(store Store, tokens TokenLog, logger logger.Logger) *Sweeper {
	return &Sweeper{
		interval:  defaultSweepInterval,
		retention: defaultTokenRetention,
		store:     store,
		tokens:    tokens,
		logger:    logger,
	}
}

// Run sweeps on a ticker until the context is cancelled.
// The returned channel closes when the sweeper has fully stopped.
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Debug("Starting session sweeper", "interval", s.interval)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Debug("Session sweeper stopped by context")
				return

			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()

	return idleStopped
}

func (s *Sweeper) sweep(ctx context.Context) {
	removed, err := s.store.DeleteExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to delete expired sessions", "error", err)
	} else if removed > 0 {
		s.logger.Info("Expired sessions removed", "count", removed)
	}

	if s.tokens == nil {
		return
	}

	removed, err = s.tokens.DeleteConsumedBefore(ctx, time.Now().Add(-s.retention))
	if err != nil {
		s.logger.Error("Failed to delete stale consumed tokens", "error", err)
	} else if removed > 0 {
		s.logger.Info("Stale consumed tokens removed", "count", removed)
	}
}
