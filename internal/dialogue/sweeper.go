package dialogue

import (
	"context"
	"log/slog"
	"time"
)

// DefaultSweepInterval is how often a [Sweeper] scans its stores.
const DefaultSweepInterval = time.Minute

// Sweeper purges sessions that have been idle longer than a TTL.
type Sweeper struct {
	stores   []*Store
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// NewSweeper creates a [Sweeper] over stores. A non-positive interval uses
// [DefaultSweepInterval].
func NewSweeper(ttl, interval time.Duration, stores ...*Store) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{stores: stores, ttl: ttl, interval: interval, now: time.Now}
}

// Run sweeps every interval until ctx is cancelled. It always returns nil so
// it can sit in an errgroup next to the HTTP server.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.ttl <= 0 {
		<-ctx.Done()
		return nil
	}
	logger := slog.Default().With(slog.String("component", "dialogue.sweeper"))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("session sweeper stopping")
			return nil
		case <-ticker.C:
			if n := s.SweepOnce(); n > 0 {
				logger.Info("purged idle sessions", slog.Int("removed", n), slog.Duration("ttl", s.ttl))
			}
		}
	}
}

// SweepOnce runs a single pass and returns the number of purged sessions.
func (s *Sweeper) SweepOnce() int {
	cutoff := s.now().Add(-s.ttl)
	n := 0
	for _, st := range s.stores {
		n += len(st.PurgeIdle(cutoff))
	}
	return n
}
