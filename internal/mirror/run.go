package mirror

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Run drives the mirror until ctx is cancelled: an outbound cycle on every
// tick and inbound events as they arrive, one at a time. On cancellation
// it runs a final cycle, closes the change subscription and returns the
// final cycle's error.
//
// Cycle errors during the loop are logged, at most once per second, and
// retried by the next tick.
func (m *Mirror) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer m.running.Store(false)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var ready <-chan struct{}
	if m.sub != nil {
		ready = m.sub.Ready()
	}
	errLimit := rate.NewLimiter(rate.Every(time.Second), 1)

	m.logger.Debug("mirror loop started", "interval", m.interval, "supported", m.supported)

	for {
		select {
		case <-ctx.Done():
			err := m.Sync()
			if err != nil {
				m.logger.Error("final sync failed", "error", err)
			}
			m.Close()
			m.logger.Debug("mirror loop stopped")
			return err

		case <-ticker.C:
			if err := m.Sync(); err != nil && errLimit.Allow() {
				m.logger.Error("sync cycle failed", "error", err)
			}

		case <-ready:
			m.ApplyPending()
		}
	}
}

// Close stops change delivery. The mirror stays usable; later changes by
// other contexts are no longer applied.
func (m *Mirror) Close() {
	m.mu.Lock()
	sub := m.sub
	m.sub = nil
	m.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
