package mirror

import (
	"log/slog"
	"time"

	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// DefaultInterval is the period of the outbound sync cycle.
const DefaultInterval = 100 * time.Millisecond

// Option configures a Mirror.
type Option func(*Mirror)

// WithPrefix sets the namespace prefix of store keys.
func WithPrefix(prefix string) Option {
	return func(m *Mirror) {
		m.keys.prefix = prefix
	}
}

// WithInterval sets the outbound sync period used by Run.
func WithInterval(d time.Duration) Option {
	return func(m *Mirror) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithCodec replaces the default JSON codec.
func WithCodec(c Codec) Option {
	return func(m *Mirror) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mirror) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records sync activity in metrics.
func WithMetrics(metrics *metric.SyncMetrics) Option {
	return func(m *Mirror) {
		m.metrics = metrics
	}
}

// WithNotifier subscribes to change events from n instead of the store.
// By default a store that implements storage.Notifier is used.
func WithNotifier(n storage.Notifier) Option {
	return func(m *Mirror) {
		m.notifier = n
	}
}

// WithName labels log lines with the store variant ("local", "session").
func WithName(name string) Option {
	return func(m *Mirror) {
		m.name = name
	}
}

// OnChange registers fn to run after every inbound change is applied.
// fn runs outside the mirror lock and may call back into the mirror.
func OnChange(fn func(Change)) Option {
	return func(m *Mirror) {
		if fn != nil {
			m.onChange = append(m.onChange, fn)
		}
	}
}
