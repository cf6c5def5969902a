package metric

import "github.com/prometheus/client_golang/prometheus"

// Inbound event actions.
const (
	ActionSet     = "set"
	ActionDelete  = "delete"
	ActionIgnored = "ignored"
)

// SyncMetrics counts the work done by one Mirror.
// A nil *SyncMetrics is valid and records nothing.
type SyncMetrics struct {
	cycles        prometheus.Counter
	writes        prometheus.Counter
	removes       prometheus.Counter
	storeErrors   prometheus.Counter
	decodeErrors  prometheus.Counter
	inboundEvents *prometheus.CounterVec
	keys          prometheus.Gauge
}

// NewSyncMetrics creates and registers the metrics of the Mirror bound to
// the named store ("local", "session", ...).
func NewSyncMetrics(reg prometheus.Registerer, store string) *SyncMetrics {
	labels := prometheus.Labels{"store": store}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "sync",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		})
	}

	m := &SyncMetrics{
		cycles:       counter("cycles_total", "Outbound sync cycles run"),
		writes:       counter("store_writes_total", "Entries written to the store"),
		removes:      counter("store_removes_total", "Entries removed from the store"),
		storeErrors:  counter("store_errors_total", "Failed store writes and removes"),
		decodeErrors: counter("decode_errors_total", "Stored values that could not be decoded"),
		inboundEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "sync",
			Name:        "inbound_events_total",
			Help:        "Change notifications received from other contexts",
			ConstLabels: labels,
		}, []string{"action"}),
		keys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "sync",
			Name:        "mirror_keys",
			Help:        "Names currently held by the mirror",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(m.cycles, m.writes, m.removes, m.storeErrors,
		m.decodeErrors, m.inboundEvents, m.keys)
	return m
}

// Cycle records one outbound cycle and its results.
func (m *SyncMetrics) Cycle(writes, removes, failures, keys int) {
	if m == nil {
		return
	}
	m.cycles.Inc()
	m.writes.Add(float64(writes))
	m.removes.Add(float64(removes))
	m.storeErrors.Add(float64(failures))
	m.keys.Set(float64(keys))
}

// DecodeError records a value that failed to decode.
func (m *SyncMetrics) DecodeError() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

// Inbound records one change notification.
func (m *SyncMetrics) Inbound(action string) {
	if m == nil {
		return
	}
	m.inboundEvents.WithLabelValues(action).Inc()
}
