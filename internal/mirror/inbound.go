package mirror

import (
	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// HandleEvent applies a change made to the store by another execution
// context. Events for keys outside the prefix, for reserved names, or
// with undecodable values are ignored. Nothing is applied in memory-only
// mode.
func (m *Mirror) HandleEvent(ev storage.Event) {
	m.mu.Lock()
	change, ok := m.applyEventLocked(ev)
	handlers := m.onChange
	m.mu.Unlock()

	if !ok {
		return
	}
	for _, fn := range handlers {
		fn(change)
	}
}

// ApplyPending applies every change event queued since the last call and
// returns how many were received. Run does this automatically.
func (m *Mirror) ApplyPending() int {
	m.mu.Lock()
	sub := m.sub
	m.mu.Unlock()
	if sub == nil {
		return 0
	}
	evs := sub.Drain()
	for _, ev := range evs {
		m.HandleEvent(ev)
	}
	return len(evs)
}

func (m *Mirror) applyEventLocked(ev storage.Event) (Change, bool) {
	if !m.supported {
		return Change{}, false
	}

	name, ok := m.keys.fromStoreKey(ev.Key)
	if !ok || IsReserved(name) {
		m.metrics.Inbound(metric.ActionIgnored)
		return Change{}, false
	}

	if ev.Deleted() {
		delete(m.data, name)
		delete(m.snapshot, name)
		m.metrics.Inbound(metric.ActionDelete)
		m.logger.Debug("inbound delete", "name", name)
		return Change{Name: name, Deleted: true}, true
	}

	v, err := m.codec.Unmarshal(*ev.NewValue)
	if err != nil {
		m.metrics.DecodeError()
		m.metrics.Inbound(metric.ActionIgnored)
		m.logger.Warn("ignoring undecodable change", "key", ev.Key, "new_value", *ev.NewValue, "error", err)
		return Change{}, false
	}

	m.data[name] = v
	// Re-encode rather than keep the raw string so formatting differences
	// between writers do not look like a local change.
	if enc, err := m.codec.Marshal(v); err == nil {
		m.snapshot[name] = enc
	} else {
		delete(m.snapshot, name)
	}
	m.metrics.Inbound(metric.ActionSet)
	m.logger.Debug("inbound set", "name", name, "new_value", *ev.NewValue)
	return Change{Name: name, Value: v}, true
}
