package mirror

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yndnr/webstore-go/internal/storage"
	"github.com/yndnr/webstore-go/internal/telemetry/metric"
)

// Mirror is an in-memory map kept in sync with a Store.
//
// All methods are safe for concurrent use. Values returned by Get and
// Data are shared with the mirror; mutate nested maps and slices only
// inside Update so a concurrent sync cycle never observes them half
// written.
type Mirror struct {
	mu sync.Mutex

	store     storage.Store
	notifier  storage.Notifier
	sub       storage.Subscription
	codec     Codec
	keys      keyMapper
	interval  time.Duration
	name      string
	logger    *slog.Logger
	metrics   *metric.SyncMetrics
	onChange  []func(Change)
	supported bool
	synced    bool
	running   atomic.Bool

	data     map[string]any
	snapshot map[string]string
}

// Change describes an inbound change applied to the mirror.
type Change struct {
	Name    string
	Value   any
	Deleted bool
}

// New creates a Mirror over store and loads the entries already stored
// under the prefix. A nil store yields an in-memory-only Mirror.
func New(store storage.Store, opts ...Option) *Mirror {
	m := &Mirror{
		store:    store,
		codec:    JSONCodec{},
		keys:     keyMapper{prefix: DefaultPrefix},
		interval: DefaultInterval,
		logger:   slog.Default(),
		data:     make(map[string]any),
		snapshot: make(map[string]string),
	}
	if n, ok := store.(storage.Notifier); ok {
		m.notifier = n
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.name != "" {
		m.logger = m.logger.With("store", m.name)
	}

	supported, err := probe(store)
	m.supported = supported
	if !supported {
		m.logger.Warn("storage not supported, running in memory only", "error", err)
		return m
	}

	// Subscribe before loading so a write landing between the scan and
	// the subscription is still delivered. Re-applying an event the load
	// already saw is a no-op.
	if m.notifier != nil {
		m.sub = m.notifier.Subscribe()
	}
	m.load()
	return m
}

// Supported reports whether the store passed the capability probe.
func (m *Mirror) Supported() bool {
	return m.supported
}

// Prefix returns the current namespace prefix.
func (m *Mirror) Prefix() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys.prefix
}

// SetPrefix changes the namespace prefix. Entries already written under
// the old prefix stay where they are.
func (m *Mirror) SetPrefix(prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefix == m.keys.prefix {
		return
	}
	if m.synced {
		m.logger.Warn("prefix changed after first sync, entries under the old prefix are orphaned",
			"old_prefix", m.keys.prefix, "new_prefix", prefix)
	}
	m.keys.prefix = prefix
}

// Get returns the value stored under name.
func (m *Mirror) Get(name string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[name]
	return v, ok
}

// Has reports whether name is present, including names holding Undefined.
func (m *Mirror) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// Set assigns value to name. The store is updated on the next cycle.
func (m *Mirror) Set(name string, value any) error {
	if IsReserved(name) {
		return fmt.Errorf("%w: %q", ErrReservedName, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[name] = value
	return nil
}

// Delete removes name. The store entry is removed on the next cycle.
func (m *Mirror) Delete(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, name)
}

// Keys returns every name in lexical order.
func (m *Mirror) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of names.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

// Data returns a shallow copy of the mirror's contents.
func (m *Mirror) Data() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]any, len(m.data))
	for k, v := range m.data {
		out[k] = v
	}
	return out
}

// Update runs fn with the mirror's map under the lock. Reserved names
// added by fn are dropped and reported as ErrReservedName.
func (m *Mirror) Update(fn func(data map[string]any)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.data)

	var err error
	for name := range reservedNames {
		if _, ok := m.data[name]; ok {
			delete(m.data, name)
			err = fmt.Errorf("%w: %q", ErrReservedName, name)
		}
	}
	return err
}

// Default assigns a deep copy of every entry of values whose name is
// absent or Undefined in the mirror. Existing values are never
// overwritten.
func (m *Mirror) Default(values map[string]any) error {
	values, err := m.copyValues(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultLocked(values)
	return nil
}

// Reset removes every name and then assigns a deep copy of values, if any.
func (m *Mirror) Reset(values map[string]any) error {
	values, err := m.copyValues(values)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		delete(m.data, k)
	}
	m.defaultLocked(values)
	return nil
}

// Sync runs one outbound cycle immediately.
func (m *Mirror) Sync() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.syncLocked()
}

func (m *Mirror) defaultLocked(values map[string]any) {
	for k, v := range values {
		if cur, ok := m.data[k]; ok && !IsUndefined(cur) {
			continue
		}
		m.data[k] = v
	}
}

// copyValues checks names and deep-copies values through the codec, so
// the caller's maps and slices are never shared with the mirror. Copies
// take the same types a load or inbound event produces.
func (m *Mirror) copyValues(values map[string]any) (map[string]any, error) {
	if err := checkNames(values); err != nil {
		return nil, err
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		if IsUndefined(v) {
			out[k] = v
			continue
		}
		enc, err := m.codec.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("copy %q: %w", k, err)
		}
		if out[k], err = m.codec.Unmarshal(enc); err != nil {
			return nil, fmt.Errorf("copy %q: %w", k, err)
		}
	}
	return out, nil
}

func checkNames(values map[string]any) error {
	for k := range values {
		if IsReserved(k) {
			return fmt.Errorf("%w: %q", ErrReservedName, k)
		}
	}
	return nil
}
