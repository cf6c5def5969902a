package memory

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/webstore-go/pkg/cmap"
)

// ErrQuotaExceeded is returned by Set when the write would push the store
// past its configured quota.
var ErrQuotaExceeded = errors.New("memory: quota exceeded")

// Store is an in-memory string key/value store.
// Keys enumerate in lexical order.
type Store struct {
	items *cmap.Map[string]

	// quota bookkeeping; zero quota means unlimited
	mu    sync.Mutex
	quota int
	size  int
}

// Option configures the Store.
type Option func(*Store)

// WithQuota limits the total size of keys plus values, in bytes.
// A quota of zero disables the limit; a negative quota rejects every write.
func WithQuota(bytes int) Option {
	return func(s *Store) {
		s.quota = bytes
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{items: cmap.New[string]()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get retrieves a value by key.
func (s *Store) Get(key string) (string, bool, error) {
	v, ok := s.items.Get(key)
	return v, ok, nil
}

// Set stores a key-value pair.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delta := len(key) + len(value)
	if prev, ok := s.items.Get(key); ok {
		delta -= len(key) + len(prev)
	}
	if s.quota < 0 || (s.quota > 0 && s.size+delta > s.quota) {
		return ErrQuotaExceeded
	}

	s.items.Set(key, value)
	s.size += delta
	return nil
}

// Remove deletes a key.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.items.Pop(key); ok {
		s.size -= len(key) + len(prev)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() (int, error) {
	return s.items.Count(), nil
}

// Key returns the i-th key in lexical order.
func (s *Store) Key(i int) (string, bool, error) {
	keys := s.items.SortedKeys()
	if i < 0 || i >= len(keys) {
		return "", false, nil
	}
	return keys[i], true, nil
}

// Scan iterates over keys with a given prefix in lexical order.
func (s *Store) Scan(prefix string, fn func(key, value string) bool) error {
	for _, key := range s.items.SortedKeys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		value, ok := s.items.Get(key)
		if !ok {
			continue
		}
		if !fn(key, value) {
			return nil
		}
	}
	return nil
}

// Size returns the bytes used by keys and values.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// RegisterMetrics exposes the bytes used by the store.
// Returns the store for method chaining.
func (s *Store) RegisterMetrics(reg prometheus.Registerer) *Store {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "webstore",
		Subsystem: "session",
		Name:      "size_bytes",
		Help:      "Bytes used by keys and values in the session store",
	}, func() float64 {
		return float64(s.Size())
	}))
	return s
}
