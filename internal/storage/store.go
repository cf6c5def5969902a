package storage

import "errors"

// Common errors
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrClosed      = errors.New("store closed")
)

// Store is the string key/value capability a Mirror synchronizes with.
//
// It mirrors the Web Storage surface: values are opaque strings, keys can
// be enumerated by index in [0, Len()). Index order must be stable while
// no writes happen, but may change after any Set or Remove.
type Store interface {
	// Get returns the value stored under key. ok is false when absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Len returns the number of keys currently stored.
	Len() (int, error)

	// Key returns the key at index i. ok is false when i is out of range.
	Key(i int) (key string, ok bool, err error)
}

// Scanner is implemented by stores that can iterate a key prefix directly,
// which is cheaper than enumerating by index.
type Scanner interface {
	// Scan calls fn for every key starting with prefix.
	// fn returns false to stop iteration.
	Scan(prefix string, fn func(key, value string) bool) error
}

// Event describes a change made to a shared store by another execution
// context. NewValue is nil when the key was removed.
type Event struct {
	Key      string
	OldValue *string
	NewValue *string
}

// Deleted reports whether the event is a removal.
func (e Event) Deleted() bool {
	return e.NewValue == nil
}

// Notifier delivers change events raised by other execution contexts.
// Changes made through the subscriber's own context are never delivered.
type Notifier interface {
	Subscribe() Subscription
}

// Subscription is a queue of pending change events.
//
// Ready is signalled whenever events were queued since the last Drain.
// The queue is unbounded so publishers never block.
type Subscription interface {
	Ready() <-chan struct{}
	Drain() []Event
	Close()
}

func strPtr(s string) *string {
	return &s
}
