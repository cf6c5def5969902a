package storage

import (
	"fmt"
	"strings"
	"sync"
)

// Hub shares one Store between several execution contexts.
//
// Every context reads and writes the same underlying store. A successful
// Set or Remove through one context publishes an Event to the
// subscriptions of all other contexts, never to the writer's own.
// Writes that do not change the stored value publish nothing.
type Hub struct {
	store Store

	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]map[*Queue]struct{}
}

// NewHub creates a hub over store.
func NewHub(store Store) *Hub {
	return &Hub{
		store: store,
		subs:  make(map[uint64]map[*Queue]struct{}),
	}
}

// Attach creates a new execution context on the hub.
func (h *Hub) Attach() *Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.subs[h.nextID] = make(map[*Queue]struct{})
	return &Context{hub: h, id: h.nextID}
}

// Contexts returns the number of attached contexts.
func (h *Hub) Contexts() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) publish(from uint64, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, queues := range h.subs {
		if id == from {
			continue
		}
		for q := range queues {
			q.Push(ev)
		}
	}
}

func (h *Hub) subscribe(id uint64) *Queue {
	var q *Queue
	q = NewQueue(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if queues, ok := h.subs[id]; ok {
			delete(queues, q)
		}
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	queues, ok := h.subs[id]
	if !ok {
		// Detached context: hand back a queue nobody publishes to.
		return q
	}
	queues[q] = struct{}{}
	return q
}

func (h *Hub) detach(id uint64) {
	h.mu.Lock()
	queues := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()

	for q := range queues {
		q.Close()
	}
}

// Context is one execution context attached to a Hub.
// It implements Store, Scanner and Notifier.
type Context struct {
	hub *Hub
	id  uint64
}

// Get reads key from the shared store.
func (c *Context) Get(key string) (string, bool, error) {
	return c.hub.store.Get(key)
}

// Set writes key and notifies the other contexts if the value changed.
func (c *Context) Set(key, value string) error {
	old, existed, err := c.hub.store.Get(key)
	if err != nil {
		return fmt.Errorf("hub: read previous value: %w", err)
	}
	if err := c.hub.store.Set(key, value); err != nil {
		return err
	}
	if existed && old == value {
		return nil
	}

	ev := Event{Key: key, NewValue: strPtr(value)}
	if existed {
		ev.OldValue = strPtr(old)
	}
	c.hub.publish(c.id, ev)
	return nil
}

// Remove deletes key and notifies the other contexts if it existed.
func (c *Context) Remove(key string) error {
	old, existed, err := c.hub.store.Get(key)
	if err != nil {
		return fmt.Errorf("hub: read previous value: %w", err)
	}
	if err := c.hub.store.Remove(key); err != nil {
		return err
	}
	if existed {
		c.hub.publish(c.id, Event{Key: key, OldValue: strPtr(old)})
	}
	return nil
}

// Len returns the number of keys in the shared store.
func (c *Context) Len() (int, error) {
	return c.hub.store.Len()
}

// Key returns the key at index i of the shared store.
func (c *Context) Key(i int) (string, bool, error) {
	return c.hub.store.Key(i)
}

// Scan iterates keys of the shared store starting with prefix.
func (c *Context) Scan(prefix string, fn func(key, value string) bool) error {
	return ScanStore(c.hub.store, prefix, fn)
}

// Subscribe returns a subscription to changes made by other contexts.
func (c *Context) Subscribe() Subscription {
	return c.hub.subscribe(c.id)
}

// Detach removes the context from the hub and closes its subscriptions.
func (c *Context) Detach() {
	c.hub.detach(c.id)
}

// ScanStore iterates keys starting with prefix, using the store's own
// Scan when it has one and index enumeration otherwise. Keys are collected
// before values are read so fn may write to the store.
func ScanStore(s Store, prefix string, fn func(key, value string) bool) error {
	if sc, ok := s.(Scanner); ok {
		return sc.Scan(prefix, fn)
	}

	n, err := s.Len()
	if err != nil {
		return fmt.Errorf("scan: length: %w", err)
	}
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key, ok, err := s.Key(i)
		if err != nil {
			return fmt.Errorf("scan: key %d: %w", i, err)
		}
		if ok && strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		value, ok, err := s.Get(key)
		if err != nil {
			return fmt.Errorf("scan: get %q: %w", key, err)
		}
		if !ok {
			continue
		}
		if !fn(key, value) {
			return nil
		}
	}
	return nil
}
