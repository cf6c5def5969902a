package mirror

import "github.com/yndnr/webstore-go/internal/storage"

// load reads every namespaced entry into the mirror and seeds the
// snapshot from it. Entries that cannot be read or decoded are skipped.
func (m *Mirror) load() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sc, ok := m.store.(storage.Scanner); ok {
		err := sc.Scan(m.keys.prefix, func(key, value string) bool {
			m.loadEntry(key, value)
			return true
		})
		if err != nil {
			m.logger.Warn("initial load incomplete", "error", err)
		}
	} else {
		m.loadByIndex()
	}

	for name, v := range m.data {
		if IsUndefined(v) {
			continue
		}
		if enc, err := m.codec.Marshal(v); err == nil {
			m.snapshot[name] = enc
		}
	}

	m.logger.Debug("mirror loaded", "prefix", m.keys.prefix, "keys", len(m.data))
}

func (m *Mirror) loadByIndex() {
	n, err := m.store.Len()
	if err != nil {
		m.logger.Warn("initial load failed", "error", err)
		return
	}

	// Collect keys first: index order is only stable while nothing writes.
	keys := make([]string, 0, n)
	for i := 0; i < n; i++ {
		key, ok, err := m.store.Key(i)
		if err != nil {
			m.logger.Warn("skipping unreadable key", "index", i, "error", err)
			continue
		}
		if !ok {
			break
		}
		if _, mapped := m.keys.fromStoreKey(key); mapped {
			keys = append(keys, key)
		}
	}

	for _, key := range keys {
		value, ok, err := m.store.Get(key)
		if err != nil {
			m.logger.Warn("skipping unreadable entry", "key", key, "error", err)
			continue
		}
		if ok {
			m.loadEntry(key, value)
		}
	}
}

func (m *Mirror) loadEntry(key, value string) {
	name, ok := m.keys.fromStoreKey(key)
	if !ok || IsReserved(name) {
		return
	}
	v, err := m.codec.Unmarshal(value)
	if err != nil {
		m.metrics.DecodeError()
		m.logger.Warn("skipping undecodable entry", "key", key, "value", value, "error", err)
		return
	}
	m.data[name] = v
}
