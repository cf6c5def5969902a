package mirror

import (
	"errors"
	"fmt"
)

// syncLocked pushes the difference between the mirror and the snapshot to
// the store. A failed write or remove keeps the previous snapshot entry
// for that name so the next cycle tries again.
func (m *Mirror) syncLocked() error {
	if !m.supported {
		return nil
	}
	m.synced = true

	var (
		errs     []error
		writes   int
		removes  int
		failures int
	)
	next := make(map[string]string, len(m.data))

	for name, v := range m.data {
		if IsUndefined(v) {
			continue
		}
		prev, hadPrev := m.snapshot[name]

		enc, err := m.codec.Marshal(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode %q: %w", name, err))
			if hadPrev {
				next[name] = prev
			}
			continue
		}
		if hadPrev && prev == enc {
			next[name] = enc
			continue
		}

		if err := m.store.Set(m.keys.toStoreKey(name), enc); err != nil {
			failures++
			errs = append(errs, fmt.Errorf("set %q: %w", name, err))
			if hadPrev {
				next[name] = prev
			}
			continue
		}
		writes++
		next[name] = enc
	}

	for name, prev := range m.snapshot {
		if _, kept := next[name]; kept {
			continue
		}
		if err := m.store.Remove(m.keys.toStoreKey(name)); err != nil {
			failures++
			errs = append(errs, fmt.Errorf("remove %q: %w", name, err))
			next[name] = prev
			continue
		}
		removes++
	}

	m.snapshot = next
	m.metrics.Cycle(writes, removes, failures, len(m.data))
	if writes > 0 || removes > 0 {
		m.logger.Debug("sync cycle", "writes", writes, "removes", removes, "failures", failures)
	}
	return errors.Join(errs...)
}
