package mirror

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/webstore-go/internal/storage"
)

// probe checks that store exists and accepts a write/remove cycle on a
// throwaway key. A store that panics is treated like one that fails.
func probe(store storage.Store) (ok bool, err error) {
	if store == nil {
		return false, errNoStore
	}

	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("probe panicked: %v", r)
		}
	}()

	key := "__" + ulid.Make().String()
	if err := store.Set(key, ""); err != nil {
		return false, fmt.Errorf("probe write: %w", err)
	}
	if err := store.Remove(key); err != nil {
		return false, fmt.Errorf("probe remove: %w", err)
	}
	return true, nil
}
