package mirror

import "strings"

// DefaultPrefix namespaces the store keys owned by a Mirror.
const DefaultPrefix = "ngStorage-"

// reservedNames are the control operations layered on the mirror.
var reservedNames = map[string]struct{}{
	"$default":   {},
	"$reset":     {},
	"$sync":      {},
	"$supported": {},
}

// IsReserved reports whether name belongs to a control operation and can
// therefore never hold data.
func IsReserved(name string) bool {
	_, ok := reservedNames[name]
	return ok
}

// keyMapper translates between mirror names and namespaced store keys.
type keyMapper struct {
	prefix string
}

func (k keyMapper) toStoreKey(name string) string {
	return k.prefix + name
}

// fromStoreKey strips the prefix. Keys outside the namespace, and the bare
// prefix itself, do not map to a name.
func (k keyMapper) fromStoreKey(key string) (string, bool) {
	if !strings.HasPrefix(key, k.prefix) || len(key) == len(k.prefix) {
		return "", false
	}
	return key[len(k.prefix):], true
}
