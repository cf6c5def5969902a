package mirror

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec converts mirror values to and from the store's string values.
//
// Marshal must be deterministic: equal values must encode to equal
// strings, because change detection compares encodings.
type Codec interface {
	Marshal(v any) (string, error)
	Unmarshal(s string) (any, error)
}

// JSONCodec is the default Codec.
//
// Numbers decode as float64, objects as map[string]any and arrays as
// []any. HTML characters are not escaped, matching what a browser's
// JSON.stringify writes into the same store.
type JSONCodec struct{}

// Marshal encodes v as compact JSON with sorted object keys.
func (JSONCodec) Marshal(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// Unmarshal decodes a single JSON document.
func (JSONCodec) Unmarshal(s string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return v, nil
}

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// Undefined marks a name that is present in the mirror but has no stored
// value. Assigning it removes the store entry on the next cycle.
var Undefined any = undefinedType{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}
