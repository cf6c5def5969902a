// Package mirror keeps an in-memory key/value map synchronized with a
// string key/value store.
//
// A Mirror is built over one storage.Store. At construction it probes the
// store, loads every entry whose key starts with the namespace prefix
// (default "ngStorage-") and decodes it into the map. From then on the
// application reads and writes the Mirror directly:
//
//	m := mirror.New(store, mirror.WithName("local"))
//	m.Default(map[string]any{"theme": "light"})
//	m.Set("count", 3)
//	go m.Run(ctx)
//
// Outbound sync runs on every tick of Run (100ms by default) and on Sync.
// It compares the encoded form of each value with the snapshot taken after
// the previous cycle and writes or removes only what changed, so a cycle
// without intervening mutations touches nothing.
//
// Inbound sync applies change events published by other execution
// contexts sharing the store (storage.Hub contexts, or other processes on
// a sqlite.Store). Events update the map immediately and the snapshot
// with it, so the next outbound cycle does not echo them back.
//
// When the store is nil or rejects the probe write, the Mirror runs in
// memory only: every data operation works and the store is never touched
// again. Supported reports which mode is active.
//
// The names "$default", "$reset", "$sync" and "$supported" are reserved
// for control operations and can never be stored.
//
// Changing the prefix after the first cycle orphans entries written under
// the old prefix. They are neither migrated nor removed.
package mirror
