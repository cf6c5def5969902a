// Package cmap provides a concurrent map keyed by strings.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash, and every shard has its own RWMutex, so writers to different keys
// rarely contend.
//
// Usage:
//
//	m := cmap.New[string]()
//	m.Set("ngStorage-theme", `"dark"`)
//	val, ok := m.Get("ngStorage-theme")
//
// Iteration (Range, Keys) locks one shard at a time, so it does not observe
// a consistent point-in-time view when writers run concurrently.
package cmap
