// Package storage provides the string key/value stores a Mirror
// synchronizes with.
//
// The Store interface is the narrow capability the sync core consumes:
// get, set, remove, length and key-by-index. Implementations:
//
//   - BadgerStore: durable, single-process store on Badger v3
//   - memory.Store: per-session store that lives as long as the process
//   - sqlite.Store: durable store shared by several processes
//
// A Hub fans one Store out to several execution contexts. Writes through
// one context are published as Events to every other context, which is
// how Mirrors in the same process observe each other's changes.
package storage
