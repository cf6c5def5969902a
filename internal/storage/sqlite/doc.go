// Package sqlite provides a durable store that several processes can share.
//
// Entries live in a single table of a SQLite database file. Each Store
// pins one connection, so SQLite's data_version pragma changes only when
// another connection (typically another process) commits. Subscribers get
// change events for those foreign commits; the Store's own writes are
// never reported back to it.
package sqlite
