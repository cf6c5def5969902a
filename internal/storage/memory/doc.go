// Package memory provides the per-session store.
//
// A Store keeps every entry in a sharded concurrent map and lives exactly
// as long as the process, which is the Go counterpart of a browser's
// session storage. Share it between execution contexts with storage.Hub.
package memory
