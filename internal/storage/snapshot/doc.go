// Package snapshot stores point-in-time copies of a mirror's namespace.
//
// A snapshot holds the stored (encoded) value of every name under one
// prefix. Files are self-verifying:
//
//	snapshot-<timestamp>-<sequence>.snap
//	[magic:8 "WEBSSNAP"]
//	[HeaderLen:4][HeaderJSON:HeaderLen]
//	[DataLen:4][Data:DataLen]   (JSON object of name to stored value)
//	[checksum:32 SHA-256 of all bytes above]
//
// Loading the latest snapshot falls back to older ones when the newest
// file is corrupted.
package snapshot
