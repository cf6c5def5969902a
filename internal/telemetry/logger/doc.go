// Package logger configures structured logging for webstore.
//
// It builds log/slog handlers (JSON by default, text for terminals) with a
// process-wide level that can change at runtime, and a ReplaceAttr hook
// that keeps stored user data out of the logs:
//
//   - attributes whose key looks like a credential are redacted
//   - stored values (value, new_value, old_value) are truncated
package logger
