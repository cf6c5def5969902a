package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// MaxValueLen is the longest stored value written to logs verbatim.
const MaxValueLen = 64

// Attribute keys that carry stored values.
var valueKeys = map[string]bool{
	"value":     true,
	"new_value": true,
	"old_value": true,
}

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"credential",
	"auth",
}

const redactedValue = "***REDACTED***"

func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactAttr(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if s == "" {
		return a
	}
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, redactedValue)
	}
	if valueKeys[a.Key] {
		return slog.String(a.Key, TruncateValue(s))
	}
	return a
}

// TruncateValue shortens a stored value for logging.
func TruncateValue(s string) string {
	if len(s) <= MaxValueLen {
		return s
	}
	return fmt.Sprintf("%s...(%d bytes)", s[:MaxValueLen], len(s))
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}
