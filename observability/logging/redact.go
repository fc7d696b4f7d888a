package logging

import (
	"log/slog"
	"strings"
)

// RedactedValue is the canonical placeholder used for sensitive fields in logs.
const RedactedValue = "[REDACTED]"

// Keys a log line may carry in clear. MaskField redacts everything else.
var allowlist = map[string]struct{}{
	"service":   {},
	"env":       {},
	"component": {},
	"error":     {},
	"reason":    {},
	"height":    {},
	"root":      {},
	"method":    {},
	"requestid": {},
	"operation": {},
	"recipient": {},
}

// Keys scrubbed by every handler built by Setup, however they were logged.
var sensitive = map[string]struct{}{
	"kychash":       {},
	"authorization": {},
	"token":         {},
	"hmacsecret":    {},
}

func normalize(key string) string { return strings.ToLower(strings.TrimSpace(key)) }

// IsAllowlisted reports whether key may be logged without masking.
func IsAllowlisted(key string) bool {
	_, ok := allowlist[normalize(key)]
	return ok
}

// IsSensitive reports whether key is always scrubbed from log output.
func IsSensitive(key string) bool {
	_, ok := sensitive[normalize(key)]
	return ok
}

// MaskValue returns the redacted placeholder for non-empty values.
func MaskValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return value
	}
	return RedactedValue
}

// MaskField returns an attribute for key whose value is masked unless the key
// is allowlisted.
func MaskField(key, value string) slog.Attr {
	if IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, MaskValue(value))
}

func scrub(attr slog.Attr) slog.Attr {
	if !IsSensitive(attr.Key) || attr.Value.Kind() == slog.KindGroup {
		return attr
	}
	return slog.String(attr.Key, MaskValue(attr.Value.String()))
}
