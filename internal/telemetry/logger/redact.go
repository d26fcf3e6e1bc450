package logger

import (
	"log/slog"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// redactSensitive checks if an attribute contains sensitive data
// and redacts it if necessary.
func redactSensitive(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindString {
		strVal := a.Value.String()

		// Bot API tokens ("<numeric id>:<secret>") get a partial mask so
		// the bot identity stays visible in logs. This takes priority
		// over key-based detection.
		if id, secret, ok := splitBotToken(strVal); ok {
			return slog.String(a.Key, maskBotToken(id, secret))
		}

		// If key name suggests sensitive data and value is non-empty, fully redact
		keyLower := strings.ToLower(a.Key)
		for _, pattern := range sensitiveKeyPatterns {
			if strings.Contains(keyLower, pattern) {
				if strVal != "" {
					return slog.String(a.Key, redactedValue)
				}
				break
			}
		}
	}

	// Handle nested groups recursively
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}

	return a
}

// splitBotToken reports whether value has the "<numeric id>:<secret>"
// shape of a bot API token and returns its parts.
func splitBotToken(value string) (id, secret string, ok bool) {
	idx := strings.IndexByte(value, ':')
	if idx < 6 || idx > 12 {
		return "", "", false
	}
	id, secret = value[:idx], value[idx+1:]
	if len(secret) < 20 {
		return "", "", false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	return id, secret, true
}

// maskBotToken masks the secret half of a bot token, keeping the
// numeric id and hints. Format: id + ":" + first 3 chars + "..." + last 3 chars.
func maskBotToken(id, secret string) string {
	if len(secret) <= 6 {
		return id + ":***"
	}
	return id + ":" + secret[:3] + "..." + secret[len(secret)-3:]
}

// RedactString manually redacts a string value.
// Use this when you need to redact a value before logging.
func RedactString(value string) string {
	if id, secret, ok := splitBotToken(value); ok {
		return maskBotToken(id, secret)
	}
	return value
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

// IsSensitiveValue checks if a value appears to be sensitive.
func IsSensitiveValue(value string) bool {
	_, _, ok := splitBotToken(value)
	return ok
}
