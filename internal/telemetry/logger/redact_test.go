package logger

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestRedactSensitive_BotTokenValue(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Log a bot API token (should be partially masked)
	token := "123456789:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK"
	l.Info("bot registered", "bot", token)

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	botVal, ok := logEntry["bot"].(string)
	if !ok {
		t.Fatal("Expected bot field in log")
	}

	if botVal == token {
		t.Errorf("Token should be redacted, got original value: %s", botVal)
	}

	// Should keep the numeric id and mask the secret
	if botVal != "123456789:AAf...2wK" {
		t.Errorf("Token mask format incorrect, got: %s", botVal)
	}
}

func TestRedactSensitive_SensitiveKeyName(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Log with sensitive key names (should be redacted regardless of value)
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"password", "mysecret123", "***REDACTED***"},
		{"storage_password", "hunter2", "***REDACTED***"},
		{"api_key", "some-key-value", "***REDACTED***"},
		{"auth_token", "bearer-xyz", "***REDACTED***"},
		{"credential", "cred123", "***REDACTED***"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			buf.Reset()
			l.Info("test", tt.key, tt.value)

			var logEntry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
				t.Fatalf("Failed to parse JSON log: %v", err)
			}

			val, ok := logEntry[tt.key].(string)
			if !ok {
				t.Fatalf("Expected %s field in log", tt.key)
			}

			if val != tt.expected {
				t.Errorf("Key %q should be redacted to %q, got %q", tt.key, tt.expected, val)
			}
		})
	}
}

func TestRedactSensitive_NormalValues(t *testing.T) {
	var buf bytes.Buffer
	cfg := Config{
		Level:  "info",
		Format: "json",
		Output: &buf,
	}

	l, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Normal values should not be redacted
	l.Info("user action", "user_id", "user123", "session_id", "bcss-abc123")

	var logEntry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &logEntry); err != nil {
		t.Fatalf("Failed to parse JSON log: %v", err)
	}

	if userID, ok := logEntry["user_id"].(string); !ok || userID != "user123" {
		t.Errorf("Normal user_id should not be redacted, got: %v", logEntry["user_id"])
	}

	if sessionID, ok := logEntry["session_id"].(string); !ok || sessionID != "bcss-abc123" {
		t.Errorf("Session ID (public) should not be redacted, got: %v", logEntry["session_id"])
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "bot token",
			input:    "123456789:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK",
			expected: "123456789:AAf...2wK",
		},
		{
			name:     "short secret part",
			input:    "normalkey:short",
			expected: "normalkey:short",
		},
		{
			name:     "normal value",
			input:    "normalvalue123",
			expected: "normalvalue123",
		},
		{
			name:     "session id (not sensitive)",
			input:    "bcss-abc123def456",
			expected: "bcss-abc123def456",
		},
		{
			name:     "non-numeric id part",
			input:    "abcdefgh:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK",
			expected: "abcdefgh:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RedactString(tt.input)
			if result != tt.expected {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key       string
		sensitive bool
	}{
		{"password", true},
		{"storage_password", true},
		{"PASSWORD", true},
		{"secret", true},
		{"api_secret", true},
		{"token", true},
		{"auth_token", true},
		{"key", true},
		{"api_key", true},
		{"credential", true},
		{"auth", true},
		{"bearer", true},
		{"username", false},
		{"user_id", false},
		{"session_id", false},
		{"request_id", false},
		{"data", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			result := IsSensitiveKey(tt.key)
			if result != tt.sensitive {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, result, tt.sensitive)
			}
		})
	}
}

func TestIsSensitiveValue(t *testing.T) {
	tests := []struct {
		value     string
		sensitive bool
	}{
		{"123456789:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK", true},
		{"1234567890:AAeLm9wXqZrTyUbNcVsKdJhGfPoI3nE5xQa", true},
		{"bcss-abc123", false}, // Session ID is public
		{"12345:short", false}, // Secret part too short
		{"normal_value", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			result := IsSensitiveValue(tt.value)
			if result != tt.sensitive {
				t.Errorf("IsSensitiveValue(%q) = %v, want %v", tt.value, result, tt.sensitive)
			}
		})
	}
}

func TestSplitBotToken(t *testing.T) {
	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{"valid token", "123456789:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK", true},
		{"id too short", "12345:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK", false},
		{"id too long", "1234567890123:AAfHkq3vR8mZxWcYdEuLpQn7TgBsJiOe2wK", false},
		{"no separator", "123456789AAfHkq3vR8mZxWcYdEuLpQn7TgBs", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, ok := splitBotToken(tt.value)
			if ok != tt.ok {
				t.Errorf("splitBotToken(%q) ok = %v, want %v", tt.value, ok, tt.ok)
			}
		})
	}
}
