package domain

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionIDPrefix is the prefix for session IDs.
const SessionIDPrefix = "bcss-"

// SessionKind classifies the user workflow a session belongs to.
// At most one active session per {user, kind} pair exists at a time.
type SessionKind string

const (
	KindEdit   SessionKind = "edit"
	KindSearch SessionKind = "search"
	KindIndex  SessionKind = "index"
	KindBatch  SessionKind = "batch"
)

// DefaultTTL returns the default time-to-live for the session kind.
func (k SessionKind) DefaultTTL() time.Duration {
	switch k {
	case KindEdit:
		return 5 * time.Minute
	case KindSearch:
		return time.Hour
	case KindIndex:
		return 30 * time.Minute
	case KindBatch:
		return 2 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// Valid reports whether the kind is one of the known session kinds.
func (k SessionKind) Valid() bool {
	switch k {
	case KindEdit, KindSearch, KindIndex, KindBatch:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusExpired   SessionStatus = "expired"
	StatusCancelled SessionStatus = "cancelled"
	StatusCompleted SessionStatus = "completed"
)

// SessionRecord represents a user workflow session.
type SessionRecord struct {
	// ID is the unique identifier for the session.
	// Format: bcss-{ulid_lowercase}, 31 characters total.
	ID string `json:"id"`

	// UserID identifies the user who owns this session.
	UserID int64 `json:"user_id"`

	// Kind is the workflow classification.
	Kind SessionKind `json:"kind"`

	// Status is the current lifecycle state.
	Status SessionStatus `json:"status"`

	// CreatedAt is the session creation timestamp (Unix milliseconds).
	CreatedAt int64 `json:"created_at"`

	// ExpiresAt is the absolute expiration timestamp (Unix milliseconds).
	ExpiresAt int64 `json:"expires_at"`

	// LastActivity is the last activity timestamp (Unix milliseconds).
	LastActivity int64 `json:"last_activity"`

	// Payload contains workflow-specific state.
	Payload map[string]any `json:"payload"`
}

// NewSessionRecord creates an active session with a generated ID and an
// expiry of now + ttl. A non-positive ttl falls back to the kind default.
func NewSessionRecord(userID int64, kind SessionKind, ttl time.Duration) (*SessionRecord, error) {
	if userID <= 0 {
		return nil, ErrSessionValidation.WithDetails("user_id must be positive")
	}
	if !kind.Valid() {
		return nil, ErrSessionValidation.WithDetails("unknown session kind: " + string(kind))
	}
	if ttl <= 0 {
		ttl = kind.DefaultTTL()
	}

	id, err := GenerateSessionID()
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	return &SessionRecord{
		ID:           id,
		UserID:       userID,
		Kind:         kind,
		Status:       StatusActive,
		CreatedAt:    now,
		ExpiresAt:    now + ttl.Milliseconds(),
		LastActivity: now,
		Payload:      make(map[string]any),
	}, nil
}

// GenerateSessionID generates a new session ID using ULID.
// Format: bcss-{ulid_lowercase}, 31 characters total.
func GenerateSessionID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", ErrInternalServer.WithCause(err)
	}
	return SessionIDPrefix + strings.ToLower(id.String()), nil
}

// IsExpired returns true once the session expiry is reached. The
// expiry instant itself counts as expired.
func (s *SessionRecord) IsExpired() bool {
	if s.ExpiresAt == 0 {
		return false
	}
	return time.Now().UnixMilli() >= s.ExpiresAt
}

// IsActive returns true if the session is active and not expired.
func (s *SessionRecord) IsActive() bool {
	return s.Status == StatusActive && !s.IsExpired()
}

// Remaining returns the remaining time-to-live as a duration.
// Returns 0 if expired or no expiration is set.
func (s *SessionRecord) Remaining() time.Duration {
	if s.ExpiresAt == 0 {
		return 0
	}
	remaining := s.ExpiresAt - time.Now().UnixMilli()
	if remaining < 0 {
		return 0
	}
	return time.Duration(remaining) * time.Millisecond
}

// Touch updates the LastActivity timestamp.
func (s *SessionRecord) Touch() {
	s.LastActivity = time.Now().UnixMilli()
}

// Extend pushes the expiration forward by the given duration.
func (s *SessionRecord) Extend(extension time.Duration) {
	if s.ExpiresAt > 0 {
		s.ExpiresAt += extension.Milliseconds()
	}
}

// MergePayload copies the given keys into the session payload,
// overwriting existing values.
func (s *SessionRecord) MergePayload(update map[string]any) {
	if len(update) == 0 {
		return
	}
	if s.Payload == nil {
		s.Payload = make(map[string]any, len(update))
	}
	for k, v := range update {
		s.Payload[k] = v
	}
}

// Clone creates a deep copy of the session record.
func (s *SessionRecord) Clone() *SessionRecord {
	clone := *s
	if s.Payload != nil {
		clone.Payload = make(map[string]any, len(s.Payload))
		for k, v := range s.Payload {
			clone.Payload[k] = v
		}
	}
	return &clone
}

// CreatedAtTime returns CreatedAt as time.Time.
func (s *SessionRecord) CreatedAtTime() time.Time {
	return time.UnixMilli(s.CreatedAt)
}

// ExpiresAtTime returns ExpiresAt as time.Time.
func (s *SessionRecord) ExpiresAtTime() time.Time {
	if s.ExpiresAt == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.ExpiresAt)
}

// IsValidSessionID checks if a string is a valid session ID format.
// It normalizes the ID to lowercase before validation.
func IsValidSessionID(id string) bool {
	id = strings.ToLower(id)

	if !strings.HasPrefix(id, SessionIDPrefix) {
		return false
	}

	// bcss- (5) + ULID (26) = 31 characters
	if len(id) != 31 {
		return false
	}

	ulidPart := strings.ToUpper(id[len(SessionIDPrefix):])
	_, err := ulid.Parse(ulidPart)
	return err == nil
}
