// Package service provides domain services for BotCore.
//
// The session manager keeps at most one active session per
// {user, kind} pair on top of a cache instance. Cache problems
// degrade to "no session" answers; they never fail a request.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seralo/botcore/internal/cache"
	"github.com/seralo/botcore/internal/core/domain"
	"github.com/seralo/botcore/internal/telemetry/logger"
)

// sessionKeyPrefix namespaces session entries in the cache.
const sessionKeyPrefix = "session:"

// SessionManager owns session lifecycle on top of a cache instance.
//
// Two entries exist per session: the primary entry under
// "session:<kind>:<user>:<id>" holding the record, and a pointer
// entry under "session:<kind>:<user>" holding the session id. Both
// carry the same TTL, so the pair expires together.
type SessionManager struct {
	cache  *cache.Cache
	ttls   map[domain.SessionKind]time.Duration
	logger logger.Logger
}

// NewSessionManager creates a session manager. ttls overrides the
// per-kind default TTLs; missing kinds use the domain defaults.
func NewSessionManager(c *cache.Cache, ttls map[domain.SessionKind]time.Duration, log logger.Logger) (*SessionManager, error) {
	if c == nil {
		return nil, domain.ErrInvalidConfig.WithDetails("session manager requires a cache instance")
	}
	if log == nil {
		log = logger.Default()
	}
	for kind, ttl := range ttls {
		if ttl <= 0 {
			return nil, domain.ErrInvalidConfig.WithDetails(
				"session ttl for kind " + string(kind) + " must be positive")
		}
	}
	return &SessionManager{
		cache:  c,
		ttls:   ttls,
		logger: log,
	}, nil
}

func (m *SessionManager) ttlFor(kind domain.SessionKind) time.Duration {
	if ttl, ok := m.ttls[kind]; ok {
		return ttl
	}
	return kind.DefaultTTL()
}

func primaryKey(kind domain.SessionKind, userID int64, id string) string {
	return fmt.Sprintf("%s%s:%d:%s", sessionKeyPrefix, kind, userID, id)
}

func pointerKey(kind domain.SessionKind, userID int64) string {
	return fmt.Sprintf("%s%s:%d", sessionKeyPrefix, kind, userID)
}

// CreateSessionRequest contains parameters for session creation.
type CreateSessionRequest struct {
	UserID  int64
	Kind    domain.SessionKind
	TTL     time.Duration // optional, defaults to the kind TTL
	Payload map[string]any
}

// CreateSessionResponse contains the created session.
type CreateSessionResponse struct {
	Session *domain.SessionRecord
}

// Create starts a new session for {user, kind}. An existing active
// session for the same pair is cancelled first, so the new session is
// the only active one.
func (m *SessionManager) Create(ctx context.Context, req *CreateSessionRequest) (*CreateSessionResponse, error) {
	ttl := req.TTL
	if ttl <= 0 {
		ttl = m.ttlFor(req.Kind)
	}

	session, err := domain.NewSessionRecord(req.UserID, req.Kind, ttl)
	if err != nil {
		return nil, err
	}
	session.MergePayload(req.Payload)

	// Supersede any existing session for this pair.
	if existing := m.lookup(req.Kind, req.UserID, ""); existing != nil {
		m.remove(existing)
		m.logger.Debug("superseded existing session",
			"user_id", req.UserID, "kind", req.Kind, "session_id", existing.ID)
	}

	m.store(session, ttl)

	m.logger.Info("session created",
		"user_id", req.UserID, "kind", req.Kind, "session_id", session.ID,
		"ttl", ttl)

	return &CreateSessionResponse{Session: session}, nil
}

// GetSessionRequest contains parameters for session lookup.
type GetSessionRequest struct {
	UserID int64
	Kind   domain.SessionKind
	// SessionID is optional; when empty the current session for
	// {user, kind} is resolved through the pointer entry.
	SessionID string
}

// GetSessionResponse contains the found session.
type GetSessionResponse struct {
	Session *domain.SessionRecord
}

// Get returns the active session, or ErrSessionNotFound. A session
// past its expiry is treated as absent and purged.
func (m *SessionManager) Get(ctx context.Context, req *GetSessionRequest) (*GetSessionResponse, error) {
	session := m.lookup(req.Kind, req.UserID, req.SessionID)
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	if !session.IsActive() {
		m.remove(session)
		return nil, domain.ErrSessionNotFound
	}
	return &GetSessionResponse{Session: session}, nil
}

// UpdateSessionRequest contains parameters for a payload update.
type UpdateSessionRequest struct {
	UserID    int64
	Kind      domain.SessionKind
	SessionID string // optional
	Payload   map[string]any
}

// UpdateSessionResponse contains the updated session.
type UpdateSessionResponse struct {
	Session *domain.SessionRecord
}

// Update merges the payload into the session and refreshes its
// last-activity timestamp. The entry is rewritten with its remaining
// TTL: updating never extends the session's life.
func (m *SessionManager) Update(ctx context.Context, req *UpdateSessionRequest) (*UpdateSessionResponse, error) {
	session := m.lookup(req.Kind, req.UserID, req.SessionID)
	if session == nil || !session.IsActive() {
		return nil, domain.ErrSessionNotFound
	}

	session.MergePayload(req.Payload)
	session.Touch()

	remaining := session.Remaining()
	if remaining <= 0 {
		m.remove(session)
		return nil, domain.ErrSessionNotFound
	}
	m.store(session, remaining)

	return &UpdateSessionResponse{Session: session}, nil
}

// ExtendSessionRequest contains parameters for a TTL extension.
type ExtendSessionRequest struct {
	UserID    int64
	Kind      domain.SessionKind
	SessionID string        // optional
	Extension time.Duration // must be positive
}

// ExtendSessionResponse contains the new expiry.
type ExtendSessionResponse struct {
	ExpiresAt int64
}

// Extend pushes the session expiry forward and rewrites both cache
// entries with the new remaining TTL.
func (m *SessionManager) Extend(ctx context.Context, req *ExtendSessionRequest) (*ExtendSessionResponse, error) {
	if req.Extension <= 0 {
		return nil, domain.ErrInvalidArgument.WithDetails("extension must be positive")
	}

	session := m.lookup(req.Kind, req.UserID, req.SessionID)
	if session == nil || !session.IsActive() {
		return nil, domain.ErrSessionNotFound
	}

	session.Extend(req.Extension)
	session.Touch()
	m.store(session, session.Remaining())

	return &ExtendSessionResponse{ExpiresAt: session.ExpiresAt}, nil
}

// CancelSessionRequest contains parameters for cancellation.
type CancelSessionRequest struct {
	UserID    int64
	Kind      domain.SessionKind
	SessionID string // optional
}

// CancelSessionResponse reports the outcome.
type CancelSessionResponse struct {
	Success bool
}

// Cancel removes the session. Cancelling an absent session is a
// success: the operation is idempotent.
func (m *SessionManager) Cancel(ctx context.Context, req *CancelSessionRequest) (*CancelSessionResponse, error) {
	session := m.lookup(req.Kind, req.UserID, req.SessionID)
	if session == nil {
		return &CancelSessionResponse{Success: true}, nil
	}

	session.Status = domain.StatusCancelled
	m.remove(session)

	m.logger.Info("session cancelled",
		"user_id", req.UserID, "kind", req.Kind, "session_id", session.ID)

	return &CancelSessionResponse{Success: true}, nil
}

// HasActive reports whether the user has an active session of the
// given kind.
func (m *SessionManager) HasActive(ctx context.Context, userID int64, kind domain.SessionKind) bool {
	session := m.lookup(kind, userID, "")
	return session != nil && session.IsActive()
}

// UserSessions returns every active session of the user across all
// kinds.
func (m *SessionManager) UserSessions(ctx context.Context, userID int64) []*domain.SessionRecord {
	var out []*domain.SessionRecord
	for _, kind := range []domain.SessionKind{domain.KindEdit, domain.KindSearch, domain.KindIndex, domain.KindBatch} {
		if session := m.lookup(kind, userID, ""); session != nil && session.IsActive() {
			out = append(out, session)
		}
	}
	return out
}

// CancelAll cancels every session of the user and returns how many
// were removed.
func (m *SessionManager) CancelAll(ctx context.Context, userID int64) int {
	cancelled := 0
	for _, session := range m.UserSessions(ctx, userID) {
		resp, err := m.Cancel(ctx, &CancelSessionRequest{
			UserID:    userID,
			Kind:      session.Kind,
			SessionID: session.ID,
		})
		if err == nil && resp.Success {
			cancelled++
		}
	}
	return cancelled
}

// lookup resolves a session from the cache, via the pointer entry
// when no id is given. Any cache inconsistency reads as "no session".
//
// The returned record is a private copy. Callers mutate it freely;
// changes become visible only through store.
func (m *SessionManager) lookup(kind domain.SessionKind, userID int64, id string) *domain.SessionRecord {
	if id == "" {
		raw, ok := m.cache.Get(pointerKey(kind, userID))
		if !ok {
			return nil
		}
		id, ok = raw.(string)
		if !ok {
			return nil
		}
	}

	raw, ok := m.cache.Get(primaryKey(kind, userID, id))
	if !ok {
		return nil
	}
	session, ok := raw.(*domain.SessionRecord)
	if !ok {
		return nil
	}
	return session.Clone()
}

// store writes the primary and pointer entries with a shared TTL.
// The cache holds its own copy of the record, so concurrent readers
// never share a payload map with a caller still mutating one.
func (m *SessionManager) store(session *domain.SessionRecord, ttl time.Duration) {
	m.cache.Set(primaryKey(session.Kind, session.UserID, session.ID), session.Clone(), ttl)
	m.cache.Set(pointerKey(session.Kind, session.UserID), session.ID, ttl)
}

// remove deletes the primary entry and, when it still points at this
// session, the pointer entry.
func (m *SessionManager) remove(session *domain.SessionRecord) {
	m.cache.Delete(primaryKey(session.Kind, session.UserID, session.ID))

	pk := pointerKey(session.Kind, session.UserID)
	if raw, ok := m.cache.Get(pk); ok {
		if id, ok := raw.(string); ok && id == session.ID {
			m.cache.Delete(pk)
		}
	}
}

// isPointerKey reports whether a cache key is a session pointer entry
// ("session:<kind>:<user>", three segments).
func isPointerKey(key string) bool {
	return strings.Count(key, ":") == 2 && strings.HasPrefix(key, sessionKeyPrefix)
}
