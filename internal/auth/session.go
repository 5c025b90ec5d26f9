// Package auth holds the session layer of the orchestration side: a
// redis-backed session record addressed by a signed token. Core services
// never see sessions, only the resolved identity.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/warbler-app/warbler/pkg/cache"
)

// Session is the server-side record behind a logged-in token. The CSRF
// token issued at login travels with it so mutating requests can be checked
// against it.
type Session struct {
	ID        string    `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	CSRFToken string    `json:"csrf_token"`
}

type SessionManager struct {
	cache  *cache.RedisClient
	secret string
	ttl    time.Duration
}

func NewSessionManager(cache *cache.RedisClient, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		cache:  cache,
		secret: secret,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("warbler:session:%s", id)
}

// Create opens a session for the user and returns the signed token the
// client authenticates with.
func (m *SessionManager) Create(ctx context.Context, userID uuid.UUID) (string, *Session, error) {
	session := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CSRFToken: uuid.NewString(),
	}

	if err := m.cache.SetJSON(ctx, sessionKey(session.ID), session, m.ttl); err != nil {
		return "", nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := signToken(userID, session.ID, m.secret, m.ttl)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return token, session, nil
}

// Resolve maps a token back to its live session. A valid signature over a
// destroyed or expired session resolves to nil: logout and account deletion
// are immediate, not bounded by token expiry.
func (m *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	claims, err := parseToken(token, m.secret)
	if err != nil {
		return nil, nil
	}

	var session Session
	if err := m.cache.GetJSON(ctx, sessionKey(claims.SessionID), &session); err != nil {
		if cache.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	return &session, nil
}

// Destroy terminates a session. Destroying an absent session is a no-op.
func (m *SessionManager) Destroy(ctx context.Context, sessionID string) error {
	return m.cache.Delete(ctx, sessionKey(sessionID))
}
