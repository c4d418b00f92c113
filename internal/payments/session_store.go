package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/serenityspa/bookingflow/pkg/logging"
)

// SessionStore tracks the single active checkout session per draft in
// Redis. Recording a new session atomically swaps out whatever was pending
// before, so two concurrent external sessions can never both stay
// referenced.
type SessionStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewSessionStore creates a session-reference store. ttl bounds how long an
// abandoned session reference lingers.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration, logger *logging.Logger) *SessionStore {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{redis: redisClient, ttl: ttl, logger: logger}
}

func sessionKey(draftID string) string {
	return "checkout:active:" + draftID
}

// Swap records sessionID as the active session for the draft and returns
// the prior session id, if one was still pending.
func (s *SessionStore) Swap(ctx context.Context, draftID, sessionID string) (string, error) {
	prior, err := s.redis.SetArgs(ctx, sessionKey(draftID), sessionID, redis.SetArgs{
		TTL: s.ttl,
		Get: true,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("payments: record active session: %w", err)
	}
	if prior != "" && prior != sessionID {
		s.logger.Info("invalidated prior checkout session",
			"draft_id", draftID, "prior_session", prior, "session", sessionID)
	}
	return prior, nil
}

// Active returns the pending session id for a draft, or "" when none is open.
func (s *SessionStore) Active(ctx context.Context, draftID string) (string, error) {
	val, err := s.redis.Get(ctx, sessionKey(draftID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("payments: read active session: %w", err)
	}
	return val, nil
}

// Settle consumes a provider return for a draft. It reports whether the
// returning session is still the active one; stale returns (a session that
// was invalidated by a newer one) are flagged so the caller can ignore
// them. The reference is cleared either way only when the session matches.
func (s *SessionStore) Settle(ctx context.Context, draftID, sessionID string) (bool, error) {
	active, err := s.Active(ctx, draftID)
	if err != nil {
		return false, err
	}
	if active == "" {
		// No pending reference; treat an id-less return as settled.
		return sessionID == "", nil
	}
	if sessionID != "" && sessionID != active {
		s.logger.Warn("stale checkout session return ignored",
			"draft_id", draftID, "session", sessionID, "active", active)
		return false, nil
	}
	if err := s.redis.Del(ctx, sessionKey(draftID)).Err(); err != nil {
		return false, fmt.Errorf("payments: clear active session: %w", err)
	}
	return true, nil
}

// Clear drops any pending session reference for a draft (wizard closed or
// draft expired).
func (s *SessionStore) Clear(ctx context.Context, draftID string) error {
	if err := s.redis.Del(ctx, sessionKey(draftID)).Err(); err != nil {
		return fmt.Errorf("payments: clear active session: %w", err)
	}
	return nil
}
