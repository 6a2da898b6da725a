package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// SessionStore keeps bearer tokens in Redis. Besides the token->principal
// mapping it maintains a per-user token set so a role change can revoke
// every live session of that user at once.
type SessionStore struct {
	redis *repository.RedisRepository
	ttl   time.Duration
}

func NewSessionStore(redis *repository.RedisRepository, ttl time.Duration) *SessionStore {
	return &SessionStore{redis: redis, ttl: ttl}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func userSessionsKey(userID string) string {
	return fmt.Sprintf("user_sessions:%s", userID)
}

// Issue creates a session token for the principal. Session issuance
// belongs to the auth collaborator; this exists for it and for tests.
func (s *SessionStore) Issue(ctx context.Context, p Principal) (string, error) {
	token := uuid.New().String()
	if err := s.redis.SetJSON(ctx, sessionKey(token), p, s.ttl); err != nil {
		return "", err
	}
	if err := s.redis.SAdd(ctx, userSessionsKey(p.UserID), token); err != nil {
		return "", err
	}
	if err := s.redis.Expire(ctx, userSessionsKey(p.UserID), s.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve returns the principal behind a token, or ErrUnauthorized.
func (s *SessionStore) Resolve(ctx context.Context, token string) (Principal, error) {
	var p Principal
	err := s.redis.GetJSON(ctx, sessionKey(token), &p)
	if err != nil {
		if repository.IsNil(err) {
			return Principal{}, errs.ErrUnauthorized
		}
		return Principal{}, err
	}
	return p, nil
}

// Revoke removes one session.
func (s *SessionStore) Revoke(ctx context.Context, userID, token string) error {
	if err := s.redis.Del(ctx, sessionKey(token)); err != nil {
		return err
	}
	return s.redis.SRem(ctx, userSessionsKey(userID), token)
}

// RevokeUser drops every live session of a user. Called whenever the
// verification workflow reports a role change, so no active session
// keeps a stale role.
func (s *SessionStore) RevokeUser(ctx context.Context, userID string) error {
	tokens, err := s.redis.SMembers(ctx, userSessionsKey(userID))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, userSessionsKey(userID))

	return s.redis.Del(ctx, keys...)
}
