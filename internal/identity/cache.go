package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"scoutly/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "scoutly:session:"
	currentKey       = "scoutly:current"
)

// SessionCache persists the signed-in session in Redis so a restarted client
// can restore it. The current key points at the session stored under its
// access token.
type SessionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionCache(rdb *redis.Client, ttl time.Duration) *SessionCache {
	return &SessionCache{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

// Save stores sess and marks it current, replacing any earlier session.
func (c *SessionCache) Save(ctx context.Context, sess *models.AuthSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	previous, err := c.rdb.Get(ctx, currentKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read current session: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	if previous != "" && previous != sess.AccessToken {
		pipe.Del(ctx, sessionKey(previous))
	}
	pipe.Set(ctx, sessionKey(sess.AccessToken), data, c.ttl)
	pipe.Set(ctx, currentKey, sess.AccessToken, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Load returns the current session, or nil when none is stored.
func (c *SessionCache) Load(ctx context.Context) (*models.AuthSession, error) {
	token, err := c.rdb.Get(ctx, currentKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read current session: %w", err)
	}

	data, err := c.rdb.Get(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess models.AuthSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// Clear removes the current session.
func (c *SessionCache) Clear(ctx context.Context) error {
	token, err := c.rdb.Get(ctx, currentKey).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read current session: %w", err)
	}
	keys := []string{currentKey}
	if token != "" {
		keys = append(keys, sessionKey(token))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
