// Copyright (c) 2026 Onnanoko. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/onnanoko/internal/platform/apperr"
	"github.com/taibuivan/onnanoko/internal/platform/constants"
)

// RedisSessionRepository implements [SessionRepository] using Redis.
//
// # Key Layout
//
//	auth:session:<token hash>       JSON session, expires with the session
//	auth:user_sessions:<user id>    SET of token hashes, used by RevokeAll
type RedisSessionRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRepository creates a new Redis-backed [SessionRepository].
func NewSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client, now: time.Now}
}

func sessionKey(tokenHash string) string {
	return constants.RedisPrefixSession + tokenHash
}

func userSessionsKey(userID string) string {
	return constants.RedisPrefixUserSession + userID
}

/*
Create stores the session with a TTL matching its expiry and indexes it
under the owning user.

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Create(ctx context.Context, session *Session) error {
	ttl := session.ExpiresAt.Sub(repository.now())
	if ttl <= 0 {
		return apperr.ValidationError("Session is already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_encode_failed: %w", err)
	}

	indexKey := userSessionsKey(session.UserID)

	pipe := repository.client.TxPipeline()
	pipe.Set(ctx, sessionKey(session.TokenHash), payload, ttl)
	pipe.SAdd(ctx, indexKey, session.TokenHash)
	pipe.Expire(ctx, indexKey, RefreshTokenTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis_session_set_failed: %w", err)
	}
	return nil
}

/*
FindByTokenHash loads a session. Redis expiry removes stale sessions, so a
missing key is the only "invalid" case.
*/
func (repository *RedisSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*Session, error) {
	payload, err := repository.client.Get(ctx, sessionKey(tokenHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	session := &Session{}
	if err := json.Unmarshal(payload, session); err != nil {
		return nil, fmt.Errorf("redis_session_decode_failed: %w", err)
	}
	return session, nil
}

func (repository *RedisSessionRepository) Revoke(ctx context.Context, tokenHash string) error {
	session, err := repository.FindByTokenHash(ctx, tokenHash)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil
		}
		return err
	}

	pipe := repository.client.TxPipeline()
	pipe.Del(ctx, sessionKey(tokenHash))
	pipe.SRem(ctx, userSessionsKey(session.UserID), tokenHash)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

func (repository *RedisSessionRepository) RevokeAll(ctx context.Context, userID string) error {
	indexKey := userSessionsKey(userID)

	hashes, err := repository.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		return fmt.Errorf("redis_user_sessions_get_failed: %w", err)
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, hash := range hashes {
		keys = append(keys, sessionKey(hash))
	}
	keys = append(keys, indexKey)

	if err := repository.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis_user_sessions_delete_failed: %w", err)
	}
	return nil
}
