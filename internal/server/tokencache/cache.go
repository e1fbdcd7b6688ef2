// Package tokencache keeps recently issued download tokens close to the
// resolution path. The database stays authoritative; a miss is never an
// answer on its own.
package tokencache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstore/internal/server/models"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"
)

type Cache interface {
	Get(ctx context.Context, tokenValue string) (*models.Resolution, bool, error)
	Put(ctx context.Context, tokenValue string, res *models.Resolution, ttl time.Duration) error
}

const keyPrefix = "gophstore:dltoken:"

// Key hashes the token value so raw tokens never sit in Redis.
func Key(tokenValue string) string {
	sum := blake2b.Sum256([]byte(tokenValue))
	return keyPrefix + hex.EncodeToString(sum[:])
}

type RedisCache struct {
	client redis.UniversalClient
}

func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

type entry struct {
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	ContentID string    `json:"content_id"`
	Format    string    `json:"format"`
	FileRef   string    `json:"file_ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c *RedisCache) Get(ctx context.Context, tokenValue string) (*models.Resolution, bool, error) {
	raw, err := c.client.Get(ctx, Key(tokenValue)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false, fmt.Errorf("decode cached token: %w", err)
	}
	return &models.Resolution{
		TokenID:   e.TokenID,
		UserID:    e.UserID,
		ContentID: e.ContentID,
		Format:    e.Format,
		FileRef:   e.FileRef,
		ExpiresAt: e.ExpiresAt,
	}, true, nil
}

// Put stores res for ttl. Non-positive ttls are skipped.
func (c *RedisCache) Put(ctx context.Context, tokenValue string, res *models.Resolution, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(entry{
		TokenID:   res.TokenID,
		UserID:    res.UserID,
		ContentID: res.ContentID,
		Format:    res.Format,
		FileRef:   res.FileRef,
		ExpiresAt: res.ExpiresAt,
	})
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, Key(tokenValue), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Nop never hits.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.Resolution, bool, error) { return nil, false, nil }

func (Nop) Put(context.Context, string, *models.Resolution, time.Duration) error { return nil }
