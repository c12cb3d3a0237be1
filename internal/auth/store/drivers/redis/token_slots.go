// Package redis keeps refresh token slots and rate limit counters in Redis.
// Each slot is a hash that expires with the token it holds.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aussiebroadwan/hotellisting/internal/auth/domain"
	"github.com/aussiebroadwan/hotellisting/internal/auth/store"
	goredis "github.com/redis/go-redis/v9"
)

const DefaultPrefix = "authtok"

// replaceScript swaps the slot contents only if it still holds the
// expected hash. Returns 1 on success, 0 when the slot changed.
const replaceScript = `
local current = redis.call('HGET', KEYS[1], 'hash')
if current ~= ARGV[1] then
  return 0
end
redis.call('HSET', KEYS[1], 'hash', ARGV[2], 'stamp', ARGV[3], 'exp', ARGV[4], 'created', ARGV[5])
redis.call('PEXPIREAT', KEYS[1], ARGV[6])
return 1
`

var replaceLua = goredis.NewScript(replaceScript)

// TokenSlots implements store.TokenSlots on a Redis client.
type TokenSlots struct {
	client goredis.UniversalClient
	prefix string
}

var _ store.TokenSlots = (*TokenSlots)(nil)

// NewTokenSlots returns a slot store using keys under prefix. An empty
// prefix uses DefaultPrefix.
func NewTokenSlots(client goredis.UniversalClient, prefix string) *TokenSlots {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TokenSlots{client: client, prefix: prefix}
}

// Open parses a redis:// URL and pings the server.
func Open(ctx context.Context, url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// Ping reports whether the Redis server is reachable.
func (s *TokenSlots) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *TokenSlots) key(principalID, provider, purpose string) string {
	return s.prefix + ":" + principalID + ":" + provider + ":" + purpose
}

func (s *TokenSlots) GetToken(
	ctx context.Context,
	principalID, provider, purpose string,
) (domain.TokenSlot, error) {
	vals, err := s.client.HGetAll(ctx, s.key(principalID, provider, purpose)).Result()
	if err != nil {
		return domain.TokenSlot{}, err
	}
	if len(vals) == 0 || vals["hash"] == "" {
		return domain.TokenSlot{}, store.ErrNotFound
	}

	exp, err := strconv.ParseInt(vals["exp"], 10, 64)
	if err != nil {
		return domain.TokenSlot{}, fmt.Errorf("redis: corrupt slot expiry: %w", err)
	}
	created, _ := strconv.ParseInt(vals["created"], 10, 64)

	return domain.TokenSlot{
		PrincipalID:   principalID,
		Provider:      provider,
		Purpose:       purpose,
		ValueHash:     vals["hash"],
		SecurityStamp: vals["stamp"],
		ExpiresAt:     time.Unix(exp, 0).UTC(),
		CreatedAt:     time.Unix(created, 0).UTC(),
	}, nil
}

// SetToken overwrites the slot in a MULTI/EXEC block.
func (s *TokenSlots) SetToken(ctx context.Context, slot domain.TokenSlot) error {
	key := s.key(slot.PrincipalID, slot.Provider, slot.Purpose)
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"hash", slot.ValueHash,
			"stamp", slot.SecurityStamp,
			"exp", strconv.FormatInt(slot.ExpiresAt.Unix(), 10),
			"created", strconv.FormatInt(createdAt(slot).Unix(), 10),
		)
		pipe.PExpireAt(ctx, key, slot.ExpiresAt)
		return nil
	})
	return err
}

func (s *TokenSlots) ReplaceToken(ctx context.Context, expectedHash string, slot domain.TokenSlot) error {
	key := s.key(slot.PrincipalID, slot.Provider, slot.Purpose)
	res, err := replaceLua.Run(ctx, s.client, []string{key},
		expectedHash,
		slot.ValueHash,
		slot.SecurityStamp,
		strconv.FormatInt(slot.ExpiresAt.Unix(), 10),
		strconv.FormatInt(createdAt(slot).Unix(), 10),
		strconv.FormatInt(slot.ExpiresAt.UnixMilli(), 10),
	).Int()
	if err != nil {
		return err
	}
	if res == 0 {
		return store.ErrTokenConflict
	}
	return nil
}

func (s *TokenSlots) RemoveToken(ctx context.Context, principalID, provider, purpose string) error {
	err := s.client.Del(ctx, s.key(principalID, provider, purpose)).Err()
	if errors.Is(err, goredis.Nil) {
		return nil
	}
	return err
}

// DeleteExpired is a no-op: Redis expires slots on its own.
func (s *TokenSlots) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func createdAt(slot domain.TokenSlot) time.Time {
	if slot.CreatedAt.IsZero() {
		return time.Now().UTC()
	}
	return slot.CreatedAt
}
