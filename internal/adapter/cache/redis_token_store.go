package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/domain"
	"github.com/mohamedlandolsi/hypertroq-backend-sub001/internal/repository"
)

var errUnknownKind = errors.New("unknown token kind")

// keyPrefix maps a token kind to its key namespace.
func keyPrefix(kind domain.TokenKind) (string, error) {
	switch kind {
	case domain.TokenEmailVerification:
		return "email_verify:", nil
	case domain.TokenPasswordReset:
		return "pwd_reset:", nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownKind, kind)
	}
}

func tokenKey(kind domain.TokenKind, token string) (string, error) {
	prefix, err := keyPrefix(kind)
	if err != nil {
		return "", err
	}
	return prefix + token, nil
}

// userIndexKey holds the set of outstanding tokens of one kind for a user.
// Tokens are base64url so they never contain ':' and cannot collide with it.
func userIndexKey(kind domain.TokenKind, userID int64) (string, error) {
	prefix, err := keyPrefix(kind)
	if err != nil {
		return "", err
	}
	return prefix + "user:" + strconv.FormatInt(userID, 10), nil
}

// RedisTokenStore implements TokenStore backed by Redis.
// Records outlive their expiry by the retention window so that a late
// presentation can be told apart from a token that never existed.
type RedisTokenStore struct {
	client    redis.UniversalClient
	retention time.Duration
	now       func() time.Time
}

var _ repository.TokenStore = (*RedisTokenStore)(nil)

// NewRedisTokenStore constructs a Redis-backed token store.
func NewRedisTokenStore(client redis.UniversalClient, retention time.Duration) *RedisTokenStore {
	if retention < 0 {
		retention = 0
	}
	return &RedisTokenStore{client: client, retention: retention, now: time.Now}
}

// Save stores the token record and indexes it under its owner.
func (s *RedisTokenStore) Save(ctx context.Context, token domain.EphemeralToken) error {
	key, err := tokenKey(token.Kind, token.Token)
	if err != nil {
		return err
	}
	index, err := userIndexKey(token.Kind, token.UserID)
	if err != nil {
		return err
	}

	ttl := token.ExpiresAt.Sub(s.now()) + s.retention
	if ttl <= 0 {
		return fmt.Errorf("persist token: already past retention")
	}

	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, payload, ttl)
		pipe.SAdd(ctx, index, token.Token)
		pipe.Expire(ctx, index, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Consume loads and deletes the token in one round trip.
func (s *RedisTokenStore) Consume(ctx context.Context, kind domain.TokenKind, token string) (*domain.EphemeralToken, error) {
	key, err := tokenKey(kind, token)
	if err != nil {
		return nil, err
	}

	bytes, err := s.client.GetDel(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume token: %w", err)
	}

	var record domain.EphemeralToken
	if err := json.Unmarshal(bytes, &record); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}

	if index, err := userIndexKey(kind, record.UserID); err == nil {
		// a stale index entry is harmless, RevokeUser tolerates missing keys
		_ = s.client.SRem(ctx, index, token).Err()
	}
	return &record, nil
}

// revokeScript deletes the indexed tokens and the index atomically.
// KEYS[1] = user index, ARGV[1] = token key prefix.
var revokeScript = redis.NewScript(`
local members = redis.call('SMEMBERS', KEYS[1])
local removed = 0
for _, token in ipairs(members) do
	removed = removed + redis.call('DEL', ARGV[1] .. token)
end
redis.call('DEL', KEYS[1])
return removed
`)

// RevokeUser deletes every outstanding token of kind for userID.
func (s *RedisTokenStore) RevokeUser(ctx context.Context, kind domain.TokenKind, userID int64) (int, error) {
	prefix, err := keyPrefix(kind)
	if err != nil {
		return 0, err
	}
	index, err := userIndexKey(kind, userID)
	if err != nil {
		return 0, err
	}

	removed, err := revokeScript.Run(ctx, s.client, []string{index}, prefix).Int()
	if err != nil {
		return 0, fmt.Errorf("revoke user tokens: %w", err)
	}
	return removed, nil
}
