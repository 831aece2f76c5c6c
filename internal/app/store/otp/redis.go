package otpstore

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/redis/go-redis/v9"
)

// The challenge is a hash {code, attempts}. The script compares and
// deletes in one step so concurrent verifies cannot both succeed.
//
// Returns 0 when no challenge exists, 1 on mismatch, 2 on success.
var consumeScript = redis.NewScript(`
local code = redis.call('HGET', KEYS[1], 'code')
if not code then
  return 0
end
if code == ARGV[1] then
  redis.call('DEL', KEYS[1])
  return 2
end
local n = redis.call('HINCRBY', KEYS[1], 'attempts', 1)
local max = tonumber(ARGV[2])
if max > 0 and n >= max then
  redis.call('DEL', KEYS[1])
end
return 1
`)

// RedisStore keeps challenges as Redis hashes with a TTL.
type RedisStore struct {
	rdb         redis.UniversalClient
	prefix      string
	maxAttempts int
}

// NewRedis creates a Redis-backed Store. Keys are "<prefix>otp:<email>".
// maxAttempts wrong codes discard a challenge; 0 means no limit.
func NewRedis(rdb redis.UniversalClient, prefix string, maxAttempts int) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix, maxAttempts: maxAttempts}
}

func (s *RedisStore) key(email string) string {
	return s.prefix + "otp:" + normalize.Email(email)
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	k := s.key(email)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k, "code", code, "attempts", 0)
		p.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	return nil
}

// Consume implements Store.
func (s *RedisStore) Consume(ctx context.Context, email, code string) error {
	res, err := consumeScript.Run(ctx, s.rdb, []string{s.key(email)}, code, s.maxAttempts).Int()
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	switch res {
	case 2:
		return nil
	case 1:
		return ErrMismatch
	default:
		return ErrNoChallenge
	}
}
