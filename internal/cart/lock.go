package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Mutex serializes mutations per cart with a Redis SETNX lock. A cart belongs
// to a single interactive user, so contention is rare and waits are short.
type Mutex struct {
	Client       *redis.Client
	TTL          time.Duration
	RetryBackoff time.Duration
}

func mutexKey(id uuid.UUID) string {
	return fmt.Sprintf("cart:%s:lock", id)
}

// WithLock runs fn while holding the cart's mutation lock. The lock releases
// when fn returns, or lapses via TTL if the process dies mid-mutation.
func (m Mutex) WithLock(ctx context.Context, id uuid.UUID, fn func(context.Context) error) error {
	if m.Client == nil {
		return errors.New("cart: lock redis client not configured")
	}
	ttl := m.TTL
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	retry := m.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	key := mutexKey(id)
	token := uuid.NewString()

	for {
		acquired, err := m.Client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return fmt.Errorf("cart: acquire lock: %w", err)
		}
		if acquired {
			defer m.release(context.WithoutCancel(ctx), key, token)
			return fn(ctx)
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// release deletes the lock only if this holder still owns it.
func (m Mutex) release(ctx context.Context, key, token string) {
	const script = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`
	if err := m.Client.Eval(ctx, script, []string{key}, token).Err(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unknown command") {
			_ = m.Client.Del(ctx, key).Err()
		}
	}
}
