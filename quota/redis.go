package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Key TTLs outlive the window by a margin so a slow clock never drops a
// live counter.
const (
	dailyTTL  = 48 * time.Hour
	weeklyTTL = 8 * 24 * time.Hour
)

// RedisCounter stores usage counters in Redis, one key per identity and
// window. Expired windows reset themselves via key expiry; lifetime
// counters never expire.
type RedisCounter struct {
	client *redis.Client
	limit  int
	mode   Mode

	// now is overridable in tests.
	now func() time.Time
}

// NewRedisCounter returns a counter over the given client.
func NewRedisCounter(client *redis.Client, limit int, mode Mode) *RedisCounter {
	return &RedisCounter{client: client, limit: limit, mode: mode, now: time.Now}
}

func (c *RedisCounter) Check(ctx context.Context, identity string) (Status, error) {
	key, windowEnd := windowKey(identity, c.mode, c.now())

	used, err := c.client.Get(ctx, key).Int()
	if err == redis.Nil {
		used = 0
	} else if err != nil {
		return Status{}, fmt.Errorf("read quota counter: %w", err)
	}

	st := Status{
		LimitReached: used >= c.limit,
		Remaining:    c.limit - used,
		Used:         used,
		Limit:        c.limit,
		Mode:         c.mode,
	}
	if st.Remaining < 0 {
		st.Remaining = 0
	}
	if !windowEnd.IsZero() {
		st.ResetsAt = &windowEnd
	}
	return st, nil
}

func (c *RedisCounter) Increment(ctx context.Context, identity string) error {
	key, _ := windowKey(identity, c.mode, c.now())

	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, key)
	switch c.mode {
	case ModeDaily:
		pipe.Expire(ctx, key, dailyTTL)
	case ModeWeekly:
		pipe.Expire(ctx, key, weeklyTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("increment quota counter: %w", err)
	}
	return nil
}

var _ Counter = (*RedisCounter)(nil)
