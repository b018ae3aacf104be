package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("staff-day lock not acquired")
)

// Locker guards the booking critical section for one staff member on one
// calendar date. Conflict checks and the following insert/update must run
// inside the same lock so two concurrent bookings cannot both pass
// validation.
type Locker interface {
	WithStaffDayLock(ctx context.Context, staffID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error
}

type redisStaffDayLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStaffDayLocker creates a locker that uses one Redis key per
// staff member and date.
func NewRedisStaffDayLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisStaffDayLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisStaffDayLocker) WithStaffDayLock(ctx context.Context, staffID uuid.UUID, date time.Time, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:staffday:%s:%s", staffID.String(), date.Format("2006-01-02"))
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire staff-day lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisStaffDayLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release staff-day lock: %w", err)
	}
	return nil
}
