package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	seatKeyPrefix   = "rides:seats:"
	availabilityTTL = 10 * time.Minute
)

// AvailabilityCache keeps a best-effort snapshot of per-ride seat
// availability for read paths. The database stays authoritative; a miss or
// stale entry only costs a query, never a correctness violation.
type AvailabilityCache interface {
	SetAvailability(ctx context.Context, rideID string, seats int) error
	GetAvailability(ctx context.Context, rideID string) (int, bool, error)
	Invalidate(ctx context.Context, rideID string) error
}

type availabilityCache struct {
	redis *redis.Client
}

func NewAvailabilityCache(redisClient *redis.Client) AvailabilityCache {
	return &availabilityCache{redis: redisClient}
}

func (c *availabilityCache) SetAvailability(ctx context.Context, rideID string, seats int) error {
	return c.redis.Set(ctx, seatKeyPrefix+rideID, seats, availabilityTTL).Err()
}

func (c *availabilityCache) GetAvailability(ctx context.Context, rideID string) (int, bool, error) {
	val, err := c.redis.Get(ctx, seatKeyPrefix+rideID).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	seats, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, err
	}
	return seats, true, nil
}

func (c *availabilityCache) Invalidate(ctx context.Context, rideID string) error {
	return c.redis.Del(ctx, seatKeyPrefix+rideID).Err()
}
