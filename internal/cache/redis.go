package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightreserve/config"
	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lease only while it is still held by owner.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type RedisCache struct {
	client      *redis.Client
	searchTTL   time.Duration
	instanceTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, searchTTL, instanceTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		searchTTL, instanceTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, searchTTL, instanceTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, searchTTL: searchTTL, instanceTTL: instanceTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetRescheduleCandidates reports ok=false on a miss.
func (c *RedisCache) GetRescheduleCandidates(ctx context.Context, routeID int64, date string) ([]domain.FlightInstanceSummary, bool, error) {
	var candidates []domain.FlightInstanceSummary
	ok, err := c.getJSON(ctx, rescheduleSearchKey(routeID, date), &candidates)
	if err != nil || !ok {
		return nil, false, err
	}
	return candidates, true, nil
}

func (c *RedisCache) SetRescheduleCandidates(ctx context.Context, routeID int64, date string, candidates []domain.FlightInstanceSummary) error {
	if c.searchTTL <= 0 {
		return nil
	}
	return c.setJSON(ctx, rescheduleSearchKey(routeID, date), candidates, c.searchTTL)
}

// GetInstance returns nil, nil on a miss.
func (c *RedisCache) GetInstance(ctx context.Context, id int64) (*domain.FlightInstance, error) {
	var instance domain.FlightInstance
	ok, err := c.getJSON(ctx, instanceKey(id), &instance)
	if err != nil || !ok {
		return nil, err
	}
	return &instance, nil
}

func (c *RedisCache) SetInstance(ctx context.Context, instance *domain.FlightInstance) error {
	if c.instanceTTL <= 0 {
		return nil
	}
	return c.setJSON(ctx, instanceKey(instance.ID), instance, c.instanceTTL)
}

// AcquireSweepLock takes the sweeper lease for owner. It is a scheduling aid
// only; sweeps stay correct without it.
func (c *RedisCache) AcquireSweepLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, sweepLockKey(), owner, ttl).Result()
}

func (c *RedisCache) ReleaseSweepLock(ctx context.Context, owner string) error {
	return releaseScript.Run(ctx, c.client, []string{sweepLockKey()}, owner).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func rescheduleSearchKey(routeID int64, date string) string {
	return fmt.Sprintf("cache:reschedule:route:%d:date:%s", routeID, date)
}

func instanceKey(id int64) string {
	return fmt.Sprintf("cache:flight-instance:%d", id)
}

func sweepLockKey() string {
	return "lock:sweeper"
}
