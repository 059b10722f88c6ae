//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Domenick1991/flightreserve/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *RedisCache {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	c := NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: host + ":" + port.Port()}), time.Minute, time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRedisCache_RescheduleCandidates(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	_, ok, err := c.GetRescheduleCandidates(ctx, 1, "2026-03-06")
	require.NoError(t, err)
	assert.False(t, ok)

	in := []domain.FlightInstanceSummary{{ID: 11, FlightNumber: "FR1", Status: "On-Time"}}
	require.NoError(t, c.SetRescheduleCandidates(ctx, 1, "2026-03-06", in))

	out, ok, err := c.GetRescheduleCandidates(ctx, 1, "2026-03-06")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, in, out)
}

func TestRedisCache_Instance(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	miss, err := c.GetInstance(ctx, 5)
	require.NoError(t, err)
	assert.Nil(t, miss)

	departure := time.Date(2026, 3, 6, 4, 0, 0, 0, time.UTC)
	require.NoError(t, c.SetInstance(ctx, &domain.FlightInstance{ID: 5, RouteID: 2, ScheduledDeparture: departure}))

	hit, err := c.GetInstance(ctx, 5)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, int64(2), hit.RouteID)
	assert.True(t, departure.Equal(hit.ScheduledDeparture))
}

func TestRedisCache_SweepLock(t *testing.T) {
	c := startRedis(t)
	ctx := context.Background()

	ok, err := c.AcquireSweepLock(ctx, "worker-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.AcquireSweepLock(ctx, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseSweepLock(ctx, "worker-b"))
	ok, err = c.AcquireSweepLock(ctx, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "release by a non-owner must keep the lease")

	require.NoError(t, c.ReleaseSweepLock(ctx, "worker-a"))
	ok, err = c.AcquireSweepLock(ctx, "worker-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
