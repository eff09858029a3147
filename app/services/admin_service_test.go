package services

import (
	"context"
	"testing"
	"time"

	"github.com/address-simplifier/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixedSessions oracle.PoolStats

func (f fixedSessions) Stats() oracle.PoolStats { return oracle.PoolStats(f) }

func TestAdminService_GetSystemStats(t *testing.T) {
	cache := NewMemoryCacheService(10, time.Minute)
	require.NoError(t, cache.Set(context.Background(), "a", entry("a", "b")))
	jobs := NewBatchService(searcherFunc(echoSearcher), 10, time.Hour, zap.NewNop())
	defer jobs.Close(context.Background())
	_, err := jobs.Submit([]string{"a"})
	require.NoError(t, err)

	svc := NewAdminService(cache, fixedSessions{Size: 1, Idle: 1, Created: 1}, jobs, zap.NewNop())
	stats, err := svc.GetSystemStats(context.Background())
	require.NoError(t, err)

	require.NotNil(t, stats.Cache)
	assert.Equal(t, int64(1), stats.Cache.TotalItems)
	require.NotNil(t, stats.Sessions)
	assert.Equal(t, 1, stats.Sessions.Size)
	assert.Equal(t, 1, stats.Jobs)
	assert.Contains(t, stats.MemoryUsage, "goroutines")
}

func TestAdminService_ClearCache(t *testing.T) {
	cache := NewMemoryCacheService(10, time.Minute)
	require.NoError(t, cache.Set(context.Background(), "a", entry("a", "b")))

	svc := NewAdminService(cache, nil, nil, zap.NewNop())
	require.NoError(t, svc.ClearCache(context.Background()))

	_, found, _ := cache.Get(context.Background(), "a")
	assert.False(t, found)

	disabled := NewAdminService(nil, nil, nil, zap.NewNop())
	assert.ErrorIs(t, disabled.ClearCache(context.Background()), ErrCacheDisabled)
	stats, err := disabled.GetSystemStats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.Cache)
	assert.Nil(t, stats.Sessions)
}
