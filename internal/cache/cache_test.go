package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	ri "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GeoAttend/internal/model"
	"GeoAttend/storage/redis"
)

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c := ri.NewClient(&ri.Options{Addr: mr.Addr(), MaxRetries: -1})
	redis.SetClient(c)
	t.Cleanup(func() {
		_ = c.Close()
		redis.SetClient(nil)
	})
	return mr
}

func TestCircuitBreakerTransitions(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Minute)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	cb.now = func() time.Time { return now }

	ctx := context.Background()
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }
	ok := func(context.Context) error { return nil }

	assert.ErrorIs(t, cb.Call(ctx, fail), boom)
	assert.Equal(t, StateClosed, cb.GetState())
	assert.ErrorIs(t, cb.Call(ctx, fail), boom)
	assert.Equal(t, StateOpen, cb.GetState())

	var open *ErrBreakerOpen
	assert.ErrorAs(t, cb.Call(ctx, ok), &open)

	now = now.Add(time.Minute)
	require.NoError(t, cb.Call(ctx, ok))
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Second)
	now := time.Now()
	cb.now = func() time.Time { return now }
	ctx := context.Background()

	_ = cb.Call(ctx, func(context.Context) error { return errors.New("x") })
	require.Equal(t, StateOpen, cb.GetState())

	now = now.Add(2 * time.Second)
	_ = cb.Call(ctx, func(context.Context) error { return errors.New("x") })
	assert.Equal(t, StateOpen, cb.GetState())
}

func TestCircuitBreakerIgnoresCallerCancel(t *testing.T) {
	cb := NewCircuitBreaker("test", 1, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_ = cb.Call(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.Equal(t, StateClosed, cb.GetState())
}

func TestProtectedCache(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()
	pc := NewProtectedCache("test", time.Minute)

	var got map[string]int
	hit, err := pc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, pc.Set(ctx, "k", map[string]int{"a": 1}))
	hit, err = pc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got["a"])

	require.NoError(t, pc.Set(ctx, "empty", nil))
	var none map[string]int
	hit, err = pc.Get(ctx, "empty", &none)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Nil(t, none)

	require.NoError(t, pc.Delete(ctx, "k"))
	hit, err = pc.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

type countingLoader struct {
	zones []model.GeofenceZone
	err   error
	calls atomic.Int32
}

func (l *countingLoader) ListActiveZones(context.Context) ([]model.GeofenceZone, error) {
	l.calls.Add(1)
	return l.zones, l.err
}

func TestZoneCacheHitAndInvalidate(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()
	loader := &countingLoader{zones: []model.GeofenceZone{
		{ID: "z1", Name: "HQ", Latitude: -6.2, Longitude: 106.8, RadiusMeters: 100, Active: true},
	}}
	zc := NewZoneCache(loader, time.Minute, NewCircuitBreaker("zones-test", 3, time.Minute))

	zones, err := zc.ListActiveZones(ctx)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.True(t, mr.Exists(redis.Key("zones", activeZonesKey)))

	zones, err = zc.ListActiveZones(ctx)
	require.NoError(t, err)
	assert.Equal(t, "HQ", zones[0].Name)
	assert.Equal(t, int32(1), loader.calls.Load())

	require.NoError(t, zc.Invalidate(ctx))
	_, err = zc.ListActiveZones(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestZoneCacheFallsBackWhenRedisDown(t *testing.T) {
	mr := setupRedis(t)
	mr.Close()

	loader := &countingLoader{zones: []model.GeofenceZone{{ID: "z1", Name: "HQ", RadiusMeters: 50, Active: true}}}
	zc := NewZoneCache(loader, time.Minute, NewCircuitBreaker("zones-down", 1, time.Minute))

	zones, err := zc.ListActiveZones(context.Background())
	require.NoError(t, err)
	assert.Len(t, zones, 1)
}

func TestZoneCacheLoaderError(t *testing.T) {
	setupRedis(t)
	loader := &countingLoader{err: errors.New("db down")}
	zc := NewZoneCache(loader, time.Minute, NewCircuitBreaker("zones-err", 3, time.Minute))

	_, err := zc.ListActiveZones(context.Background())
	assert.Error(t, err)
}

func TestMessageMarks(t *testing.T) {
	mr := setupRedis(t)
	ctx := context.Background()

	ok, err := TryMarkMessageProcessing(ctx, "m1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = TryMarkMessageProcessing(ctx, "m1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, MarkMessageProcessed(ctx, "m1", 0))
	val, err := mr.Get(redis.Key(messageProcessedPrefix, "m1"))
	require.NoError(t, err)
	assert.Equal(t, "completed", val)

	require.NoError(t, UnmarkMessageProcessing(ctx, "m1"))
	ok, err = TryMarkMessageProcessing(ctx, "m1", 0)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSlidingWindowAndBlock(t *testing.T) {
	setupRedis(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 1; i <= 3; i++ {
		n, err := SlidingWindow(ctx, "emp-1", time.Minute, now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}

	n, err := SlidingWindow(ctx, "emp-1", time.Minute, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	blocked, err := IsBlocked(ctx, "emp-1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, Block(ctx, "emp-1", time.Minute))
	blocked, err = IsBlocked(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, blocked)
}
