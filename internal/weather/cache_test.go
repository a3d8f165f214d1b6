package weather

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// fetchFunc adapts a function to the Fetcher interface
type fetchFunc func(ctx context.Context, kind Kind, station string) (string, error)

func (f fetchFunc) Fetch(ctx context.Context, kind Kind, station string) (string, error) {
	return f(ctx, kind, station)
}

// countingFetcher returns canned values and counts calls
type countingFetcher struct {
	calls atomic.Int32

	mu     sync.Mutex
	values map[Kind]string
	errs   map[Kind]error
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{
		values: make(map[Kind]string),
		errs:   make(map[Kind]error),
	}
}

func (f *countingFetcher) set(kind Kind, value string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[kind] = value
	f.errs[kind] = err
}

func (f *countingFetcher) Fetch(_ context.Context, kind Kind, _ string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[kind]; err != nil {
		return "", err
	}
	return f.values[kind], nil
}

func TestCacheGetAndHit(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindMETAR, "KBOS 010651Z 27015KT 10SM SKC 21/17 A2992", nil)
	cache := NewCache(fetcher, clockwork.NewFakeClock(), logger.NewNop())

	e, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Contains(t, e.Value, "KBOS")
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// Second call inside the freshness window never touches the fetcher
	_, err = cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestCacheTTLExpiry(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindMETAR, "v1", nil)
	clock := clockwork.NewFakeClock()
	cache := NewCache(fetcher, clock, logger.NewNop())

	_, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)

	clock.Advance(29 * time.Minute)
	_, err = cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load(), "still fresh at 29 minutes")

	fetcher.set(KindMETAR, "v2", nil)
	clock.Advance(2 * time.Minute)
	e, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load(), "expired at 31 minutes")
	assert.Equal(t, "v2", e.Value)
}

func TestCacheSessionKeyedKinds(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindDATIS, "atis text", nil)
	clock := clockwork.NewFakeClock()
	cache := NewCache(fetcher, clock, logger.NewNop())
	cache.SetSession("session-1")

	_, err := cache.Get(context.Background(), KindDATIS, "KBOS")
	require.NoError(t, err)

	// Session-keyed kinds never expire on the clock
	clock.Advance(48 * time.Hour)
	_, err = cache.Get(context.Background(), KindDATIS, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	// A new session turns the old entry into a miss
	cache.SetSession("session-2")
	_, err = cache.Get(context.Background(), KindDATIS, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCacheSingleFlight(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := fetchFunc(func(ctx context.Context, kind Kind, station string) (string, error) {
		calls.Add(1)
		close(entered)
		<-release
		return "shared", nil
	})
	cache := NewCache(fetcher, clockwork.NewFakeClock(), logger.NewNop())

	results := make(chan Entry, 2)
	go func() {
		e, err := cache.Get(context.Background(), KindMETAR, "KBOS")
		assert.NoError(t, err)
		results <- e
	}()
	<-entered

	go func() {
		e, err := cache.Get(context.Background(), KindMETAR, "KBOS")
		assert.NoError(t, err)
		results <- e
	}()

	close(release)
	e1 := <-results
	e2 := <-results

	assert.Equal(t, int32(1), calls.Load(), "concurrent misses share one fetch")
	assert.Equal(t, e1, e2)
}

func TestCacheFollowerCancellation(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := fetchFunc(func(ctx context.Context, kind Kind, station string) (string, error) {
		calls.Add(1)
		close(entered)
		<-release
		return "late", nil
	})
	cache := NewCache(fetcher, clockwork.NewFakeClock(), logger.NewNop())

	leaderDone := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), KindMETAR, "KBOS")
		leaderDone <- err
	}()
	<-entered

	// A canceled follower gets its context error without touching the fetch
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := cache.Get(ctx, KindMETAR, "KBOS")
	assert.ErrorIs(t, err, context.Canceled)

	// The shared fetch still completes for the leader
	close(release)
	require.NoError(t, <-leaderDone)
	assert.Equal(t, int32(1), calls.Load())

	e, ok := cache.Peek(KindMETAR, "KBOS")
	require.True(t, ok)
	assert.Equal(t, "late", e.Value)
}

func TestCacheFailedFetchKeepsPriorEntry(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindMETAR, "v1", nil)
	clock := clockwork.NewFakeClock()
	cache := NewCache(fetcher, clock, logger.NewNop())

	_, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)

	fetcher.set(KindMETAR, "", errors.New("upstream down"))
	clock.Advance(31 * time.Minute)

	_, err = cache.Get(context.Background(), KindMETAR, "KBOS")
	require.Error(t, err)

	// Last-known value survives the failed refresh
	e, ok := cache.Peek(KindMETAR, "KBOS")
	require.True(t, ok)
	assert.Equal(t, "v1", e.Value)
}

func TestCacheInvalidate(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindMETAR, "v1", nil)
	cache := NewCache(fetcher, clockwork.NewFakeClock(), logger.NewNop())

	_, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)

	cache.Invalidate(KindMETAR, "KBOS")
	_, ok := cache.Peek(KindMETAR, "KBOS")
	assert.False(t, ok)

	_, err = cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestCacheStationsAreIndependent(t *testing.T) {
	t.Parallel()
	fetcher := newCountingFetcher()
	fetcher.set(KindMETAR, "obs", nil)
	cache := NewCache(fetcher, clockwork.NewFakeClock(), logger.NewNop())

	_, err := cache.Get(context.Background(), KindMETAR, "KBOS")
	require.NoError(t, err)
	_, err = cache.Get(context.Background(), KindMETAR, "KJFK")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestKindTTL(t *testing.T) {
	t.Parallel()
	ttl, ok := KindMETAR.TTL()
	assert.True(t, ok)
	assert.Equal(t, 30*time.Minute, ttl)

	ttl, ok = KindRunways.TTL()
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, ttl)

	for _, k := range []Kind{KindTAF, KindWindsAloft, KindDATIS, KindMOS} {
		_, ok := k.TTL()
		assert.False(t, ok, "%s is session-keyed", k)
	}
}

func TestKindValid(t *testing.T) {
	t.Parallel()
	for _, k := range Kinds {
		assert.True(t, k.Valid(), string(k))
	}
	assert.False(t, Kind("bogus").Valid())
}
