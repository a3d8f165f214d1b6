package weather

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/skyhawk-aero/wxbrief/internal/metrics"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// cacheKey identifies one cached product. Session-keyed kinds carry the
// session so a new session invalidates them wholesale.
type cacheKey struct {
	kind    Kind
	station string
	session string
}

// flight is one in-progress fetch shared by all concurrent callers of the
// same key. The leader closes done after installing the result.
type flight struct {
	done  chan struct{}
	entry Entry
	err   error
}

// Cache is a per-(kind, station) raw product cache with single-flight
// fetches. Entries are replaced atomically; a failed fetch leaves the prior
// entry in place.
type Cache struct {
	fetcher Fetcher
	clock   clockwork.Clock
	logger  *logger.Logger

	mu       sync.Mutex
	entries  map[cacheKey]Entry
	inflight map[cacheKey]*flight
	session  string
}

// NewCache creates a cache over the given fetcher
func NewCache(fetcher Fetcher, clock clockwork.Clock, log *logger.Logger) *Cache {
	return &Cache{
		fetcher:  fetcher,
		clock:    clock,
		logger:   log.Named("weather-cache"),
		entries:  make(map[cacheKey]Entry),
		inflight: make(map[cacheKey]*flight),
	}
}

// SetSession installs the session key. Session-keyed kinds fetched under an
// older session become misses.
func (c *Cache) SetSession(session string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = session
}

func (c *Cache) keyFor(kind Kind, station string) cacheKey {
	key := cacheKey{kind: kind, station: station}
	if _, hasTTL := kind.TTL(); !hasTTL {
		key.session = c.session
	}
	return key
}

// fresh reports whether an entry still satisfies its kind's freshness rule.
// Session-keyed entries are fresh for as long as their key exists.
func (c *Cache) fresh(kind Kind, e Entry) bool {
	ttl, hasTTL := kind.TTL()
	if !hasTTL {
		return true
	}
	return c.clock.Since(e.FetchedAt) < ttl
}

// Get returns the cached entry for a (kind, station) pair, fetching on a
// miss or expiry. Concurrent misses for the same key share one fetch; the
// shared fetch is not canceled when an individual caller's context is.
func (c *Cache) Get(ctx context.Context, kind Kind, station string) (Entry, error) {
	key := c.keyFor(kind, station)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.fresh(kind, e) {
		c.mu.Unlock()
		metrics.RecordCacheLookup(string(kind), "hit")
		return e, nil
	}

	if f, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		metrics.RecordCacheLookup(string(kind), "coalesced")
		return c.wait(ctx, f)
	}

	f := &flight{done: make(chan struct{})}
	c.inflight[key] = f
	c.mu.Unlock()
	metrics.RecordCacheLookup(string(kind), "miss")

	go c.lead(f, key, kind, station)
	return c.wait(ctx, f)
}

// lead performs the shared fetch for a key and publishes the result. It runs
// detached from any caller's context so a canceled follower cannot abort the
// fetch for the rest.
func (c *Cache) lead(f *flight, key cacheKey, kind Kind, station string) {
	start := c.clock.Now()
	value, err := c.fetcher.Fetch(context.Background(), kind, station)
	metrics.ObserveFetchDuration(string(kind), c.clock.Since(start).Seconds())

	c.mu.Lock()
	if err != nil {
		f.err = err
		c.logger.Warn("Fetch failed, keeping prior entry",
			logger.String("kind", string(kind)),
			logger.String("station", station),
			logger.Error(err))
	} else {
		f.entry = Entry{Value: value, FetchedAt: c.clock.Now()}
		c.entries[key] = f.entry
		c.logger.Debug("Cache entry updated",
			logger.String("kind", string(kind)),
			logger.String("station", station),
			logger.Time("fetched_at", f.entry.FetchedAt))
	}
	delete(c.inflight, key)
	c.mu.Unlock()

	close(f.done)
}

// wait blocks until the shared fetch completes or the caller's context ends
func (c *Cache) wait(ctx context.Context, f *flight) (Entry, error) {
	select {
	case <-f.done:
		return f.entry, f.err
	case <-ctx.Done():
		return Entry{}, ctx.Err()
	}
}

// Peek returns the cached entry regardless of freshness, for last-known
// display when a refresh fails.
func (c *Cache) Peek(kind Kind, station string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[c.keyFor(kind, station)]
	return e, ok
}

// Invalidate drops the entry for a (kind, station) pair
func (c *Cache) Invalidate(kind Kind, station string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, c.keyFor(kind, station))
}

// Stats reports cache occupancy for diagnostics
func (c *Cache) Stats() map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return map[string]interface{}{
		"entries":  len(c.entries),
		"inflight": len(c.inflight),
		"session":  c.session,
	}
}
