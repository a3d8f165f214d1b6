package weather

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/skyhawk-aero/wxbrief/internal/metrics"
	"github.com/skyhawk-aero/wxbrief/internal/snapshot"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// FlightState tells the orchestrator whether the consumer is in an active
// flight leg, in which case lookups prefer the leg's pre-departure snapshot.
type FlightState interface {
	InFlight() bool
	ActiveLegSnapshot() (*snapshot.Leg, bool)
}

// Broadcaster pushes refreshed station bundles to connected clients
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// ServiceConfig holds the orchestrator settings
type ServiceConfig struct {
	HomeStation            string `toml:"home_station"`
	RefreshIntervalMinutes int    `toml:"refresh_interval_minutes"`
}

// Validate checks the service configuration
func (c ServiceConfig) Validate() error {
	if c.HomeStation == "" {
		return fmt.Errorf("home_station cannot be empty")
	}
	if c.RefreshIntervalMinutes <= 0 {
		return fmt.Errorf("refresh_interval_minutes must be greater than 0")
	}
	return nil
}

// Service orchestrates fetching, caching and snapshot fallback, and keeps
// the home station's bundle fresh in the background.
type Service struct {
	config      ServiceConfig
	cache       *Cache
	flightState FlightState
	broadcaster Broadcaster
	bundler     *Bundler
	clock       clockwork.Clock
	logger      *logger.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.RWMutex

	initialDataReady chan struct{}
	initialDataOnce  sync.Once
}

// NewService creates the weather orchestrator
func NewService(config ServiceConfig, fetcher Fetcher, flightState FlightState, bundler *Bundler, clock clockwork.Clock, log *logger.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		config:           config,
		cache:            NewCache(fetcher, clock, log),
		flightState:      flightState,
		bundler:          bundler,
		clock:            clock,
		logger:           log.Named("weather-service"),
		ctx:              ctx,
		cancel:           cancel,
		initialDataReady: make(chan struct{}),
	}
	if bundler != nil {
		bundler.lookup = s.Lookup
	}
	return s
}

// SetBroadcaster installs the client push target. Must be called before
// Start.
func (s *Service) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// Start begins the background refresh of the home station
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	session := fmt.Sprintf("session-%d", s.clock.Now().Unix())
	s.cache.SetSession(session)

	s.logger.Info("Starting weather service",
		logger.String("station", s.config.HomeStation),
		logger.String("session", session),
		logger.Int("refresh_interval_minutes", s.config.RefreshIntervalMinutes))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.performInitialFetch()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.backgroundRefresh()
	}()

	s.started = true
	return nil
}

// Stop shuts down the background refresh
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info("Stopping weather service")
	s.cancel()
	s.wg.Wait()
	s.started = false
	s.logger.Info("Weather service stopped")
	return nil
}

// IsStarted reports whether the service is running
func (s *Service) IsStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

// InitialDataReady is closed once the first home-station refresh completes
func (s *Service) InitialDataReady() <-chan struct{} {
	return s.initialDataReady
}

// Lookup returns the raw product for a (kind, station) pair. When the
// consumer is in an active leg, the leg snapshot answers first and the live
// path is tried only for fields the snapshot lacks.
func (s *Service) Lookup(ctx context.Context, kind Kind, station string) (Entry, error) {
	station = strings.ToUpper(strings.TrimSpace(station))

	if s.flightState != nil && s.flightState.InFlight() {
		if leg, ok := s.flightState.ActiveLegSnapshot(); ok {
			if v, found := leg.Value(string(kind), station); found {
				metrics.RecordCacheLookup(string(kind), "snapshot")
				s.logger.Debug("Serving from leg snapshot",
					logger.String("kind", string(kind)),
					logger.String("station", station),
					logger.Int64("leg_id", leg.ID))
				return Entry{Value: v.Raw, FetchedAt: v.FetchedAt}, nil
			}
		}
	}

	return s.cache.Get(ctx, kind, station)
}

// LastKnown returns the cached value for a pair regardless of freshness
func (s *Service) LastKnown(kind Kind, station string) (Entry, bool) {
	return s.cache.Peek(kind, station)
}

// RefreshNow triggers an immediate home-station refresh
func (s *Service) RefreshNow() {
	s.logger.Info("Manual weather refresh triggered")
	go s.refreshHomeStation()
}

// CacheStats reports cache occupancy for the health endpoint
func (s *Service) CacheStats() map[string]interface{} {
	return s.cache.Stats()
}

// performInitialFetch warms the home station on startup
func (s *Service) performInitialFetch() {
	s.logger.Info("Performing initial weather data fetch",
		logger.String("station", s.config.HomeStation))

	s.refreshHomeStation()

	s.initialDataOnce.Do(func() {
		close(s.initialDataReady)
		s.logger.Info("Initial weather data fetch completed")
	})
}

// backgroundRefresh re-fetches the home station on a fixed interval
func (s *Service) backgroundRefresh() {
	refreshInterval := time.Duration(s.config.RefreshIntervalMinutes) * time.Minute
	ticker := s.clock.NewTicker(refreshInterval)
	defer ticker.Stop()

	s.logger.Info("Background weather refresh started",
		logger.String("interval", refreshInterval.String()))

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Background weather refresh stopped")
			return
		case <-ticker.Chan():
			s.logger.Debug("Periodic weather refresh triggered")
			s.refreshHomeStation()
		}
	}
}

// refreshHomeStation rebuilds the home station bundle and broadcasts it
func (s *Service) refreshHomeStation() {
	start := s.clock.Now()
	station := s.config.HomeStation

	ctx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
	defer cancel()

	bundle := s.bundler.Build(ctx, station)

	duration := s.clock.Since(start)
	s.logger.Info("Weather data refresh completed",
		logger.String("station", station),
		logger.String("duration", duration.String()),
		logger.Int("errors", len(bundle.Errors)))

	if s.broadcaster != nil {
		s.broadcaster.Broadcast("wx_update", bundle)
	}
}
