package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skyhawk-aero/wxbrief/internal/airports"
	"github.com/skyhawk-aero/wxbrief/internal/storage/sqlite"
	"github.com/skyhawk-aero/wxbrief/internal/weather"
	"github.com/skyhawk-aero/wxbrief/internal/websocket"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// Router wires the API handlers into a chi mux
type Router struct {
	handler   *Handler
	staticDir string
	logger    *logger.Logger
}

// NewRouter creates the API router
func NewRouter(weatherService *weather.Service, bundler *weather.Bundler, airportIndex *airports.Index, snapshotStorage *sqlite.SnapshotStorage, wsServer *websocket.Server, staticDir string, log *logger.Logger) *Router {
	return &Router{
		handler:   NewHandler(weatherService, bundler, airportIndex, snapshotStorage, wsServer, log),
		staticDir: staticDir,
		logger:    log.Named("api-router"),
	}
}

// Routes builds the route tree
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(90 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/wx/{station}", rt.handler.GetStationBundle)
		r.Get("/wx/{station}/metar", rt.handler.GetMETAR)
		r.Get("/wx/{station}/taf", rt.handler.GetTAF)
		r.Get("/wx/{station}/windsaloft", rt.handler.GetWindsAloft)
		r.Get("/wx/{station}/datis", rt.handler.GetDATIS)
		r.Get("/wx/{station}/mos", rt.handler.GetMOS)
		r.Get("/wx/{station}/runway-winds", rt.handler.GetRunwayWinds)

		r.Post("/snapshot", rt.handler.CreateSnapshot)
		r.Get("/snapshot", rt.handler.GetSnapshot)
		r.Delete("/snapshot", rt.handler.EndSnapshot)

		r.Get("/health", rt.handler.GetHealth)
	})

	r.Get("/ws", rt.handler.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler())

	if rt.staticDir != "" {
		staticHandler := NewStaticFileHandler(rt.staticDir, rt.logger)
		r.NotFound(staticHandler.ServeHTTP)
	}

	return r
}
