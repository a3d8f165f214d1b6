// Package api serves the HTTP interface: station bundles, individual
// products, runway wind guidance and leg snapshot management.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/skyhawk-aero/wxbrief/internal/airports"
	"github.com/skyhawk-aero/wxbrief/internal/metar"
	"github.com/skyhawk-aero/wxbrief/internal/runway"
	"github.com/skyhawk-aero/wxbrief/internal/snapshot"
	"github.com/skyhawk-aero/wxbrief/internal/storage/sqlite"
	"github.com/skyhawk-aero/wxbrief/internal/taf"
	"github.com/skyhawk-aero/wxbrief/internal/weather"
	"github.com/skyhawk-aero/wxbrief/internal/websocket"
	"github.com/skyhawk-aero/wxbrief/internal/windsaloft"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// Handler contains the API handlers
type Handler struct {
	weatherService  *weather.Service
	bundler         *weather.Bundler
	airports        *airports.Index
	snapshotStorage *sqlite.SnapshotStorage
	wsServer        *websocket.Server
	logger          *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(weatherService *weather.Service, bundler *weather.Bundler, airportIndex *airports.Index, snapshotStorage *sqlite.SnapshotStorage, wsServer *websocket.Server, log *logger.Logger) *Handler {
	return &Handler{
		weatherService:  weatherService,
		bundler:         bundler,
		airports:        airportIndex,
		snapshotStorage: snapshotStorage,
		wsServer:        wsServer,
		logger:          log.Named("api-handler"),
	}
}

// GetStationBundle returns everything known about a station
func (h *Handler) GetStationBundle(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	start := time.Now()

	bundle := h.bundler.Build(r.Context(), station)
	applyUnitPreferences(bundle, r)

	h.logger.Debug("Station bundle built",
		logger.String("station", station),
		logger.Duration("duration", time.Since(start)),
		logger.Int("errors", len(bundle.Errors)))

	WriteJSON(w, http.StatusOK, bundle)
}

// GetMETAR returns the raw and decoded observation for a station
func (h *Handler) GetMETAR(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	entry, err := h.weatherService.Lookup(r.Context(), weather.KindMETAR, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}

	obs := metar.DecodeObservation(entry.Value)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station":    station,
		"raw":        entry.Value,
		"fetched_at": entry.FetchedAt,
		"decoded":    obs,
	})
}

// GetTAF returns the raw and decoded forecast for a station
func (h *Handler) GetTAF(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	entry, err := h.weatherService.Lookup(r.Context(), weather.KindTAF, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}

	forecast := taf.Decode(entry.Value)
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station":    station,
		"raw":        entry.Value,
		"fetched_at": entry.FetchedAt,
		"decoded":    forecast,
	})
}

// GetWindsAloft returns the decoded winds-aloft levels for a station,
// falling back to the nearest FB site when the station has no line.
func (h *Handler) GetWindsAloft(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	airport, ok := h.airports.Lookup(station)
	if !ok {
		h.writeError(w, station, weather.ErrInvalidStation)
		return
	}

	entry, err := h.weatherService.Lookup(r.Context(), weather.KindWindsAloft, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}

	sw, ok := windsaloft.DecodeReport(entry.Value, windsaloft.SiteForICAO(station), airport.Latitude, airport.Longitude)
	if !ok {
		h.writeError(w, station, weather.ErrNoData)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station":    station,
		"fetched_at": entry.FetchedAt,
		"winds":      sw,
	})
}

// GetDATIS returns the digital ATIS broadcast text for a station
func (h *Handler) GetDATIS(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	entry, err := h.weatherService.Lookup(r.Context(), weather.KindDATIS, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station":    station,
		"datis":      entry.Value,
		"fetched_at": entry.FetchedAt,
	})
}

// GetMOS returns the raw MOS guidance text for a station
func (h *Handler) GetMOS(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	entry, err := h.weatherService.Lookup(r.Context(), weather.KindMOS, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"station":    station,
		"mos":        entry.Value,
		"fetched_at": entry.FetchedAt,
	})
}

// GetRunwayWinds returns the per-runway wind breakdown for a station's
// current observation.
func (h *Handler) GetRunwayWinds(w http.ResponseWriter, r *http.Request) {
	station := stationParam(r)
	airport, ok := h.airports.Lookup(station)
	if !ok {
		h.writeError(w, station, weather.ErrInvalidStation)
		return
	}

	metarEntry, err := h.weatherService.Lookup(r.Context(), weather.KindMETAR, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}
	obs := metar.DecodeObservation(metarEntry.Value)
	if obs.Wind == nil {
		h.writeError(w, station, weather.ErrNoData)
		return
	}

	runwaysEntry, err := h.weatherService.Lookup(r.Context(), weather.KindRunways, station)
	if err != nil {
		h.writeError(w, station, err)
		return
	}
	runways, err := runway.ParseCSV(runwaysEntry.Value, station, airport.Latitude, airport.Longitude)
	if err != nil {
		h.writeError(w, station, weather.ErrNoData)
		return
	}

	response := map[string]interface{}{
		"station": station,
		"wind":    obs.Wind,
	}
	if obs.Wind.Variable {
		response["analyses"] = []runway.WindAnalysis{}
		response["note"] = "wind is variable, runway components not computed"
	} else {
		response["analyses"] = runway.Analyze(runways, obs.Wind.DirectionDeg, obs.Wind.SpeedKt, obs.Wind.GustKt)
	}
	WriteJSON(w, http.StatusOK, response)
}

// snapshotRequest is the POST /snapshot body
type snapshotRequest struct {
	DepartureICAO string   `json:"departure_icao"`
	ArrivalICAO   string   `json:"arrival_icao"`
	Stations      []string `json:"stations"`
}

// CreateSnapshot captures the current raw products for the leg's stations
// and persists them as the active leg snapshot.
func (h *Handler) CreateSnapshot(w http.ResponseWriter, r *http.Request) {
	var req snapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.DepartureICAO == "" || req.ArrivalICAO == "" {
		http.Error(w, "departure_icao and arrival_icao are required", http.StatusBadRequest)
		return
	}

	stations := req.Stations
	if len(stations) == 0 {
		stations = []string{req.DepartureICAO, req.ArrivalICAO}
	}

	leg := &snapshot.Leg{
		DepartureICAO: strings.ToUpper(req.DepartureICAO),
		ArrivalICAO:   strings.ToUpper(req.ArrivalICAO),
		StartedAt:     time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var failures []string
	for _, station := range stations {
		for _, kind := range weather.Kinds {
			entry, err := h.weatherService.Lookup(ctx, kind, station)
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s/%s: %s", kind, station, err))
				continue
			}
			leg.Values = append(leg.Values, snapshot.Value{
				Kind:      string(kind),
				Station:   strings.ToUpper(station),
				Raw:       entry.Value,
				FetchedAt: entry.FetchedAt,
			})
		}
	}

	legID, err := h.snapshotStorage.SaveLeg(leg)
	if err != nil {
		h.logger.Error("Failed to save leg snapshot", logger.Error(err))
		http.Error(w, "failed to save snapshot", http.StatusInternalServerError)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"leg_id":   legID,
		"captured": len(leg.Values),
		"failures": failures,
	})
}

// GetSnapshot returns the active leg snapshot, if any
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	leg, err := h.snapshotStorage.ActiveLeg()
	if err != nil {
		http.Error(w, "failed to load snapshot", http.StatusInternalServerError)
		return
	}
	if leg == nil {
		http.Error(w, "no active leg", http.StatusNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, leg)
}

// EndSnapshot closes the active leg so lookups return to the live path
func (h *Handler) EndSnapshot(w http.ResponseWriter, r *http.Request) {
	leg, err := h.snapshotStorage.ActiveLeg()
	if err != nil {
		http.Error(w, "failed to load snapshot", http.StatusInternalServerError)
		return
	}
	if leg == nil {
		http.Error(w, "no active leg", http.StatusNotFound)
		return
	}
	if err := h.snapshotStorage.EndLeg(leg.ID); err != nil {
		http.Error(w, "failed to end leg", http.StatusInternalServerError)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"leg_id": leg.ID, "ended": true})
}

// GetHealth returns the health status of the API
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":     "ok",
		"started":    h.weatherService.IsStarted(),
		"cache":      h.weatherService.CacheStats(),
		"ws_clients": h.wsServer.ClientCount(),
		"in_flight":  h.snapshotStorage.InFlight(),
	}
	WriteJSON(w, http.StatusOK, response)
}

// HandleWebSocket upgrades the connection and registers the client with the
// broadcast hub.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	h.wsServer.HandleConnection(w, r)
}

// writeError maps the orchestrator's error taxonomy to HTTP statuses
func (h *Handler) writeError(w http.ResponseWriter, station string, err error) {
	var status int
	switch {
	case errors.Is(err, weather.ErrInvalidStation):
		status = http.StatusBadRequest
	case errors.Is(err, weather.ErrNoData):
		status = http.StatusNotFound
	case errors.Is(err, weather.ErrSourceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}

	h.logger.Debug("Request failed",
		logger.String("station", station),
		logger.Int("status", status),
		logger.Error(err))

	WriteJSON(w, status, map[string]interface{}{
		"station": station,
		"error":   err.Error(),
	})
}

func stationParam(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "station")))
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
