package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/skyhawk-aero/wxbrief/internal/airports"
	"github.com/skyhawk-aero/wxbrief/internal/metar"
	"github.com/skyhawk-aero/wxbrief/internal/runway"
	"github.com/skyhawk-aero/wxbrief/internal/taf"
	"github.com/skyhawk-aero/wxbrief/internal/windsaloft"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

// Derived carries values computed from the observation and airport
// reference data. Pointer fields are nil when the inputs are missing.
type Derived struct {
	DensityAltitudeFt   *int     `json:"density_altitude_ft,omitempty"`
	RelativeHumidityPct *float64 `json:"relative_humidity_pct,omitempty"`
	IcingRisk           *bool    `json:"icing_risk,omitempty"`
}

// Bundle is everything the system knows about one station: raw products,
// their decoded forms, and the derived values.
type Bundle struct {
	Station   string            `json:"station"`
	Airport   *airports.Airport `json:"airport,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`

	METARRaw string             `json:"metar_raw,omitempty"`
	METAR    *metar.Observation `json:"metar,omitempty"`

	TAFRaw string        `json:"taf_raw,omitempty"`
	TAF    *taf.Forecast `json:"taf,omitempty"`

	WindsAloft *windsaloft.StationWinds `json:"winds_aloft,omitempty"`
	DATIS      string                   `json:"datis,omitempty"`
	MOS        string                   `json:"mos,omitempty"`

	RunwayWinds []runway.WindAnalysis `json:"runway_winds,omitempty"`
	Derived     *Derived              `json:"derived,omitempty"`

	// Display holds unit-preference formatted strings, filled at response
	// time. Decoded values above are always metric/aviation-native.
	Display map[string]string `json:"display,omitempty"`

	Errors []string `json:"errors,omitempty"`
}

// Bundler assembles a station bundle through the orchestrator's lookup path
type Bundler struct {
	lookup   func(ctx context.Context, kind Kind, station string) (Entry, error)
	airports *airports.Index
	logger   *logger.Logger
}

// NewBundler creates a bundler backed by the airport reference index
func NewBundler(idx *airports.Index, log *logger.Logger) *Bundler {
	return &Bundler{
		airports: idx,
		logger:   log.Named("weather-bundle"),
	}
}

// Build fetches and decodes every product for a station. Per-product
// failures degrade to an entry in Errors; decode itself never fails.
func (b *Bundler) Build(ctx context.Context, station string) *Bundle {
	bundle := &Bundle{
		Station:   station,
		FetchedAt: time.Now().UTC(),
	}

	var airport *airports.Airport
	if b.airports != nil {
		if a, ok := b.airports.Lookup(station); ok {
			airport = &a
			bundle.Airport = airport
		}
	}

	if entry, err := b.lookup(ctx, KindMETAR, station); err != nil {
		bundle.Errors = append(bundle.Errors, fmt.Sprintf("metar: %s", err))
	} else {
		bundle.METARRaw = entry.Value
		bundle.METAR = metar.DecodeObservation(entry.Value)
	}

	if entry, err := b.lookup(ctx, KindTAF, station); err != nil {
		bundle.Errors = append(bundle.Errors, fmt.Sprintf("taf: %s", err))
	} else {
		bundle.TAFRaw = entry.Value
		bundle.TAF = taf.Decode(entry.Value)
	}

	if entry, err := b.lookup(ctx, KindDATIS, station); err != nil {
		bundle.Errors = append(bundle.Errors, fmt.Sprintf("datis: %s", err))
	} else {
		bundle.DATIS = entry.Value
	}

	if entry, err := b.lookup(ctx, KindMOS, station); err != nil {
		bundle.Errors = append(bundle.Errors, fmt.Sprintf("mos: %s", err))
	} else {
		bundle.MOS = entry.Value
	}

	if airport != nil {
		if entry, err := b.lookup(ctx, KindWindsAloft, station); err != nil {
			bundle.Errors = append(bundle.Errors, fmt.Sprintf("windsaloft: %s", err))
		} else if sw, ok := windsaloft.DecodeReport(entry.Value, windsaloft.SiteForICAO(station), airport.Latitude, airport.Longitude); ok {
			bundle.WindsAloft = sw
		}
	}

	if airport != nil && bundle.METAR != nil {
		bundle.RunwayWinds = b.runwayWinds(ctx, station, airport, bundle.METAR)
		bundle.Derived = deriveFrom(bundle.METAR, airport)
	}

	return bundle
}

// runwayWinds fetches the runway reference and analyzes the current wind
func (b *Bundler) runwayWinds(ctx context.Context, station string, airport *airports.Airport, obs *metar.Observation) []runway.WindAnalysis {
	if obs.Wind == nil || obs.Wind.Variable {
		return nil
	}

	entry, err := b.lookup(ctx, KindRunways, station)
	if err != nil {
		b.logger.Warn("Runway reference unavailable",
			logger.String("station", station),
			logger.Error(err))
		return nil
	}

	runways, err := runway.ParseCSV(entry.Value, station, airport.Latitude, airport.Longitude)
	if err != nil {
		b.logger.Warn("Failed to parse runway reference",
			logger.String("station", station),
			logger.Error(err))
		return nil
	}

	return runway.Analyze(runways, obs.Wind.DirectionDeg, obs.Wind.SpeedKt, obs.Wind.GustKt)
}

// deriveFrom computes density altitude, relative humidity and icing risk
// from the observation and the airport elevation.
func deriveFrom(obs *metar.Observation, airport *airports.Airport) *Derived {
	d := &Derived{}

	if obs.TemperatureC != nil && obs.Altimeter != nil {
		da := int(metar.DensityAltitude(*obs.TemperatureC, obs.Altimeter.Value, float64(airport.ElevationFt)))
		d.DensityAltitudeFt = &da
	}
	if obs.TemperatureC != nil && obs.DewpointC != nil {
		rh := metar.RelativeHumidity(*obs.TemperatureC, *obs.DewpointC)
		d.RelativeHumidityPct = &rh
		icing := metar.IcingRisk(*obs.TemperatureC, *obs.DewpointC)
		d.IcingRisk = &icing
	}

	if d.DensityAltitudeFt == nil && d.RelativeHumidityPct == nil {
		return nil
	}
	return d
}
