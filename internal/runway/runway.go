// Package runway models runway ends and computes head/crosswind components
// and favorability for a reported wind.
package runway

import (
	"encoding/csv"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// Runway is a single landing direction (one end of a physical strip)
type Runway struct {
	Ident       string  `json:"ident"`        // e.g. "27L"
	HeadingTrue float64 `json:"heading_true"` // degrees true
	LengthFt    int     `json:"length_ft"`
	Surface     string  `json:"surface"`
}

// Favorability buckets a runway's crosswind exposure, best to worst
type Favorability string

const (
	FavorabilityExcellent   Favorability = "excellent"
	FavorabilityGood        Favorability = "good"
	FavorabilityModerate    Favorability = "moderate"
	FavorabilityChallenging Favorability = "challenging"
	FavorabilityExceeds     Favorability = "exceeds"
)

// WindAnalysis is the wind breakdown for one runway. Positive headwind is
// favorable; the crosswind sign encodes side (positive = from the right).
type WindAnalysis struct {
	Runway          Runway       `json:"runway"`
	HeadwindKt      int          `json:"headwind_kt"`
	CrosswindKt     int          `json:"crosswind_kt"`
	GustCrosswindKt *int         `json:"gust_crosswind_kt,omitempty"`
	Favorability    Favorability `json:"favorability"`
}

// Components projects a wind onto a runway heading. Inputs and the heading
// are both in degrees true.
func Components(windDirDeg, windSpeedKt, headingTrue float64) (headwind, crosswind int) {
	angle := (windDirDeg - headingTrue) * math.Pi / 180
	headwind = int(math.Round(windSpeedKt * math.Cos(angle)))
	crosswind = int(math.Round(windSpeedKt * math.Sin(angle)))
	return headwind, crosswind
}

// FavorabilityFor buckets an absolute crosswind by the 5/10/15/25 kt
// thresholds.
func FavorabilityFor(crosswindKt int) Favorability {
	abs := crosswindKt
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs < 5:
		return FavorabilityExcellent
	case abs < 10:
		return FavorabilityGood
	case abs < 15:
		return FavorabilityModerate
	case abs < 25:
		return FavorabilityChallenging
	default:
		return FavorabilityExceeds
	}
}

// Analyze computes components and favorability for every runway and ranks
// them: ascending absolute crosswind, ties broken by descending headwind.
// A variable wind yields no analysis.
func Analyze(runways []Runway, windDirDeg, windSpeedKt int, gustKt int) []WindAnalysis {
	analyses := make([]WindAnalysis, 0, len(runways))
	for _, rw := range runways {
		head, cross := Components(float64(windDirDeg), float64(windSpeedKt), rw.HeadingTrue)
		a := WindAnalysis{
			Runway:       rw,
			HeadwindKt:   head,
			CrosswindKt:  cross,
			Favorability: FavorabilityFor(cross),
		}
		if gustKt > 0 {
			_, gustCross := Components(float64(windDirDeg), float64(gustKt), rw.HeadingTrue)
			a.GustCrosswindKt = &gustCross
		}
		analyses = append(analyses, a)
	}

	sort.SliceStable(analyses, func(i, j int) bool {
		ci := abs(analyses[i].CrosswindKt)
		cj := abs(analyses[j].CrosswindKt)
		if ci != cj {
			return ci < cj
		}
		return analyses[i].HeadwindKt > analyses[j].HeadwindKt
	})
	return analyses
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// MagneticDeclination returns the WMM declination in degrees (+East) for a
// position, used to correct ident-derived magnetic headings to true.
func MagneticDeclination(lat, lon float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, 0)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0
	}
	return mag.D()
}

// identHeading derives a magnetic heading from a runway ident ("09", "27L")
func identHeading(ident string) (float64, bool) {
	digits := strings.TrimRight(ident, "LRC")
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 36 {
		return 0, false
	}
	return float64(n) * 10, true
}

// ParseCSV decodes OurAirports-format runways.csv text into the runway ends
// for one airport. Closed strips are skipped. The true heading column is
// preferred; when absent the heading comes from the ident corrected by the
// local magnetic declination.
func ParseCSV(raw, airportICAO string, lat, lon float64) ([]Runway, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse runways CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("runways CSV has no data rows")
	}

	declination := MagneticDeclination(lat, lon, time.Now().UTC())

	var runways []Runway
	for _, rec := range records[1:] {
		if len(rec) < 19 || rec[2] != airportICAO {
			continue
		}
		if rec[7] == "1" { // closed
			continue
		}
		length, _ := strconv.Atoi(rec[3])

		for _, end := range []struct{ ident, heading string }{
			{rec[8], rec[12]},
			{rec[14], rec[18]},
		} {
			if end.ident == "" {
				continue
			}
			rw := Runway{Ident: end.ident, LengthFt: length, Surface: rec[5]}
			if h, err := strconv.ParseFloat(end.heading, 64); err == nil {
				rw.HeadingTrue = h
			} else if mag, ok := identHeading(end.ident); ok {
				rw.HeadingTrue = normalizeHeading(mag + declination)
			} else {
				continue
			}
			runways = append(runways, rw)
		}
	}

	if len(runways) == 0 {
		return nil, fmt.Errorf("no runways found for %s", airportICAO)
	}
	return runways, nil
}

func normalizeHeading(h float64) float64 {
	for h < 0 {
		h += 360
	}
	for h >= 360 {
		h -= 360
	}
	return h
}
