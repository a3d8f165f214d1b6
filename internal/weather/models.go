// Package weather fetches raw aviation weather products and caches them
// per (kind, station) with kind-specific freshness rules.
package weather

import "time"

// Kind identifies a weather product type
type Kind string

const (
	KindMETAR      Kind = "metar"
	KindTAF        Kind = "taf"
	KindWindsAloft Kind = "windsaloft"
	KindDATIS      Kind = "datis"
	KindMOS        Kind = "mos"
	KindRunways    Kind = "runways"
)

// Kinds lists every product type, in bundle order
var Kinds = []Kind{KindMETAR, KindTAF, KindWindsAloft, KindDATIS, KindMOS, KindRunways}

// Valid reports whether k names a known product type
func (k Kind) Valid() bool {
	switch k {
	case KindMETAR, KindTAF, KindWindsAloft, KindDATIS, KindMOS, KindRunways:
		return true
	}
	return false
}

// TTL returns the freshness window for a kind. The boolean is false for
// session-keyed kinds, which are fetched once per session rather than
// expiring on a clock.
func (k Kind) TTL() (time.Duration, bool) {
	switch k {
	case KindMETAR:
		return 30 * time.Minute, true
	case KindRunways:
		return 24 * time.Hour, true
	default:
		return 0, false
	}
}

// Entry is one cached raw value. Entries are immutable: a refresh installs
// a replacement rather than mutating in place.
type Entry struct {
	Value     string    `json:"value"`
	FetchedAt time.Time `json:"fetched_at"`
}

// FetchResult carries the outcome of one fetch during a station refresh
type FetchResult struct {
	Kind Kind
	Err  error
}
