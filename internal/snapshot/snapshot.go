// Package snapshot models pre-departure weather snapshots scoped to a
// flight leg, used to answer lookups while offline.
package snapshot

import (
	"strings"
	"time"
)

// Value is one captured raw report for a (kind, station) pair
type Value struct {
	Kind      string    `json:"kind"`
	Station   string    `json:"station"`
	Raw       string    `json:"raw"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Leg is a flight leg with the weather captured before departure. A leg with
// a nil EndedAt is active and the consumer is treated as in flight.
type Leg struct {
	ID            int64      `json:"id"`
	DepartureICAO string     `json:"departure_icao"`
	ArrivalICAO   string     `json:"arrival_icao"`
	StartedAt     time.Time  `json:"started_at"`
	EndedAt       *time.Time `json:"ended_at,omitempty"`
	Values        []Value    `json:"values"`
}

// Active reports whether the leg is still in progress
func (l *Leg) Active() bool {
	return l != nil && l.EndedAt == nil
}

// Value returns the captured report for a (kind, station) pair, if any
func (l *Leg) Value(kind, station string) (Value, bool) {
	if l == nil {
		return Value{}, false
	}
	station = strings.ToUpper(station)
	for _, v := range l.Values {
		if v.Kind == kind && v.Station == station {
			return v, true
		}
	}
	return Value{}, false
}
