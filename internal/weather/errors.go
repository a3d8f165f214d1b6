package weather

import "errors"

var (
	// ErrInvalidStation means the station ident is malformed or unknown to
	// the source.
	ErrInvalidStation = errors.New("invalid station")

	// ErrSourceUnavailable means the upstream source could not be reached or
	// answered with a server error.
	ErrSourceUnavailable = errors.New("weather source unavailable")

	// ErrNoData means the source answered but has no report for the station.
	ErrNoData = errors.New("no data for station")
)
