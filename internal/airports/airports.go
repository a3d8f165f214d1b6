// Package airports resolves station idents to position and elevation from an
// OurAirports-format airports.csv file.
package airports

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Airport is the subset of airport metadata the decoders need
type Airport struct {
	ICAO        string  `json:"icao"`
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ElevationFt int     `json:"elevation_ft"`
}

// Index is an in-memory airport lookup keyed by ICAO ident
type Index struct {
	byICAO map[string]Airport
}

// LoadFile reads an airports.csv from disk and builds an index
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open airports file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load builds an index from OurAirports-format CSV data. Rows without a
// parseable position are skipped; a missing elevation defaults to zero.
func Load(r io.Reader) (*Index, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse airports CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("airports CSV has no data rows")
	}

	idx := &Index{byICAO: make(map[string]Airport, len(records)-1)}
	for _, rec := range records[1:] {
		if len(rec) < 7 {
			continue
		}
		ident := strings.ToUpper(strings.TrimSpace(rec[1]))
		if ident == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(rec[4], 64)
		lon, errLon := strconv.ParseFloat(rec[5], 64)
		if errLat != nil || errLon != nil {
			continue
		}
		elev, _ := strconv.Atoi(strings.TrimSpace(rec[6]))

		idx.byICAO[ident] = Airport{
			ICAO:        ident,
			Name:        rec[3],
			Latitude:    lat,
			Longitude:   lon,
			ElevationFt: elev,
		}
	}

	if len(idx.byICAO) == 0 {
		return nil, fmt.Errorf("no usable rows in airports CSV")
	}
	return idx, nil
}

// Lookup returns the airport for an ICAO ident, case-insensitively
func (i *Index) Lookup(icao string) (Airport, bool) {
	a, ok := i.byICAO[strings.ToUpper(strings.TrimSpace(icao))]
	return a, ok
}

// Len reports the number of indexed airports
func (i *Index) Len() int {
	return len(i.byICAO)
}
