package airports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `id,ident,type,name,latitude_deg,longitude_deg,elevation_ft,continent
3422,KBOS,large_airport,Logan International Airport,42.3656,-71.0096,20,NA
3622,KBED,medium_airport,Laurence G Hanscom Field,42.47,-71.289,133,NA
9999,kSEA,large_airport,Seattle Tacoma International Airport,47.4502,-122.3088,433,NA
1000,XBAD,small_airport,Broken Row,not-a-number,-71.0,50,NA
1001,XELV,small_airport,No Elevation,40.0,-80.0,,NA
`

func TestLoad(t *testing.T) {
	t.Parallel()
	idx, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// The unparseable-position row drops out; everything else indexes
	assert.Equal(t, 4, idx.Len())

	a, ok := idx.Lookup("KBOS")
	require.True(t, ok)
	assert.Equal(t, "Logan International Airport", a.Name)
	assert.InDelta(t, 42.3656, a.Latitude, 0.0001)
	assert.InDelta(t, -71.0096, a.Longitude, 0.0001)
	assert.Equal(t, 20, a.ElevationFt)
}

func TestLookupCaseInsensitive(t *testing.T) {
	t.Parallel()
	idx, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// Idents uppercase on load and on lookup
	a, ok := idx.Lookup("ksea")
	require.True(t, ok)
	assert.Equal(t, "KSEA", a.ICAO)

	a, ok = idx.Lookup(" kbed ")
	require.True(t, ok)
	assert.Equal(t, "KBED", a.ICAO)

	_, ok = idx.Lookup("KLAX")
	assert.False(t, ok)
}

func TestLoadMissingElevationDefaultsZero(t *testing.T) {
	t.Parallel()
	idx, err := Load(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	a, ok := idx.Lookup("XELV")
	require.True(t, ok)
	assert.Equal(t, 0, a.ElevationFt)
}

func TestLoadNoUsableRows(t *testing.T) {
	t.Parallel()
	_, err := Load(strings.NewReader("id,ident,type,name,latitude_deg,longitude_deg,elevation_ft\n"))
	assert.Error(t, err)

	_, err = Load(strings.NewReader("id,ident,type,name,latitude_deg,longitude_deg,elevation_ft\n1,KAAA,small,A,bad,bad,0\n"))
	assert.Error(t, err)
}
