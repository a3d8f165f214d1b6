package windsaloft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGroup(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		group    string
		altitude int
		want     WindTemp
	}{
		{
			"plain wind no temp",
			"2714", 3000,
			WindTemp{AltitudeFt: 3000, DirectionDeg: 270, SpeedKt: 14},
		},
		{
			"wind with positive temp",
			"2714+06", 6000,
			WindTemp{AltitudeFt: 6000, DirectionDeg: 270, SpeedKt: 14, TempC: intPtr(6)},
		},
		{
			"wind with negative temp",
			"2722-11", 12000,
			WindTemp{AltitudeFt: 12000, DirectionDeg: 270, SpeedKt: 22, TempC: intPtr(-11)},
		},
		{
			"light and variable",
			"9900", 3000,
			WindTemp{AltitudeFt: 3000, LightVariable: true},
		},
		{
			"light and variable with temp",
			"9900+10", 9000,
			WindTemp{AltitudeFt: 9000, LightVariable: true, TempC: intPtr(10)},
		},
		{
			"fifty-added encoding",
			"7309", 30000,
			WindTemp{AltitudeFt: 30000, DirectionDeg: 230, SpeedKt: 109},
		},
		{
			"unsigned temp above 24000 reads negative",
			"750945", 34000,
			WindTemp{AltitudeFt: 34000, DirectionDeg: 250, SpeedKt: 109, TempC: intPtr(-45)},
		},
		{
			"unsigned temp at or below 24000 stays positive",
			"271512", 24000,
			WindTemp{AltitudeFt: 24000, DirectionDeg: 270, SpeedKt: 15, TempC: intPtr(12)},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			wt, ok := DecodeGroup(tt.group, tt.altitude)
			require.True(t, ok)
			assert.Equal(t, tt.want, wt)
		})
	}

	_, ok := DecodeGroup("27", 3000)
	assert.False(t, ok, "truncated groups must not decode")
}

func intPtr(n int) *int { return &n }

const sampleReport = `DATA BASED ON 221200Z
VALID 221800Z   FOR USE 1700-2100Z. TEMPS NEG ABV 24000

FT  3000    6000    9000   12000   18000   24000  30000  34000  39000
BOS 2714 2722+06 2728+01 2735-04 2851-16 2962-27 296239 297649 298555
DEN      2425+03 2532-02 2640-07 2755-19 2868-31 287545 288152 287960
`

func TestDecodeReport(t *testing.T) {
	t.Parallel()
	sw, ok := DecodeReport(sampleReport, "BOS", 42.36, -71.01)
	require.True(t, ok)
	assert.Equal(t, "BOS", sw.SourceStation)
	assert.False(t, sw.Fallback)
	require.Len(t, sw.Levels, 9)

	assert.Equal(t, WindTemp{AltitudeFt: 3000, DirectionDeg: 270, SpeedKt: 14}, sw.Levels[0])
	assert.Equal(t, 6000, sw.Levels[1].AltitudeFt)
	require.NotNil(t, sw.Levels[1].TempC)
	assert.Equal(t, 6, *sw.Levels[1].TempC)

	// 296239 at 30000: unsigned temp is negative up high
	l30 := sw.Levels[6]
	assert.Equal(t, 30000, l30.AltitudeFt)
	assert.Equal(t, 290, l30.DirectionDeg)
	assert.Equal(t, 62, l30.SpeedKt)
	require.NotNil(t, l30.TempC)
	assert.Equal(t, -39, *l30.TempC)
}

func TestDecodeReportShortLine(t *testing.T) {
	t.Parallel()
	// DEN's line omits the 3000 ft column, so its first group is 6000 ft
	sw, ok := DecodeReport(sampleReport, "DEN", 39.86, -104.67)
	require.True(t, ok)
	require.Len(t, sw.Levels, 8)
	assert.Equal(t, 6000, sw.Levels[0].AltitudeFt)
	assert.Equal(t, 39000, sw.Levels[7].AltitudeFt)
}

func TestDecodeReportNearestFallback(t *testing.T) {
	t.Parallel()
	// BDL has no line; Boston coordinates resolve to the BOS line instead
	sw, ok := DecodeReport(sampleReport, "BDL", 42.36, -71.01)
	require.True(t, ok)
	assert.True(t, sw.Fallback)
	assert.Equal(t, "BOS", sw.SourceStation)
}

func TestDecodeReportMissingEverywhere(t *testing.T) {
	t.Parallel()
	// Far from any station with a data line: nearest site is MIA, also absent
	_, ok := DecodeReport(sampleReport, "MIA", 25.79, -80.28)
	assert.False(t, ok)
}

func TestHaversine(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0, Haversine(42.36, -71.01, 42.36, -71.01), 0.001)

	// One degree of latitude is about 60 nm
	assert.InDelta(t, 60, Haversine(40, -75, 41, -75), 0.2)

	// BOS to JFK is roughly 160 nm
	d := Haversine(42.3656, -71.0096, 40.6413, -73.7781)
	assert.InDelta(t, 160, d, 10)
}

func TestNearest(t *testing.T) {
	t.Parallel()
	s, ok := Nearest(42.4, -71.0, Stations)
	require.True(t, ok)
	assert.Equal(t, "BOS", s.Code)

	s, ok = Nearest(39.9, -104.7, Stations)
	require.True(t, ok)
	assert.Equal(t, "DEN", s.Code)

	_, ok = Nearest(0, 0, nil)
	assert.False(t, ok)
}

func TestSiteForICAO(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "BOS", SiteForICAO("KBOS"))
	assert.Equal(t, "JFK", SiteForICAO("KJFK"))
	assert.Equal(t, "CYYZ", SiteForICAO("CYYZ"))
	assert.Equal(t, "BOS", SiteForICAO("BOS"))
}

func TestNearestTieKeepsInputOrder(t *testing.T) {
	t.Parallel()
	set := []Station{
		{"AAA", 10, 10},
		{"BBB", 10, 10},
	}
	s, ok := Nearest(10, 10, set)
	require.True(t, ok)
	assert.Equal(t, "AAA", s.Code)
}
