package runway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponents(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		windDir   float64
		windSpeed float64
		heading   float64
		headwind  int
		crosswind int
	}{
		{"direct headwind", 90, 10, 90, 10, 0},
		{"direct tailwind", 270, 10, 90, -10, 0},
		{"pure crosswind from the right", 180, 10, 90, 0, 10},
		{"pure crosswind from the left", 0, 10, 90, 0, -10},
		{"45 degrees off", 135, 10, 90, 7, 7},
		{"calm", 0, 0, 90, 0, 0},
		{"wraps through north", 350, 20, 10, 19, -7},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			head, cross := Components(tt.windDir, tt.windSpeed, tt.heading)
			assert.Equal(t, tt.headwind, head)
			assert.Equal(t, tt.crosswind, cross)
		})
	}
}

func TestFavorabilityFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		crosswind int
		want      Favorability
	}{
		{0, FavorabilityExcellent},
		{4, FavorabilityExcellent},
		{5, FavorabilityGood},
		{9, FavorabilityGood},
		{10, FavorabilityModerate},
		{14, FavorabilityModerate},
		{15, FavorabilityChallenging},
		{24, FavorabilityChallenging},
		{25, FavorabilityExceeds},
		{-12, FavorabilityModerate}, // sign is side, not magnitude
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FavorabilityFor(tt.crosswind), "crosswind %d", tt.crosswind)
	}
}

func TestAnalyzeRanking(t *testing.T) {
	t.Parallel()
	runways := []Runway{
		{Ident: "09", HeadingTrue: 90},
		{Ident: "27", HeadingTrue: 270},
		{Ident: "18", HeadingTrue: 180},
		{Ident: "36", HeadingTrue: 360},
	}

	// Wind 090 at 10: both 09 and 27 see zero crosswind, 09 has the headwind
	analyses := Analyze(runways, 90, 10, 0)
	require.Len(t, analyses, 4)
	assert.Equal(t, "09", analyses[0].Runway.Ident)
	assert.Equal(t, 10, analyses[0].HeadwindKt)
	assert.Equal(t, 0, analyses[0].CrosswindKt)
	assert.Equal(t, "27", analyses[1].Runway.Ident)
	assert.Equal(t, -10, analyses[1].HeadwindKt)
	assert.Equal(t, FavorabilityExcellent, analyses[0].Favorability)
	assert.Equal(t, FavorabilityModerate, analyses[2].Favorability)

	for _, a := range analyses {
		assert.Nil(t, a.GustCrosswindKt)
	}
}

func TestAnalyzeGustCrosswind(t *testing.T) {
	t.Parallel()
	runways := []Runway{{Ident: "36", HeadingTrue: 360}}
	analyses := Analyze(runways, 90, 10, 25)
	require.Len(t, analyses, 1)

	assert.Equal(t, 10, analyses[0].CrosswindKt)
	require.NotNil(t, analyses[0].GustCrosswindKt)
	assert.Equal(t, 25, *analyses[0].GustCrosswindKt)
	// Favorability is bucketed on the steady crosswind
	assert.Equal(t, FavorabilityModerate, analyses[0].Favorability)
}

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()
	analyses := Analyze(nil, 90, 10, 0)
	assert.Empty(t, analyses)
}

func TestIdentHeading(t *testing.T) {
	t.Parallel()
	h, ok := identHeading("09")
	require.True(t, ok)
	assert.Equal(t, 90.0, h)

	h, ok = identHeading("27L")
	require.True(t, ok)
	assert.Equal(t, 270.0, h)

	h, ok = identHeading("36C")
	require.True(t, ok)
	assert.Equal(t, 360.0, h)

	_, ok = identHeading("H1")
	assert.False(t, ok, "helipad idents have no heading")
	_, ok = identHeading("00")
	assert.False(t, ok)
}

func TestNormalizeHeading(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 350.0, normalizeHeading(-10))
	assert.Equal(t, 10.0, normalizeHeading(370))
	assert.Equal(t, 0.0, normalizeHeading(360))
	assert.Equal(t, 90.0, normalizeHeading(90))
}

// Column layout follows the OurAirports runways.csv export
const runwaysCSVHeader = "id,airport_ref,airport_ident,length_ft,width_ft,surface,lighted,closed," +
	"le_ident,le_latitude_deg,le_longitude_deg,le_elevation_ft,le_heading_degT,le_displaced_threshold_ft," +
	"he_ident,he_latitude_deg,he_longitude_deg,he_elevation_ft,he_heading_degT,he_displaced_threshold_ft\n"

const sampleRunwaysCSV = runwaysCSVHeader +
	"244571,3622,KBED,7011,150,ASP,1,0,11,42.4772,-71.2964,132,113.0,,29,42.4633,-71.2743,122,293.0,\n" +
	"244572,3622,KBED,5107,150,ASP,1,0,05,42.4639,-71.2955,121,53.0,,23,42.4735,-71.2822,131,233.0,\n" +
	"244573,3622,KBED,2000,50,TURF,1,1,09,42.47,-71.29,120,90.0,,27,42.47,-71.28,120,270.0,\n" +
	"300001,9999,KXYZ,4000,75,ASP,1,0,18,40.0,-75.0,100,,,36,40.0,-75.0,100,,\n"

func TestParseCSV(t *testing.T) {
	t.Parallel()
	runways, err := ParseCSV(sampleRunwaysCSV, "KBED", 42.47, -71.29)
	require.NoError(t, err)

	// Two open strips, both ends each; the closed turf strip is skipped
	require.Len(t, runways, 4)
	idents := make([]string, 0, len(runways))
	for _, rw := range runways {
		idents = append(idents, rw.Ident)
	}
	assert.Equal(t, []string{"11", "29", "05", "23"}, idents)

	assert.Equal(t, 113.0, runways[0].HeadingTrue)
	assert.Equal(t, 7011, runways[0].LengthFt)
	assert.Equal(t, "ASP", runways[0].Surface)
	assert.Equal(t, 293.0, runways[1].HeadingTrue)
}

func TestParseCSVIdentFallbackHeading(t *testing.T) {
	t.Parallel()
	// KXYZ's rows have no true-heading column, so headings derive from the
	// ident plus local declination, which stays within a few degrees of the
	// ident value.
	runways, err := ParseCSV(sampleRunwaysCSV, "KXYZ", 40.0, -75.0)
	require.NoError(t, err)
	require.Len(t, runways, 2)

	assert.InDelta(t, 180, runways[0].HeadingTrue, 20)
	assert.InDelta(t, 0, angularDiff(runways[1].HeadingTrue, 360), 20)
}

func angularDiff(a, b float64) float64 {
	d := normalizeHeading(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestParseCSVUnknownAirport(t *testing.T) {
	t.Parallel()
	_, err := ParseCSV(sampleRunwaysCSV, "KLAX", 33.94, -118.41)
	assert.Error(t, err)
}

func TestParseCSVEmpty(t *testing.T) {
	t.Parallel()
	_, err := ParseCSV(runwaysCSVHeader, "KBED", 42.47, -71.29)
	assert.Error(t, err)
}
