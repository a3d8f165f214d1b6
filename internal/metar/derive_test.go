package metar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func TestVisibilityCategoryBoundaries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		visSM float64
		want  FlightCategory
	}{
		{0.5, CategoryLIFR},
		{0.9, CategoryLIFR},
		{1.0, CategoryIFR},
		{2.9, CategoryIFR},
		{3.0, CategoryMVFR},
		{5.0, CategoryMVFR},
		{5.1, CategoryVFR},
		{10, CategoryVFR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, visibilityCategory(tt.visSM), "vis %.1f", tt.visSM)
	}
}

func TestCeilingCategoryBoundaries(t *testing.T) {
	t.Parallel()
	tests := []struct {
		ceilingFt int
		want      FlightCategory
	}{
		{200, CategoryLIFR},
		{499, CategoryLIFR},
		{500, CategoryIFR},
		{999, CategoryIFR},
		{1000, CategoryMVFR},
		{3000, CategoryMVFR},
		{3001, CategoryVFR},
		{5000, CategoryVFR},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ceilingCategory(tt.ceilingFt), "ceiling %d", tt.ceilingFt)
	}
}

func TestFlightCategoryForWorseOf(t *testing.T) {
	t.Parallel()
	// VFR visibility with an IFR ceiling is IFR; the worse dimension wins
	assert.Equal(t, CategoryIFR, FlightCategoryFor(intPtr(800), floatPtr(10)))
	assert.Equal(t, CategoryLIFR, FlightCategoryFor(intPtr(5000), floatPtr(0.5)))
	assert.Equal(t, CategoryVFR, FlightCategoryFor(intPtr(5000), floatPtr(10)))

	// A missing dimension drops out instead of dragging the result down
	assert.Equal(t, CategoryMVFR, FlightCategoryFor(intPtr(2500), nil))
	assert.Equal(t, CategoryIFR, FlightCategoryFor(nil, floatPtr(2)))
	assert.Equal(t, CategoryUnknown, FlightCategoryFor(nil, nil))
}

func TestDeriveFlightCategory(t *testing.T) {
	t.Parallel()
	// FEW layers never form a ceiling; sky reported but unconstrained is VFR
	o := &Observation{CloudLayers: []CloudLayer{{Cover: CoverFew, AltitudeFt: 2000}}}
	assert.Equal(t, CategoryVFR, DeriveFlightCategory(o))

	o = &Observation{SkyClear: true, CloudLayers: []CloudLayer{}}
	assert.Equal(t, CategoryVFR, DeriveFlightCategory(o))

	// No sky group and no visibility stays unknown
	assert.Equal(t, CategoryUnknown, DeriveFlightCategory(&Observation{}))

	// Unlimited sentinel buckets as 10 SM, not 6
	o = &Observation{
		Visibility:  &Visibility{SM: 6, GreaterThan: true},
		CloudLayers: []CloudLayer{{Cover: CoverBroken, AltitudeFt: 4000}},
	}
	assert.Equal(t, CategoryVFR, DeriveFlightCategory(o))

	// Vertical visibility is a ceiling
	o = &Observation{CloudLayers: []CloudLayer{{Cover: CoverVerticalVis, AltitudeFt: 200}}}
	assert.Equal(t, CategoryLIFR, DeriveFlightCategory(o))
}

func TestDensityAltitude(t *testing.T) {
	t.Parallel()
	// Standard day at sea level is zero by construction
	assert.InDelta(t, 0, DensityAltitude(15, 29.92, 0), 0.001)

	// At 5000 ft elevation ISA is 5°C; 30°C there adds 120 ft per degree
	da := DensityAltitude(30, 29.92, 5000)
	assert.InDelta(t, 5000+120*25, da, 0.001)

	// Hotter air and lower pressure both raise density altitude
	assert.Greater(t, DensityAltitude(35, 29.92, 1000), DensityAltitude(20, 29.92, 1000))
	assert.Greater(t, DensityAltitude(20, 29.42, 1000), DensityAltitude(20, 29.92, 1000))

	// hPa altimeter values normalize before the computation
	assert.InDelta(t, DensityAltitude(15, 29.92, 0), DensityAltitude(15, 29.92*33.8639, 0), 0.5)
}

func TestRelativeHumidity(t *testing.T) {
	t.Parallel()
	// Saturated air is exactly 100%
	assert.InDelta(t, 100, RelativeHumidity(20, 20), 0.001)
	assert.InDelta(t, 100, RelativeHumidity(-5, -5), 0.001)

	rh := RelativeHumidity(25, 10)
	assert.Greater(t, rh, 0.0)
	assert.Less(t, rh, 100.0)

	// Wider spread means drier air
	assert.Less(t, RelativeHumidity(25, 5), RelativeHumidity(25, 15))
}

func TestIcingRisk(t *testing.T) {
	t.Parallel()
	assert.True(t, IcingRisk(2, 0))
	assert.True(t, IcingRisk(0, -3))
	assert.False(t, IcingRisk(10, 2))
	assert.True(t, IcingRisk(5, 2)) // spread exactly 3 counts
}
