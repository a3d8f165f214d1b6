package snapshot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegActive(t *testing.T) {
	t.Parallel()
	var nilLeg *Leg
	assert.False(t, nilLeg.Active())

	leg := &Leg{ID: 1, StartedAt: time.Now()}
	assert.True(t, leg.Active())

	ended := time.Now()
	leg.EndedAt = &ended
	assert.False(t, leg.Active())
}

func TestLegValue(t *testing.T) {
	t.Parallel()
	leg := &Leg{
		Values: []Value{
			{Kind: "metar", Station: "KBOS", Raw: "bos metar"},
			{Kind: "taf", Station: "KBOS", Raw: "bos taf"},
			{Kind: "metar", Station: "KJFK", Raw: "jfk metar"},
		},
	}

	v, ok := leg.Value("metar", "KBOS")
	require.True(t, ok)
	assert.Equal(t, "bos metar", v.Raw)

	// Station matching is case-insensitive
	v, ok = leg.Value("taf", "kbos")
	require.True(t, ok)
	assert.Equal(t, "bos taf", v.Raw)

	_, ok = leg.Value("datis", "KBOS")
	assert.False(t, ok)
	_, ok = leg.Value("metar", "KLAX")
	assert.False(t, ok)

	var nilLeg *Leg
	_, ok = nilLeg.Value("metar", "KBOS")
	assert.False(t, ok)
}
