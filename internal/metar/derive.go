package metar

import "math"

// Category thresholds per the FAA flight category definitions. Visibility in
// statute miles, ceiling in feet AGL. Each dimension buckets independently
// and the worse of the two wins.

func visibilityCategory(visSM float64) FlightCategory {
	switch {
	case visSM < 1:
		return CategoryLIFR
	case visSM < 3:
		return CategoryIFR
	case visSM <= 5:
		return CategoryMVFR
	default:
		return CategoryVFR
	}
}

func ceilingCategory(ceilingFt int) FlightCategory {
	switch {
	case ceilingFt < 500:
		return CategoryLIFR
	case ceilingFt < 1000:
		return CategoryIFR
	case ceilingFt <= 3000:
		return CategoryMVFR
	default:
		return CategoryVFR
	}
}

// worse returns the lower of two categories on the LIFR < IFR < MVFR < VFR
// order, treating unknown as no constraint.
func worse(a, b FlightCategory) FlightCategory {
	if a == CategoryUnknown {
		return b
	}
	if b == CategoryUnknown {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// FlightCategoryFor buckets a ceiling/visibility pair. Either input may be
// absent: nil visibility or no ceiling simply drops that dimension.
func FlightCategoryFor(ceilingFt *int, visSM *float64) FlightCategory {
	visCat := CategoryUnknown
	if visSM != nil {
		visCat = visibilityCategory(*visSM)
	}
	ceilCat := CategoryUnknown
	if ceilingFt != nil {
		ceilCat = ceilingCategory(*ceilingFt)
	}
	return worse(visCat, ceilCat)
}

// DeriveFlightCategory computes the category for a decoded observation from
// its ceiling and visibility.
func DeriveFlightCategory(o *Observation) FlightCategory {
	var visSM *float64
	if o.Visibility != nil {
		v := o.Visibility.ClassifySM()
		visSM = &v
	}
	var ceiling *int
	if c, ok := o.Ceiling(); ok {
		ceiling = &c
	}
	cat := FlightCategoryFor(ceiling, visSM)
	if cat == CategoryUnknown && (o.SkyClear || len(o.CloudLayers) > 0) {
		// Sky condition reported with no ceiling and no visibility group:
		// nothing constrains the category.
		return CategoryVFR
	}
	return cat
}

// DensityAltitude computes density altitude in feet from temperature,
// altimeter setting and station elevation. The altimeter is normalized to
// inHg first (values over 100 are assumed hPa).
func DensityAltitude(tempC float64, altimeter float64, elevationFt float64) float64 {
	inHg := NormalizePressure(altimeter).InHg()
	pressureAlt := (29.92-inHg)*1000 + elevationFt
	isaTemp := 15 - (elevationFt / 1000 * 2)
	return pressureAlt + 120*(tempC-isaTemp)
}

// RelativeHumidity approximates RH in percent from temperature and dewpoint
// in Celsius using the Magnus formula.
func RelativeHumidity(tempC, dewC float64) float64 {
	const a, b = 17.625, 243.04
	return 100 * math.Exp(a*dewC/(b+dewC)) / math.Exp(a*tempC/(b+tempC))
}

// IcingRisk flags a temperature/dewpoint spread of 3°C or less, the common
// moist-air proxy for structural icing potential.
func IcingRisk(tempC, dewC float64) bool {
	return tempC-dewC <= 3
}
