package taf

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/skyhawk-aero/wxbrief/internal/metar"
)

// Condition is a segment-level summary: a short phrase, an icon name for
// presentation, and a flight category. Classification scans the segment's
// decodable groups with a fixed priority list (thunderstorm first, "no data"
// last). This
// is deliberately a separate heuristic from the METAR worst-of rule: the two
// are expected to diverge slightly on the same inputs.
type Condition struct {
	Summary  string               `json:"summary"`
	Icon     string               `json:"icon"`
	Category metar.FlightCategory `json:"category"`
}

var (
	fracVisRe  = regexp.MustCompile(`(?:^| )(?:([0-9]) )?([0-9])/([0-9])SM`)
	wholeVisRe = regexp.MustCompile(`(?:^| )M?([0-9]{1,2})SM`)
	ceilingRe  = regexp.MustCompile(`(?:BKN|OVC|VV)([0-9]{3})`)
	sctFewRe   = regexp.MustCompile(`(?:SCT|FEW)[0-9]{3}`)
	clearWxRe  = regexp.MustCompile(`\b(?:SKC|CLR|CAVOK|P6SM)\b`)
)

// Classify maps a segment's raw text to a Condition. Rules are tried in
// priority order; the first match wins. Only the segment's weather, cloud and
// visibility groups feed the scan, so station idents and change-group headers
// (KSTS, FM011800) can never read as phenomena.
func Classify(raw string) Condition {
	text := " " + scanText(raw) + " "
	visSM, hasVis := scanVisibility(text)
	ceiling, hasCeiling := scanCeiling(text)
	cat := categoryFromScan(visSM, hasVis, ceiling, hasCeiling)

	switch {
	case strings.Contains(text, "TS"):
		return Condition{Summary: "Thunderstorms", Icon: "thunderstorm", Category: floor(cat, metar.CategoryMVFR)}
	case strings.Contains(text, "+RA") || strings.Contains(text, "+SN") || strings.Contains(text, "+SHRA"):
		return Condition{Summary: "Heavy precipitation", Icon: "heavy-precip", Category: floor(cat, metar.CategoryMVFR)}
	case strings.Contains(text, "FZRA") || strings.Contains(text, "FZDZ"):
		return Condition{Summary: "Freezing precipitation", Icon: "freezing-precip", Category: floor(cat, metar.CategoryIFR)}
	case containsAny(text, "RA", "SN", "DZ", "SHRA", "SHSN", "PL"):
		return Condition{Summary: "Precipitation", Icon: "precip", Category: cat}
	case strings.Contains(text, "FG"):
		return Condition{Summary: "Fog", Icon: "fog", Category: floor(cat, metar.CategoryIFR)}
	case strings.Contains(text, "BR") || strings.Contains(text, "HZ"):
		return Condition{Summary: "Haze / mist", Icon: "haze", Category: cat}
	case hasVis && visSM <= 5:
		return Condition{Summary: "Reduced visibility", Icon: "low-visibility", Category: cat}
	case hasCeiling && ceiling <= 3000:
		return Condition{Summary: "Low ceilings", Icon: "low-ceiling", Category: cat}
	case sctFewRe.MatchString(text):
		return Condition{Summary: "Partly cloudy", Icon: "partly-cloudy", Category: orVFR(cat)}
	case clearWxRe.MatchString(text) || hasCeiling || hasVis:
		return Condition{Summary: "Clear", Icon: "clear", Category: orVFR(cat)}
	default:
		return Condition{Summary: "No data", Icon: "unknown", Category: metar.CategoryUnknown}
	}
}

// scanText rebuilds classification input from the tokenized report, keeping
// only the group kinds the rules below inspect.
func scanText(raw string) string {
	var parts []string
	for _, tok := range metar.Tokenize(strings.ToUpper(strings.TrimSpace(raw))) {
		switch tok.Kind {
		case metar.KindWeather, metar.KindCloud, metar.KindVertVis, metar.KindVisibility:
			parts = append(parts, tok.Text)
		}
	}
	return strings.Join(parts, " ")
}

// scanVisibility extracts the lowest visibility mentioned in the text,
// handling mixed numbers ("1 1/2SM"), bare fractions, and whole miles.
func scanVisibility(text string) (float64, bool) {
	lowest := 0.0
	found := false
	for _, m := range fracVisRe.FindAllStringSubmatch(text, -1) {
		whole := 0.0
		if m[1] != "" {
			whole, _ = strconv.ParseFloat(m[1], 64)
		}
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			continue
		}
		v := whole + num/den
		if !found || v < lowest {
			lowest, found = v, true
		}
	}
	for _, m := range wholeVisRe.FindAllStringSubmatch(text, -1) {
		v, _ := strconv.ParseFloat(m[1], 64)
		if !found || v < lowest {
			lowest, found = v, true
		}
	}
	return lowest, found
}

// scanCeiling extracts the lowest BKN/OVC/VV base in feet
func scanCeiling(text string) (int, bool) {
	lowest := 0
	found := false
	for _, m := range ceilingRe.FindAllStringSubmatch(text, -1) {
		hundreds, _ := strconv.Atoi(m[1])
		ft := hundreds * 100
		if !found || ft < lowest {
			lowest, found = ft, true
		}
	}
	return lowest, found
}

func categoryFromScan(visSM float64, hasVis bool, ceiling int, hasCeiling bool) metar.FlightCategory {
	var visPtr *float64
	if hasVis {
		visPtr = &visSM
	}
	var ceilPtr *int
	if hasCeiling {
		ceilPtr = &ceiling
	}
	return metar.FlightCategoryFor(ceilPtr, visPtr)
}

// floor caps a category at the given worst-case bound, so e.g. a thunderstorm
// segment never classifies better than MVFR even with good numbers.
func floor(cat, bound metar.FlightCategory) metar.FlightCategory {
	if cat == metar.CategoryUnknown || cat > bound {
		return bound
	}
	return cat
}

func orVFR(cat metar.FlightCategory) metar.FlightCategory {
	if cat == metar.CategoryUnknown {
		return metar.CategoryVFR
	}
	return cat
}

func containsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(text, s) {
			return true
		}
	}
	return false
}
