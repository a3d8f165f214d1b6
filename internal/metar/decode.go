package metar

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

const metersPerStatuteMile = 1609.34

// wxCodes maps phenomenon codes to descriptions. Compound groups not listed
// here decompose greedily into these entries, longest match first.
var wxCodes = map[string]string{
	// 4-letter composites kept whole for better phrasing
	"FZRA": "Freezing Rain",
	"FZDZ": "Freezing Drizzle",
	"FZFG": "Freezing Fog",
	"SHRA": "Rain Showers",
	"SHSN": "Snow Showers",
	"SHGR": "Hail Showers",
	"TSRA": "Thunderstorm with Rain",
	"TSSN": "Thunderstorm with Snow",
	"BLSN": "Blowing Snow",
	"DRSN": "Drifting Snow",
	"MIFG": "Shallow Fog",
	"BCFG": "Patches of Fog",
	"PRFG": "Partial Fog",

	// 2-letter base codes
	"DZ": "Drizzle",
	"RA": "Rain",
	"SN": "Snow",
	"SG": "Snow Grains",
	"IC": "Ice Crystals",
	"PL": "Ice Pellets",
	"GR": "Hail",
	"GS": "Small Hail",
	"UP": "Unknown Precipitation",
	"BR": "Mist",
	"FG": "Fog",
	"FU": "Smoke",
	"VA": "Volcanic Ash",
	"DU": "Widespread Dust",
	"SA": "Sand",
	"HZ": "Haze",
	"PY": "Spray",
	"PO": "Dust Whirls",
	"SQ": "Squalls",
	"FC": "Funnel Cloud",
	"SS": "Sandstorm",
	"DS": "Duststorm",
	"TS": "Thunderstorm",
	"SH": "Showers",
	"FZ": "Freezing",
	"MI": "Shallow",
	"PR": "Partial",
	"BC": "Patches",
	"DR": "Low Drifting",
	"BL": "Blowing",
}

var wxIntensity = map[string]string{
	"-":  "Light",
	"+":  "Heavy",
	"VC": "In Vicinity:",
}

// decomposeWxCodes splits a phenomenon body into known codes, trying 4-letter
// matches before 2-letter ones at each position.
func decomposeWxCodes(body string) ([]string, bool) {
	var parts []string
	for len(body) > 0 {
		matched := false
		for _, n := range []int{4, 2} {
			if len(body) < n {
				continue
			}
			if _, ok := wxCodes[body[:n]]; ok {
				parts = append(parts, body[:n])
				body = body[n:]
				matched = true
				break
			}
		}
		if !matched {
			return nil, false
		}
	}
	return parts, len(parts) > 0
}

// DecodeWind decodes a dddss[Ggg]KT group. Returns false for malformed input.
func DecodeWind(tok Token) (*Wind, bool) {
	m := windRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return nil, false
	}
	w := &Wind{}
	if m[1] == "VRB" {
		w.Variable = true
	} else {
		w.DirectionDeg, _ = strconv.Atoi(m[1])
	}
	w.SpeedKt, _ = strconv.Atoi(m[2])
	if m[4] != "" {
		w.GustKt, _ = strconv.Atoi(m[4])
	}
	return w, true
}

// FormatWind renders a wind as "D° at S kt" with optional gust suffix
func FormatWind(w *Wind) string {
	dir := "Variable"
	if !w.Variable {
		dir = fmt.Sprintf("%d°", w.DirectionDeg)
	}
	s := fmt.Sprintf("%s at %d kt", dir, w.SpeedKt)
	if w.GustKt > 0 {
		s += fmt.Sprintf(" gusting %d kt", w.GustKt)
	}
	return s
}

// DecodeVisibility decodes SM groups (including mixed numbers like "1 1/2SM"),
// the P6SM/9999 unlimited sentinels, and bare 4-digit meter values.
func DecodeVisibility(tok Token) (*Visibility, bool) {
	s := tok.Text
	if s == "P6SM" || s == "9999" {
		return &Visibility{SM: 6, GreaterThan: true}, true
	}
	if m := visMixedRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[1], 64)
		num, _ := strconv.ParseFloat(m[2], 64)
		den, _ := strconv.ParseFloat(m[3], 64)
		if den == 0 {
			return nil, false
		}
		return &Visibility{SM: whole + num/den}, true
	}
	if m := visSMRe.FindStringSubmatch(s); m != nil {
		whole, _ := strconv.ParseFloat(m[2], 64)
		if m[4] != "" {
			den, _ := strconv.ParseFloat(m[4], 64)
			if den == 0 {
				return nil, false
			}
			// m[2]/m[4] is a fraction like 1/2SM
			return &Visibility{SM: whole / den}, true
		}
		if m[1] == "P" {
			return &Visibility{SM: whole, GreaterThan: true}, true
		}
		return &Visibility{SM: whole}, true
	}
	if visMetersRe.MatchString(s) {
		meters, _ := strconv.ParseFloat(s, 64)
		return &Visibility{SM: meters / metersPerStatuteMile}, true
	}
	return nil, false
}

// FormatVisibility renders a visibility for forecast context ("6+ SM") and
// observation context ("10+ SM") via the tenPlus flag.
func FormatVisibility(v *Visibility, tenPlus bool) string {
	if v.GreaterThan || v.SM >= 6 {
		if tenPlus {
			return "10+ SM"
		}
		return "6+ SM"
	}
	if v.SM >= 1 {
		if v.SM == math.Trunc(v.SM) {
			return fmt.Sprintf("%d SM", int(v.SM))
		}
		return fmt.Sprintf("%.1f SM", v.SM)
	}
	return fmt.Sprintf("%.1f SM", v.SM)
}

// DecodeCloud decodes a single FEW/SCT/BKN/OVC layer or VV group. The clear
// sentinels (SKC/CLR/CAVOK) return (nil, true, true).
func DecodeCloud(tok Token) (layer *CloudLayer, clear bool, ok bool) {
	if clearRe.MatchString(tok.Text) {
		return nil, true, true
	}
	if m := vertVisRe.FindStringSubmatch(tok.Text); m != nil {
		alt, _ := strconv.Atoi(m[1])
		return &CloudLayer{Cover: CoverVerticalVis, AltitudeFt: alt * 100}, false, true
	}
	m := cloudRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return nil, false, false
	}
	alt, _ := strconv.Atoi(m[2])
	return &CloudLayer{Cover: CloudCover(m[1]), AltitudeFt: alt * 100}, false, true
}

var coverNames = map[CloudCover]string{
	CoverFew:         "Few",
	CoverScattered:   "Scattered",
	CoverBroken:      "Broken",
	CoverOvercast:    "Overcast",
	CoverVerticalVis: "Vertical visibility",
}

// FormatCloudLayer renders a layer like "Broken at 1,200 ft"
func FormatCloudLayer(l CloudLayer) string {
	return fmt.Sprintf("%s at %s ft", coverNames[l.Cover], formatThousands(l.AltitudeFt))
}

func formatThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	return s[:len(s)-3] + "," + s[len(s)-3:]
}

// DecodeWeather decodes a phenomenon group into a description, resolving
// unmatched compounds by greedy decomposition into known codes.
func DecodeWeather(tok Token) (string, bool) {
	m := weatherRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return "", false
	}
	body := m[2]

	var descs []string
	if d, ok := wxCodes[body]; ok {
		descs = []string{d}
	} else {
		parts, ok := decomposeWxCodes(body)
		if !ok {
			return "", false
		}
		for _, p := range parts {
			descs = append(descs, wxCodes[p])
		}
	}

	desc := strings.Join(descs, ", ")
	if prefix, ok := wxIntensity[m[1]]; ok {
		desc = prefix + " " + desc
	}
	return desc, true
}

// DecodeRVR decodes a runway visual range group. The P/M value prefixes mean
// greater/less than and render as ">"/"<".
func DecodeRVR(tok Token) (string, bool) {
	m := rvrRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return "", false
	}
	runway := m[1] + m[2]
	value := rvrPrefix(m[3]) + m[4] + " ft"
	if m[7] != "" {
		value += " variable to " + rvrPrefix(m[6]) + m[7] + " ft"
	}
	return fmt.Sprintf("Runway %s: %s", runway, value), true
}

func rvrPrefix(pm string) string {
	switch pm {
	case "P":
		return ">"
	case "M":
		return "<"
	default:
		return ""
	}
}

// DecodeTempDew decodes a temperature/dewpoint group in whole degrees C
func DecodeTempDew(tok Token) (temp, dew float64, ok bool) {
	m := tempDewRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return 0, 0, false
	}
	t, _ := strconv.ParseFloat(m[2], 64)
	if m[1] == "M" {
		t = -t
	}
	d, _ := strconv.ParseFloat(m[4], 64)
	if m[3] == "M" {
		d = -d
	}
	return t, d, true
}

// DecodeAltimeter decodes Annnn (inHg hundredths) and Qnnnn (whole hPa)
func DecodeAltimeter(tok Token) (*Pressure, bool) {
	m := altimeterRe.FindStringSubmatch(tok.Text)
	if m == nil {
		return nil, false
	}
	n, _ := strconv.ParseFloat(m[1], 64)
	if tok.Text[0] == 'A' {
		return &Pressure{Value: n / 100, Unit: UnitInHg}, true
	}
	return &Pressure{Value: n, Unit: UnitHPa}, true
}

// DecodeObservation decodes a raw METAR into a structured Observation. The
// decode is best-effort: malformed groups are skipped, never fatal, so a
// partially garbled report still yields every field that did parse.
func DecodeObservation(raw string) *Observation {
	o := &Observation{Raw: strings.TrimSpace(raw)}
	tokens := Tokenize(raw)

	// Station ident is the first 4-letter group, observation time the first
	// ddhhmmZ group; both classify as ignored shapes.
	for _, tok := range tokens {
		if tok.Kind == KindRemarks {
			break
		}
		if o.StationID == "" && stationRe.MatchString(tok.Text) && !isWeatherToken(tok.Text) {
			o.StationID = tok.Text
			continue
		}
		if o.Time.IsZero() && obsTimeRe.MatchString(tok.Text) {
			o.Time = parseReportTime(tok.Text)
			continue
		}
		decodeInto(o, tok)
	}

	// SLP lives in the remarks section
	if slp, ok := decodeSeaLevelPressure(tokens); ok {
		o.SeaLevelHPa = &slp
	}

	if o.SkyClear {
		o.CloudLayers = []CloudLayer{}
	} else {
		sort.SliceStable(o.CloudLayers, func(i, j int) bool {
			return o.CloudLayers[i].AltitudeFt < o.CloudLayers[j].AltitudeFt
		})
	}

	o.FlightCategory = DeriveFlightCategory(o)
	o.Rows = observationRows(o)
	return o
}

func decodeInto(o *Observation, tok Token) {
	switch tok.Kind {
	case KindWind:
		if w, ok := DecodeWind(tok); ok && o.Wind == nil {
			o.Wind = w
		}
	case KindVisibility:
		if v, ok := DecodeVisibility(tok); ok && o.Visibility == nil {
			o.Visibility = v
		}
	case KindCloud, KindVertVis:
		if o.SkyClear {
			return
		}
		layer, clear, ok := DecodeCloud(tok)
		if !ok {
			return
		}
		if clear {
			o.SkyClear = true
			o.CloudLayers = nil
			return
		}
		o.CloudLayers = append(o.CloudLayers, *layer)
	case KindWeather:
		if desc, ok := DecodeWeather(tok); ok {
			o.WxCodes = append(o.WxCodes, tok.Text)
			if o.Weather == "" {
				o.Weather = desc
			} else {
				o.Weather += "; " + desc
			}
		}
	case KindRVR:
		if s, ok := DecodeRVR(tok); ok {
			o.RVR = append(o.RVR, s)
		}
	case KindTempDew:
		if t, d, ok := DecodeTempDew(tok); ok && o.TemperatureC == nil {
			o.TemperatureC = &t
			o.DewpointC = &d
		}
	case KindAltimeter:
		if p, ok := DecodeAltimeter(tok); ok && o.Altimeter == nil {
			o.Altimeter = p
		}
	}
}

// parseReportTime interprets a ddhhmmZ group against the current UTC month,
// rolling back one month when the report day is ahead of today.
func parseReportTime(s string) time.Time {
	day, _ := strconv.Atoi(s[0:2])
	hour, _ := strconv.Atoi(s[2:4])
	minute, _ := strconv.Atoi(s[4:6])

	now := time.Now().UTC()
	t := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, time.UTC)
	if now.Day() < day {
		t = t.AddDate(0, -1, 0)
	}
	return t
}

// decodeSeaLevelPressure finds an SLPnnn remark. The value is tenths of hPa
// with an implied leading 10 or 9.
func decodeSeaLevelPressure(tokens []Token) (float64, bool) {
	inRemarks := false
	for _, tok := range tokens {
		if tok.Kind == KindRemarks {
			inRemarks = true
			continue
		}
		if !inRemarks || !strings.HasPrefix(tok.Text, "SLP") || len(tok.Text) != 6 {
			continue
		}
		n, err := strconv.Atoi(tok.Text[3:])
		if err != nil {
			continue
		}
		base := 1000.0
		if n >= 500 {
			base = 900.0
		}
		return base + float64(n)/10, true
	}
	return 0, false
}

// observationRows builds the presentation row list for a decoded observation
func observationRows(o *Observation) []Row {
	var rows []Row
	if o.Wind != nil {
		rows = append(rows, Row{Label: "Wind", Value: FormatWind(o.Wind)})
	}
	if o.Visibility != nil {
		rows = append(rows, Row{Label: "Visibility", Value: FormatVisibility(o.Visibility, true)})
	}
	if o.Weather != "" {
		rows = append(rows, Row{Label: "Weather", Value: o.Weather})
	}
	if o.SkyClear {
		rows = append(rows, Row{Label: "Sky", Value: "Clear"})
	} else {
		for _, l := range o.CloudLayers {
			rows = append(rows, Row{Label: "Clouds", Value: FormatCloudLayer(l)})
		}
	}
	for _, r := range o.RVR {
		rows = append(rows, Row{Label: "RVR", Value: r})
	}
	if o.TemperatureC != nil {
		rows = append(rows, Row{Label: "Temperature", Value: fmt.Sprintf("%.0f°C", *o.TemperatureC)})
	}
	if o.DewpointC != nil {
		rows = append(rows, Row{Label: "Dewpoint", Value: fmt.Sprintf("%.0f°C", *o.DewpointC)})
	}
	if o.Altimeter != nil {
		rows = append(rows, Row{Label: "Altimeter", Value: fmt.Sprintf("%.2f inHg", o.Altimeter.InHg())})
	}
	return rows
}
