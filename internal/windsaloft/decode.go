package windsaloft

import (
	"regexp"
	"strconv"
	"strings"
)

// WindTemp is one decoded level from an FB winds-aloft group
type WindTemp struct {
	AltitudeFt    int  `json:"altitude_ft"`
	DirectionDeg  int  `json:"direction_deg"`
	SpeedKt       int  `json:"speed_kt"`
	TempC         *int `json:"temp_c,omitempty"`
	LightVariable bool `json:"light_variable"`
}

// StationWinds is a station's decoded line from a region-wide FB report.
// SourceStation names the station the data actually came from, which differs
// from the requested station after a nearest-site fallback.
type StationWinds struct {
	SourceStation string     `json:"source_station"`
	Fallback      bool       `json:"fallback"`
	Levels        []WindTemp `json:"levels"`
}

// Standard FB forecast altitudes, in feet, matching the report's FT header
var standardAltitudes = []int{3000, 6000, 9000, 12000, 18000, 24000, 30000, 34000, 39000}

var groupRe = regexp.MustCompile(`^(\d{4})([+-]\d{1,2}|\d{2})?$`)

// DecodeGroup decodes a single ddss[±tt] winds-aloft group. "9900" means
// light and variable. Directions over 36 carry the 50-added encoding: the
// true direction is (dd-50)*10 and the speed gains 100 kt. Above 24,000 ft
// temperatures are always negative and the sign is omitted.
func DecodeGroup(group string, altitudeFt int) (WindTemp, bool) {
	m := groupRe.FindStringSubmatch(group)
	if m == nil {
		return WindTemp{}, false
	}
	wt := WindTemp{AltitudeFt: altitudeFt}

	dd, _ := strconv.Atoi(m[1][:2])
	ss, _ := strconv.Atoi(m[1][2:])

	if dd == 99 && ss == 0 {
		wt.LightVariable = true
	} else {
		if dd > 36 {
			dd -= 50
			ss += 100
		}
		wt.DirectionDeg = dd * 10
		wt.SpeedKt = ss
	}

	if m[2] != "" {
		t, err := strconv.Atoi(strings.TrimPrefix(m[2], "+"))
		if err == nil {
			if altitudeFt > 24000 && t > 0 {
				t = -t
			}
			wt.TempC = &t
		}
	}
	return wt, true
}

// DecodeReport finds the requested station's line in a region-wide FB report
// and decodes it level by level. When the station has no line, the report
// falls back to the nearest FB site to (lat, lon) and tags the result with
// the source station so callers can show provenance.
func DecodeReport(report, station string, lat, lon float64) (*StationWinds, bool) {
	if sw, ok := decodeLine(report, station); ok {
		return sw, true
	}

	nearest, ok := Nearest(lat, lon, Stations)
	if !ok || nearest.Code == station {
		return nil, false
	}
	sw, ok := decodeLine(report, nearest.Code)
	if !ok {
		return nil, false
	}
	sw.Fallback = true
	return sw, true
}

// decodeLine locates a station's data line and decodes its groups against
// the standard altitude ladder. The 3000 ft column is blank for stations
// above 1,500 ft elevation, so groups map to altitudes from the right-hand
// end of the ladder backwards.
func decodeLine(report, station string) (*StationWinds, bool) {
	for _, line := range strings.Split(report, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != station {
			continue
		}

		groups := fields[1:]
		offset := len(standardAltitudes) - len(groups)
		if offset < 0 {
			groups = groups[:len(standardAltitudes)]
			offset = 0
		}

		sw := &StationWinds{SourceStation: station}
		for i, g := range groups {
			if wt, ok := DecodeGroup(g, standardAltitudes[offset+i]); ok {
				sw.Levels = append(sw.Levels, wt)
			}
		}
		if len(sw.Levels) == 0 {
			return nil, false
		}
		return sw, true
	}
	return nil, false
}
