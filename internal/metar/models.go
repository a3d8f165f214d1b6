package metar

import "time"

// FlightCategory is the FAA ceiling/visibility bucket, ordered worst to best.
type FlightCategory int

const (
	CategoryUnknown FlightCategory = iota
	CategoryLIFR
	CategoryIFR
	CategoryMVFR
	CategoryVFR
)

// String returns the standard abbreviation for the category
func (c FlightCategory) String() string {
	switch c {
	case CategoryLIFR:
		return "LIFR"
	case CategoryIFR:
		return "IFR"
	case CategoryMVFR:
		return "MVFR"
	case CategoryVFR:
		return "VFR"
	default:
		return "UNKN"
	}
}

// ParseFlightCategory maps a reported category string (e.g. the fltCat field
// from aviationweather.gov) to a FlightCategory. Unrecognized input returns
// CategoryUnknown so the derived value is used instead.
func ParseFlightCategory(s string) FlightCategory {
	switch s {
	case "LIFR":
		return CategoryLIFR
	case "IFR":
		return CategoryIFR
	case "MVFR":
		return CategoryMVFR
	case "VFR":
		return CategoryVFR
	default:
		return CategoryUnknown
	}
}

// CloudCover is the coverage class of a single cloud layer
type CloudCover string

const (
	CoverFew         CloudCover = "FEW"
	CoverScattered   CloudCover = "SCT"
	CoverBroken      CloudCover = "BKN"
	CoverOvercast    CloudCover = "OVC"
	CoverVerticalVis CloudCover = "VV"
)

// CloudLayer is a single decoded cloud layer
type CloudLayer struct {
	Cover      CloudCover `json:"cover"`
	AltitudeFt int        `json:"altitude_ft"` // feet AGL
}

// IsCeiling reports whether this layer counts as a ceiling (BKN/OVC/VV)
func (l CloudLayer) IsCeiling() bool {
	return l.Cover == CoverBroken || l.Cover == CoverOvercast || l.Cover == CoverVerticalVis
}

// Wind is a decoded surface wind group
type Wind struct {
	DirectionDeg int  `json:"direction_deg"` // meaningless when Variable
	Variable     bool `json:"variable"`
	SpeedKt      int  `json:"speed_kt"`
	GustKt       int  `json:"gust_kt,omitempty"` // 0 when no gust reported
}

// Visibility is a decoded visibility value in statute miles. GreaterThan marks
// the "P6SM"/"9999" sentinel, which classifies as unlimited (>= 10 SM) but
// displays as "6+" or "10+" depending on context.
type Visibility struct {
	SM          float64 `json:"sm"`
	GreaterThan bool    `json:"greater_than"`
}

// ClassifySM returns the value used for flight category bucketing
func (v Visibility) ClassifySM() float64 {
	if v.GreaterThan {
		return 10
	}
	return v.SM
}

// PressureUnit identifies how an altimeter value was reported
type PressureUnit string

const (
	UnitInHg PressureUnit = "inHg"
	UnitHPa  PressureUnit = "hPa"
)

// Pressure is an altimeter setting with its reported unit
type Pressure struct {
	Value float64      `json:"value"`
	Unit  PressureUnit `json:"unit"`
}

// InHg returns the setting normalized to inches of mercury. The unit at the
// source is not always labeled, so values over 100 are assumed to be hPa.
// This is a magnitude heuristic, not a protocol guarantee.
func (p Pressure) InHg() float64 {
	if p.Value > 100 {
		return p.Value / 33.8639
	}
	return p.Value
}

// NormalizePressure builds a Pressure from an unlabeled numeric altimeter,
// guessing the unit by magnitude (values > 100 are hPa).
func NormalizePressure(value float64) Pressure {
	if value > 100 {
		return Pressure{Value: value, Unit: UnitHPa}
	}
	return Pressure{Value: value, Unit: UnitInHg}
}

// Row is a single decoded (label, value) pair for presentation
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Observation is a fully decoded METAR report. Pointer fields are nil when
// the report did not include the group; a missing field is "no data", never
// an error. CloudLayers is empty (non-nil) when the sky is reported clear,
// and nil when no sky condition group was present at all.
type Observation struct {
	StationID string    `json:"station_id"`
	Raw       string    `json:"raw"`
	Time      time.Time `json:"time"`

	Wind        *Wind        `json:"wind,omitempty"`
	Visibility  *Visibility  `json:"visibility,omitempty"`
	CloudLayers []CloudLayer `json:"cloud_layers"`
	SkyClear    bool         `json:"sky_clear"`
	Weather     string       `json:"weather,omitempty"` // decoded phenomena description
	WxCodes     []string     `json:"wx_codes,omitempty"`
	RVR         []string     `json:"rvr,omitempty"` // decoded runway visual range strings

	TemperatureC *float64  `json:"temperature_c,omitempty"`
	DewpointC    *float64  `json:"dewpoint_c,omitempty"`
	Altimeter    *Pressure `json:"altimeter,omitempty"`
	SeaLevelHPa  *float64  `json:"sea_level_hpa,omitempty"`

	FlightCategory FlightCategory `json:"flight_category"`
	Rows           []Row          `json:"rows"`
}

// Ceiling returns the altitude of the lowest broken/overcast/vertical
// visibility layer, or false when the observation has no ceiling.
func (o *Observation) Ceiling() (int, bool) {
	for _, l := range o.CloudLayers {
		if l.IsCeiling() {
			return l.AltitudeFt, true
		}
	}
	return 0, false
}
