package metar

import (
	"regexp"
	"strings"
)

// TokenKind classifies a whitespace-delimited report group by its shape
type TokenKind int

const (
	KindIgnored TokenKind = iota
	KindWind
	KindRVR
	KindCloud
	KindVertVis
	KindVisibility
	KindWeather
	KindTempDew
	KindAltimeter
	KindRemarks // the RMK marker itself
)

// Token is a single classified report group
type Token struct {
	Text string
	Kind TokenKind
}

// Classification patterns. Order matters: the rule list below is tried
// top-down so groups with overlapping prefixes resolve deterministically
// (e.g. VV before a bare 4-digit visibility, clouds before weather codes).
var (
	windRe      = regexp.MustCompile(`^(VRB|\d{3})(\d{2,3})(G(\d{2,3}))?KT$`)
	rvrRe       = regexp.MustCompile(`^R(\d{2})([LRC])?/([PM])?(\d+)(V([PM])?(\d+))?FT$`)
	cloudRe     = regexp.MustCompile(`^(FEW|SCT|BKN|OVC)(\d{3})(CB|TCU)?$`)
	clearRe     = regexp.MustCompile(`^(SKC|CLR|CAVOK)$`)
	vertVisRe   = regexp.MustCompile(`^VV(\d{3})$`)
	visSMRe     = regexp.MustCompile(`^([PM])?(\d+)(/(\d+))?SM$`)
	visMixedRe  = regexp.MustCompile(`^(\d{1,2}) (\d)/(\d{1,2})SM$`)
	visWholeRe  = regexp.MustCompile(`^\d{1,2}$`)
	visFracRe   = regexp.MustCompile(`^\d/\d{1,2}SM$`)
	visMetersRe = regexp.MustCompile(`^\d{4}$`)
	tempDewRe   = regexp.MustCompile(`^(M)?(\d{2})/(M)?(\d{2})$`)
	altimeterRe = regexp.MustCompile(`^[AQ](\d{4})$`)
	weatherRe   = regexp.MustCompile(`^(-|\+|VC)?([A-Z]{2,8})$`)

	stationRe  = regexp.MustCompile(`^[A-Z]{4}$`)
	validityRe = regexp.MustCompile(`^\d{4}/\d{4}$`) // 9-char TAF validity window
	obsTimeRe  = regexp.MustCompile(`^\d{6}Z$`)
)

// Tokenize splits a raw report into classified groups. Embedded newlines are
// normalized to spaces and repeated whitespace collapses, so multi-line TAF
// text tokenizes the same as a single-line report. Tokenize is total: a group
// that matches no rule classifies as KindIgnored rather than failing.
func Tokenize(raw string) []Token {
	normalized := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(raw)
	fields := strings.Fields(normalized)

	tokens := make([]Token, 0, len(fields))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		// Mixed-number visibility ("1 1/2SM") spans two groups
		if i+1 < len(fields) && visWholeRe.MatchString(f) && visFracRe.MatchString(fields[i+1]) {
			tokens = append(tokens, Token{Text: f + " " + fields[i+1], Kind: KindVisibility})
			i++
			continue
		}
		tokens = append(tokens, Token{Text: f, Kind: classify(f)})
	}
	return tokens
}

func classify(s string) TokenKind {
	switch {
	case s == "RMK":
		return KindRemarks
	case windRe.MatchString(s):
		return KindWind
	case rvrRe.MatchString(s):
		return KindRVR
	case cloudRe.MatchString(s) || clearRe.MatchString(s):
		return KindCloud
	case vertVisRe.MatchString(s):
		return KindVertVis
	case visSMRe.MatchString(s) || s == "9999":
		return KindVisibility
	case tempDewRe.MatchString(s):
		return KindTempDew
	case altimeterRe.MatchString(s):
		return KindAltimeter
	// Station idents and TAF validity windows carry no decodable weather
	case stationRe.MatchString(s) && !isWeatherToken(s):
		return KindIgnored
	case validityRe.MatchString(s):
		return KindIgnored
	case obsTimeRe.MatchString(s):
		return KindIgnored
	// Bare 4-digit groups that survived the rules above are meters visibility
	case visMetersRe.MatchString(s):
		return KindVisibility
	case isWeatherToken(s):
		return KindWeather
	default:
		return KindIgnored
	}
}

// isWeatherToken reports whether s decomposes entirely into known phenomenon
// codes after stripping an optional intensity prefix.
func isWeatherToken(s string) bool {
	m := weatherRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	_, ok := decomposeWxCodes(m[2])
	return ok
}
