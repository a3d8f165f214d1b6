// Package taf splits Terminal Aerodrome Forecasts into change-group segments
// and decodes each segment with the shared METAR element vocabulary.
package taf

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/skyhawk-aero/wxbrief/internal/metar"
)

// SegmentKind identifies the change-group header that opened a segment
type SegmentKind string

const (
	KindInitial     SegmentKind = "initial"
	KindFrom        SegmentKind = "from"
	KindTemporary   SegmentKind = "temporary"
	KindBecoming    SegmentKind = "becoming"
	KindProbability SegmentKind = "probability"
)

// Segment is one forecast period: a header, the raw text that accumulated
// under it, the decoded rows for that text, and the period's own condition
// classification.
type Segment struct {
	Kind      SegmentKind          `json:"kind"`
	Label     string               `json:"label"`
	Raw       string               `json:"raw"`
	Rows      []metar.Row          `json:"rows"`
	Condition Condition            `json:"condition"`
	Category  metar.FlightCategory `json:"category"`
}

// Forecast is a fully segmented TAF
type Forecast struct {
	StationID string    `json:"station_id"`
	Raw       string    `json:"raw"`
	IssuedAt  time.Time `json:"issued_at"`
	Segments  []Segment `json:"segments"`
}

// headerRe matches every change-group opener the segmenter recognizes:
// the TAF+station preamble, FM timestamps, TEMPO/BECMG windows, and
// PROBnn windows.
var headerRe = regexp.MustCompile(
	`TAF(?: AMD| COR)? [A-Z]{4}|FM\d{6}|TEMPO \d{4}/\d{4}|BECMG \d{4}/\d{4}|PROB\d{2} \d{4}/\d{4}`)

var (
	fmRe      = regexp.MustCompile(`^FM(\d{6})$`)
	probRe    = regexp.MustCompile(`^PROB(\d{2})`)
	issueRe   = regexp.MustCompile(`\b(\d{6})Z\b`)
	stationRe = regexp.MustCompile(`\b([A-Z]{4})\b`)
)

// Decode segments a raw TAF and decodes each segment. Text between two
// headers always attaches to the earlier header's segment, so a period with
// no explicit change-group token folds into its predecessor instead of being
// dropped. A TAF with no recognizable header at all becomes a single
// "Forecast" segment.
func Decode(raw string) *Forecast {
	normalized := strings.Join(strings.Fields(raw), " ")
	f := &Forecast{Raw: normalized}

	if m := stationRe.FindStringSubmatch(normalized); m != nil {
		f.StationID = m[1]
	}
	if m := issueRe.FindStringSubmatch(normalized); m != nil {
		f.IssuedAt = parseIssueTime(m[1])
	}

	matches := headerRe.FindAllStringIndex(normalized, -1)
	if len(matches) == 0 {
		seg := buildSegment(KindInitial, "Forecast", normalized)
		f.Segments = []Segment{seg}
		return f
	}

	// Leading text with no header is normally just the station/validity
	// preamble and is dropped, but when it decodes to real rows (a TAF
	// issued without the TAF keyword) it forms the initial segment.
	if lead := strings.TrimSpace(normalized[:matches[0][0]]); lead != "" {
		seg := buildSegment(KindInitial, "Initial Forecast", lead)
		if len(seg.Rows) > 0 {
			f.Segments = append(f.Segments, seg)
		}
	}

	for i, loc := range matches {
		header := normalized[loc[0]:loc[1]]
		end := len(normalized)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(normalized[loc[1]:end])

		kind, label := classifyHeader(header)
		seg := buildSegment(kind, label, strings.TrimSpace(header+" "+body))
		f.Segments = append(f.Segments, seg)
	}
	return f
}

func classifyHeader(header string) (SegmentKind, string) {
	first := strings.Fields(header)[0]
	switch {
	case first == "TAF":
		return KindInitial, "Initial Forecast"
	case fmRe.MatchString(first):
		ts := fmRe.FindStringSubmatch(first)[1]
		return KindFrom, fmt.Sprintf("From %s00Z", ts[2:4])
	case first == "TEMPO":
		return KindTemporary, "Temporary"
	case first == "BECMG":
		return KindBecoming, "Becoming"
	case probRe.MatchString(first):
		nn := probRe.FindStringSubmatch(first)[1]
		return KindProbability, fmt.Sprintf("Probability %s%%", nn)
	default:
		return KindInitial, "Forecast"
	}
}

// buildSegment decodes a segment body into rows (wind, visibility, clouds,
// weather only) and classifies its conditions from the raw text.
func buildSegment(kind SegmentKind, label, raw string) Segment {
	seg := Segment{Kind: kind, Label: label, Raw: raw}

	skyClear := false
	var layers []metar.CloudLayer
	for _, tok := range metar.Tokenize(raw) {
		if tok.Kind == metar.KindRemarks {
			break
		}
		switch tok.Kind {
		case metar.KindWind:
			if w, ok := metar.DecodeWind(tok); ok {
				seg.Rows = append(seg.Rows, metar.Row{Label: "Wind", Value: metar.FormatWind(w)})
			}
		case metar.KindVisibility:
			if v, ok := metar.DecodeVisibility(tok); ok {
				seg.Rows = append(seg.Rows, metar.Row{Label: "Visibility", Value: metar.FormatVisibility(v, false)})
			}
		case metar.KindCloud, metar.KindVertVis:
			if skyClear {
				continue
			}
			layer, clear, ok := metar.DecodeCloud(tok)
			if !ok {
				continue
			}
			if clear {
				skyClear = true
				layers = nil
				continue
			}
			layers = append(layers, *layer)
		case metar.KindWeather:
			if desc, ok := metar.DecodeWeather(tok); ok {
				seg.Rows = append(seg.Rows, metar.Row{Label: "Weather", Value: desc})
			}
		}
	}

	if skyClear {
		seg.Rows = append(seg.Rows, metar.Row{Label: "Sky", Value: "Clear"})
	}
	for _, l := range layers {
		seg.Rows = append(seg.Rows, metar.Row{Label: "Clouds", Value: metar.FormatCloudLayer(l)})
	}

	seg.Condition = Classify(raw)
	seg.Category = seg.Condition.Category
	return seg
}

// parseIssueTime interprets a ddhhmmZ issue group against the current month
func parseIssueTime(s string) time.Time {
	day := int(s[0]-'0')*10 + int(s[1]-'0')
	hour := int(s[2]-'0')*10 + int(s[3]-'0')
	minute := int(s[4]-'0')*10 + int(s[5]-'0')
	if day < 1 || day > 31 || hour > 23 || minute > 59 {
		return time.Time{}
	}
	now := time.Now().UTC()
	t := time.Date(now.Year(), now.Month(), day, hour, minute, 0, 0, time.UTC)
	if now.Day() < day {
		t = t.AddDate(0, -1, 0)
	}
	return t
}
