// wxdecode is a terminal decoder for METAR and TAF reports. It accepts raw
// report text on stdin or fetches by station ident.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/skyhawk-aero/wxbrief/internal/metar"
	"github.com/skyhawk-aero/wxbrief/internal/taf"
	"github.com/skyhawk-aero/wxbrief/internal/weather"
	"github.com/skyhawk-aero/wxbrief/pkg/logger"
)

var (
	labelColor   = color.New(color.FgCyan)
	sectionColor = color.New(color.FgBlue, color.Bold)
	rawColor     = color.New(color.Faint)

	vfrColor  = color.New(color.FgGreen)
	mvfrColor = color.New(color.FgBlue)
	ifrColor  = color.New(color.FgRed)
	lifrColor = color.New(color.FgMagenta)
)

func main() {
	metarOnly := flag.Bool("metar", false, "Show only METAR")
	tafOnly := flag.Bool("taf", false, "Show only TAF")
	noRaw := flag.Bool("no-raw", false, "Hide raw data")
	noColor := flag.Bool("no-color", false, "Disable color output")
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	// Piped raw text decodes directly, no fetch
	if raw, ok := readFromStdin(); ok {
		decodeRaw(raw, *noRaw)
		return
	}

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: wxdecode [flags] <station>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	station := strings.ToUpper(strings.TrimSpace(flag.Arg(0)))

	log := logger.NewNop()
	client := weather.NewClient(weather.DefaultClientConfig(), log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if !*tafOnly {
		raw, err := client.Fetch(ctx, weather.KindMETAR, station)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching METAR for %s: %v\n", station, err)
		} else {
			printObservation(metar.DecodeObservation(raw), *noRaw)
		}
	}

	if !*metarOnly {
		raw, err := client.Fetch(ctx, weather.KindTAF, station)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching TAF for %s: %v\n", station, err)
		} else {
			if !*tafOnly {
				fmt.Println()
			}
			printForecast(taf.Decode(raw), *noRaw)
		}
	}
}

// readFromStdin returns piped input, if any
func readFromStdin() (string, bool) {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return "", false
	}

	var sb strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	raw := strings.TrimSpace(sb.String())
	return raw, raw != ""
}

// decodeRaw decides whether piped text is a TAF or a METAR and decodes it
func decodeRaw(raw string, noRaw bool) {
	if strings.HasPrefix(raw, "TAF") || strings.Contains(raw, " FM") {
		printForecast(taf.Decode(raw), noRaw)
		return
	}
	printObservation(metar.DecodeObservation(raw), noRaw)
}

func printObservation(obs *metar.Observation, noRaw bool) {
	sectionColor.Printf("METAR %s\n", obs.StationID)
	if !noRaw {
		rawColor.Println(obs.Raw)
	}
	if !obs.Time.IsZero() {
		printRow("Time", obs.Time.Format("Mon Jan 2 15:04 UTC"))
	}
	for _, row := range obs.Rows {
		printRow(row.Label, row.Value)
	}
	printRow("Flight category", colorCategory(obs.FlightCategory))
}

func printForecast(fc *taf.Forecast, noRaw bool) {
	sectionColor.Printf("TAF %s\n", fc.StationID)
	if !noRaw {
		rawColor.Println(fc.Raw)
	}
	for _, seg := range fc.Segments {
		fmt.Println()
		sectionColor.Printf("  %s\n", seg.Label)
		for _, row := range seg.Rows {
			fmt.Print("  ")
			printRow(row.Label, row.Value)
		}
		fmt.Print("  ")
		printRow("Conditions", fmt.Sprintf("%s (%s)", seg.Condition.Summary, colorCategory(seg.Category)))
	}
}

func printRow(label, value string) {
	labelColor.Printf("  %-18s", label+":")
	fmt.Println(value)
}

func colorCategory(cat metar.FlightCategory) string {
	s := cat.String()
	switch cat {
	case metar.CategoryVFR:
		return vfrColor.Sprint(s)
	case metar.CategoryMVFR:
		return mvfrColor.Sprint(s)
	case metar.CategoryIFR:
		return ifrColor.Sprint(s)
	case metar.CategoryLIFR:
		return lifrColor.Sprint(s)
	default:
		return s
	}
}
