package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skyhawk-aero/wxbrief/internal/metar"
	"github.com/skyhawk-aero/wxbrief/internal/weather"
)

// Unit preferences are honored at format time only: the decoded values in a
// bundle stay in their native units and the preferences add display strings.

// FormatTemperature renders a Celsius value in the requested unit
func FormatTemperature(tempC float64, unit string) string {
	if strings.EqualFold(unit, "f") {
		return fmt.Sprintf("%.0f°F", tempC*9/5+32)
	}
	return fmt.Sprintf("%.0f°C", tempC)
}

// FormatAltimeter renders an altimeter setting in the requested unit
func FormatAltimeter(p metar.Pressure, unit string) string {
	inHg := p.InHg()
	if strings.EqualFold(unit, "hpa") {
		return fmt.Sprintf("%.0f hPa", inHg*33.8639)
	}
	return fmt.Sprintf("%.2f inHg", inHg)
}

// applyUnitPreferences fills the bundle's display strings from the request's
// temp and pressure query parameters.
func applyUnitPreferences(bundle *weather.Bundle, r *http.Request) {
	if bundle.METAR == nil {
		return
	}

	tempUnit := r.URL.Query().Get("temp")
	pressureUnit := r.URL.Query().Get("pressure")
	if tempUnit == "" && pressureUnit == "" {
		return
	}

	display := make(map[string]string)
	obs := bundle.METAR
	if obs.TemperatureC != nil {
		display["temperature"] = FormatTemperature(*obs.TemperatureC, tempUnit)
	}
	if obs.DewpointC != nil {
		display["dewpoint"] = FormatTemperature(*obs.DewpointC, tempUnit)
	}
	if obs.Altimeter != nil {
		display["altimeter"] = FormatAltimeter(*obs.Altimeter, pressureUnit)
	}
	if len(display) > 0 {
		bundle.Display = display
	}
}
