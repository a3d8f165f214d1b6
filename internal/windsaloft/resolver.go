package windsaloft

import "math"

// earthRadiusNM is the mean Earth radius in nautical miles
const earthRadiusNM = 3440.065

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Haversine returns the great-circle distance between two points in
// nautical miles.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := degToRad(lat1)
	phi2 := degToRad(lat2)
	dPhi := degToRad(lat2 - lat1)
	dLambda := degToRad(lon2 - lon1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusNM * c
}

// SiteForICAO maps an ICAO ident to the site code used in FB report lines.
// US ICAO idents drop the leading K; others keep their full ident and rely
// on the nearest-site fallback.
func SiteForICAO(icao string) string {
	if len(icao) == 4 && icao[0] == 'K' {
		return icao[1:]
	}
	return icao
}

// Nearest returns the station from the given set closest to the target by
// great-circle distance. Ties resolve to the earlier station in input order.
// The boolean is false only for an empty station set.
func Nearest(lat, lon float64, stations []Station) (Station, bool) {
	if len(stations) == 0 {
		return Station{}, false
	}
	best := stations[0]
	bestDist := Haversine(lat, lon, best.Lat, best.Lon)
	for _, s := range stations[1:] {
		if d := Haversine(lat, lon, s.Lat, s.Lon); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best, true
}
