package windsaloft

// Station is one site in the FB winds-and-temperatures-aloft network
type Station struct {
	Code string
	Lat  float64
	Lon  float64
}

// Stations is the fixed continental-US FB network site list used for
// nearest-station fallback when a requested site has no data line.
var Stations = []Station{
	{"BOS", 42.3656, -71.0096},
	{"JFK", 40.6413, -73.7781},
	{"BDL", 41.9389, -72.6832},
	{"ALB", 42.7483, -73.8017},
	{"BUF", 42.9405, -78.7322},
	{"PIT", 40.4915, -80.2329},
	{"DCA", 38.8521, -77.0377},
	{"RDU", 35.8776, -78.7875},
	{"CLT", 35.2140, -80.9431},
	{"ATL", 33.6407, -84.4277},
	{"JAX", 30.4941, -81.6879},
	{"MIA", 25.7959, -80.2870},
	{"TPA", 27.9755, -82.5332},
	{"MSY", 29.9934, -90.2580},
	{"MEM", 35.0424, -89.9767},
	{"BNA", 36.1263, -86.6774},
	{"SDF", 38.1740, -85.7364},
	{"IND", 39.7173, -86.2944},
	{"ORD", 41.9742, -87.9073},
	{"MSP", 44.8848, -93.2223},
	{"DSM", 41.5341, -93.6631},
	{"MCI", 39.2976, -94.7139},
	{"STL", 38.7500, -90.3700},
	{"OKC", 35.3931, -97.6007},
	{"DFW", 32.8998, -97.0403},
	{"IAH", 29.9902, -95.3368},
	{"SAT", 29.5312, -98.4683},
	{"DEN", 39.8561, -104.6737},
	{"ABQ", 35.0402, -106.6090},
	{"ELP", 31.8072, -106.3776},
	{"PHX", 33.4343, -112.0116},
	{"SLC", 40.7899, -111.9791},
	{"BOI", 43.5644, -116.2228},
	{"LAS", 36.0840, -115.1537},
	{"LAX", 33.9416, -118.4085},
	{"SFO", 37.6213, -122.3790},
	{"PDX", 45.5898, -122.5951},
	{"SEA", 47.4502, -122.3088},
	{"GEG", 47.6199, -117.5339},
	{"BIL", 45.8077, -108.5429},
	{"FAR", 46.9207, -96.8158},
}
