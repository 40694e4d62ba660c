package globeengine

// countryCentroids holds approximate population-weighted centroids.
var countryCentroids = map[string][2]float64{
	"US": {39.8, -98.6}, "CA": {56.1, -106.3}, "MX": {23.6, -102.5},
	"BR": {-14.2, -51.9}, "AR": {-38.4, -63.6}, "CL": {-35.7, -71.5},
	"CO": {4.6, -74.3}, "PE": {-9.2, -75.0}, "VE": {6.4, -66.6},
	"GB": {54.0, -2.0}, "IE": {53.4, -8.2}, "FR": {46.2, 2.2},
	"DE": {51.2, 10.5}, "ES": {40.5, -3.7}, "PT": {39.4, -8.2},
	"IT": {41.9, 12.6}, "NL": {52.1, 5.3}, "BE": {50.5, 4.5},
	"CH": {46.8, 8.2}, "AT": {47.5, 14.6}, "PL": {51.9, 19.1},
	"SE": {60.1, 18.6}, "NO": {60.5, 8.5}, "FI": {61.9, 25.7},
	"DK": {56.3, 9.5}, "UA": {48.4, 31.2}, "RU": {55.8, 37.6},
	"TR": {39.0, 35.2}, "GR": {39.1, 21.8}, "EG": {26.8, 30.8},
	"NG": {9.1, 8.7}, "KE": {-0.0, 37.9}, "ZA": {-30.6, 22.9},
	"MA": {31.8, -7.1}, "IN": {20.6, 79.0}, "PK": {30.4, 69.3},
	"CN": {35.9, 104.2}, "JP": {36.2, 138.3}, "KR": {35.9, 127.8},
	"ID": {-0.8, 113.9}, "PH": {12.9, 121.8}, "VN": {14.1, 108.3},
	"TH": {15.9, 100.9}, "MY": {4.2, 101.98}, "AU": {-25.3, 133.8},
	"AE": {23.4, 53.8}, "SA": {23.9, 45.1}, "GH": {7.9, -1.0},
	"ET": {9.1, 40.5}, "BD": {23.7, 90.4}, "RO": {45.9, 24.97},
	"CZ": {49.8, 15.5}, "HU": {47.2, 19.5},
}
