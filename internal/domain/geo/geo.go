// Package geo is a static gazetteer of Vietnamese cities with coordinates,
// regions, and cultural metadata. It is loaded once at startup and never
// mutated; all operations are read-only.
package geo

import "math"

// EarthRadiusKM is the mean radius of Earth used for Haversine distance.
const EarthRadiusKM = 6371.0

// NearbyThresholdKM bounds the "nearby places" list and anchors the linear
// relevance decay: relevance = max(0, 1 - distance/threshold).
const NearbyThresholdKM = 50.0

// Place is one gazetteer entry. A place belongs to exactly one region.
type Place struct {
	Name          string
	Key           string // normalized snake-ish key, unique
	Lon           float64
	Lat           float64
	Region        string
	CulturalTags  []string
	EconomicLevel string
}

// NearbyPlace pairs a place with its distance from a context's primary place.
type NearbyPlace struct {
	Place      Place
	DistanceKM float64
	Relevance  float64
}

// Context is the geographic context built for a resolved location.
type Context struct {
	Primary       Place
	Nearby        []NearbyPlace // ascending by distance
	Relevance     map[string]float64
	CulturalTags  []string
	EconomicLevel string
}

// Haversine returns the great-circle distance in kilometers between two
// (lon, lat) pairs given in degrees.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKM * c
}

// Distance returns the great-circle distance between two places in kilometers.
func Distance(a, b Place) float64 {
	return Haversine(a.Lon, a.Lat, b.Lon, b.Lat)
}
