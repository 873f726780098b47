package geo

import "github.com/golang/geo/s2"

// EarthRadiusMeters is the mean earth radius used for all distances.
const EarthRadiusMeters = 6371008.8

// Distance returns the great circle distance in meters between two points.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lon1)
	b := s2.LatLngFromDegrees(lat2, lon2)
	return a.Distance(b).Radians() * EarthRadiusMeters
}
