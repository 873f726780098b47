// Package geo plans bounding boxes around a point and measures distances on the sphere.
package geo

import "fmt"

const (
	MinLon = -180.0
	MaxLon = 180.0
	MinLat = -90.0
	MaxLat = 90.0
)

// BoundingBox is a rectangular region in degrees that never crosses the antimeridian.
type BoundingBox struct {
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
}

// Contains reports whether the point lies inside the box, bounds included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.LonMin && lon <= b.LonMax && lat >= b.LatMin && lat <= b.LatMax
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%g,%g]x[%g,%g]", b.LonMin, b.LonMax, b.LatMin, b.LatMax)
}

// Plan returns the boxes covering [lon-delta, lon+delta] x [lat-delta, lat+delta].
// Latitude is clamped to [-90, 90]. A longitude range wrapping past ±180 is split into
// two boxes at the meridian, box A first. A delta of 180 or more covers every longitude
// and yields a single [-180, 180] box.
func Plan(lon, lat, delta float64) []BoundingBox {
	latMin := clamp(lat-delta, MinLat, MaxLat)
	latMax := clamp(lat+delta, MinLat, MaxLat)

	if delta >= MaxLon {
		return []BoundingBox{{LonMin: MinLon, LonMax: MaxLon, LatMin: latMin, LatMax: latMax}}
	}

	lonMin := lon - delta
	lonMax := lon + delta
	switch {
	case lonMin < MinLon:
		return []BoundingBox{
			{LonMin: lonMin + 360, LonMax: MaxLon, LatMin: latMin, LatMax: latMax},
			{LonMin: MinLon, LonMax: lonMax, LatMin: latMin, LatMax: latMax},
		}
	case lonMax > MaxLon:
		return []BoundingBox{
			{LonMin: lonMin, LonMax: MaxLon, LatMin: latMin, LatMax: latMax},
			{LonMin: MinLon, LonMax: lonMax - 360, LatMin: latMin, LatMax: latMax},
		}
	default:
		return []BoundingBox{{LonMin: lonMin, LonMax: lonMax, LatMin: latMin, LatMax: latMax}}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
