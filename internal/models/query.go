package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Caller-facing validation messages.
const (
	MsgNotNumeric       = "Longitude and latitude must be numeric."
	MsgInvalidLongitude = "Invalid longitude."
	MsgInvalidLatitude  = "Invalid latitude."
)

// ValidationError is returned for input that must never reach the search core.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ReverseQuery is a validated reverse geocoding request.
type ReverseQuery struct {
	Lon     float64  `json:"lon"`
	Lat     float64  `json:"lat"`
	Classes []string `json:"classes,omitempty"`
	Debug   bool     `json:"debug,omitempty"`
}

// Validate checks coordinate ranges and drops empty class filters.
func (q *ReverseQuery) Validate() error {
	if q.Lon < -180.0 || q.Lon > 180.0 {
		return &ValidationError{Message: MsgInvalidLongitude}
	}
	if q.Lat < -90.0 || q.Lat > 90.0 {
		return &ValidationError{Message: MsgInvalidLatitude}
	}
	classes := q.Classes[:0]
	for _, c := range q.Classes {
		if c = strings.TrimSpace(c); c != "" {
			classes = append(classes, c)
		}
	}
	q.Classes = classes
	return nil
}

// String returns a short description used in logs.
func (q *ReverseQuery) String() string {
	return fmt.Sprintf("lon=%g lat=%g classes=%v debug=%t", q.Lon, q.Lat, q.Classes, q.Debug)
}

// ParseReverseQuery parses textual coordinates and a comma separated class list
// into a validated ReverseQuery.
func ParseReverseQuery(lonText, latText, classes string, debug bool) (*ReverseQuery, error) {
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(lonText), 64)
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(latText), 64)
	if errLon != nil || errLat != nil || !finite(lon) || !finite(lat) {
		return nil, &ValidationError{Message: MsgNotNumeric}
	}
	q := &ReverseQuery{Lon: lon, Lat: lat, Classes: ParseClasses(classes), Debug: debug}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// ParseClasses splits a comma separated class list, dropping blanks.
func ParseClasses(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, c := range strings.Split(s, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
