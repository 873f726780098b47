package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	if d := Distance(50.0755, 14.4378, 50.0755, 14.4378); d != 0 {
		t.Errorf("same point distance = %g", d)
	}
	// one degree of latitude is about 111.2 km
	d := Distance(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Errorf("one degree = %g m", d)
	}
	// across the antimeridian
	d = Distance(0, 179.9, 0, -179.9)
	if math.Abs(d-22239) > 50 {
		t.Errorf("antimeridian distance = %g m", d)
	}
}
