package analysis

import (
	"math"
	"testing"
)

func TestHaversineSamePoint(t *testing.T) {
	if d := Haversine(-34.6037, -58.3816, -34.6037, -58.3816); d != 0 {
		t.Errorf("distance to self: got %.4f, want 0", d)
	}
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(-34.6037, -58.3816, -34.5889, -58.4306)
	b := Haversine(-34.5889, -58.4306, -34.6037, -58.3816)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("asymmetric distance: %.6f vs %.6f", a, b)
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// One thousandth of a degree of latitude is about 111.2 meters.
	d := Haversine(-34.6037, -58.3816, -34.6027, -58.3816)
	if math.Abs(d-111.2) > 1.0 {
		t.Errorf("distance: got %.2f m, want ~111.2 m", d)
	}
}
