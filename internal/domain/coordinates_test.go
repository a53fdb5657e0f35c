package domain

import (
	"errors"
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	cases := []struct {
		name string
		a, b Coordinates
		want float64
	}{
		{"same point", Coordinates{Lon: 72.87, Lat: 19.07}, Coordinates{Lon: 72.87, Lat: 19.07}, 0},
		{"one degree of latitude", Coordinates{Lon: 0, Lat: 0}, Coordinates{Lon: 0, Lat: 1}, 111194.93},
		{"one degree of longitude on equator", Coordinates{Lon: 0, Lat: 0}, Coordinates{Lon: 1, Lat: 0}, 111194.93},
		{"antipodal", Coordinates{Lon: 0, Lat: 0}, Coordinates{Lon: 180, Lat: 0}, math.Pi * EarthRadiusMeters},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := HaversineMeters(tc.a, tc.b)
			if math.Abs(got-tc.want) > 0.01 {
				t.Fatalf("distance = %f, want %f", got, tc.want)
			}
		})
	}
}

func TestHaversineMetersIsSymmetric(t *testing.T) {
	a := Coordinates{Lon: 77.5946, Lat: 12.9716}
	b := Coordinates{Lon: 77.6408, Lat: 12.9784}

	if ab, ba := HaversineMeters(a, b), HaversineMeters(b, a); math.Abs(ab-ba) > 1e-9 {
		t.Fatalf("asymmetric distance: %f vs %f", ab, ba)
	}
}

func TestCoordinatesValidate(t *testing.T) {
	valid := []Coordinates{
		{Lon: 0, Lat: 0},
		{Lon: -180, Lat: -90},
		{Lon: 180, Lat: 90},
	}
	for _, c := range valid {
		if err := c.Validate(); err != nil {
			t.Errorf("%s: unexpected error: %v", c, err)
		}
	}

	invalid := []struct {
		c     Coordinates
		field string
	}{
		{Coordinates{Lon: 180.01, Lat: 0}, "longitude"},
		{Coordinates{Lon: math.NaN(), Lat: 0}, "longitude"},
		{Coordinates{Lon: math.Inf(-1), Lat: 0}, "longitude"},
		{Coordinates{Lon: 0, Lat: -90.5}, "latitude"},
		{Coordinates{Lon: 0, Lat: math.Inf(1)}, "latitude"},
	}
	for _, tc := range invalid {
		err := tc.c.Validate()
		if !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("%s: expected ErrInvalidCoordinate, got %v", tc.c, err)
			continue
		}

		var ce *InvalidCoordinateError
		if !errors.As(err, &ce) || ce.Field != tc.field {
			t.Errorf("%s: field = %v, want %q", tc.c, ce, tc.field)
		}
	}
}
