package geo

import (
	"encoding/json"
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMetersSymmetricAndZero(t *testing.T) {
	pairs := [][2]Point{
		{{Lat: 34.000, Lng: -81.030}, {Lat: 34.001, Lng: -81.031}},
		{{Lat: -33.86, Lng: 151.21}, {Lat: 51.5, Lng: -0.12}},
		{{Lat: 0, Lng: 179.9}, {Lat: 0, Lng: -179.9}},
		{{Lat: 89.9, Lng: 0}, {Lat: -89.9, Lng: 180}},
	}
	for _, p := range pairs {
		ab := DistanceMeters(p[0], p[1])
		ba := DistanceMeters(p[1], p[0])
		if ab != ba {
			t.Fatalf("distance not symmetric for %v: %v vs %v", p, ab, ba)
		}
		if ab < 0 {
			t.Fatalf("negative distance for %v", p)
		}
		if d := DistanceMeters(p[0], p[0]); d != 0 {
			t.Fatalf("expected zero distance to self, got %v", d)
		}
	}
}

func TestDistanceMetersCampusStep(t *testing.T) {
	d := DistanceMeters(Point{Lat: 34.000, Lng: -81.030}, Point{Lat: 34.001, Lng: -81.031})
	if math.Abs(d-144) > 15 {
		t.Fatalf("unexpected campus step distance: %v", d)
	}
}

func TestPathMeters(t *testing.T) {
	a := Point{Lat: 34.000, Lng: -81.030}
	b := Point{Lat: 34.001, Lng: -81.031}
	c := Point{Lat: 34.002, Lng: -81.030}

	want := DistanceMeters(a, b) + DistanceMeters(b, c)
	if got := PathMeters([]Point{a, b, c}); got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if PathMeters(nil) != 0 || PathMeters([]Point{a}) != 0 {
		t.Fatalf("expected zero for short paths")
	}
}

func TestMetersToMiles(t *testing.T) {
	if got := MetersToMiles(1609.344); got != 1 {
		t.Fatalf("expected 1 mile, got %v", got)
	}
}

func TestLineString(t *testing.T) {
	feature := LineString([]Point{{Lat: 34, Lng: -81}, {Lat: 35, Lng: -82}})
	raw, err := json.Marshal(feature)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded struct {
		Geometry struct {
			Type        string       `json:"type"`
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Geometry.Type != "LineString" {
		t.Fatalf("unexpected geometry type %q", decoded.Geometry.Type)
	}
	if len(decoded.Geometry.Coordinates) != 2 || decoded.Geometry.Coordinates[0] != [2]float64{-81, 34} {
		t.Fatalf("unexpected coordinates: %v", decoded.Geometry.Coordinates)
	}
}
