package directions

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"backend-colatrails/internal/transport"

	"googlemaps.github.io/maps"
)

const directionsBody = `{
  "status": "OK",
  "geocoded_waypoints": [],
  "routes": [{
    "summary": "Greene St",
    "bounds": {
      "northeast": {"lat": 34.0, "lng": -81.02},
      "southwest": {"lat": 33.99, "lng": -81.03}
    },
    "overview_polyline": {"points": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"},
    "legs": [{
      "distance": {"text": "0.8 mi", "value": 1287},
      "duration": {"text": "19 mins", "value": 1140},
      "start_location": {"lat": 33.996, "lng": -81.027},
      "end_location": {"lat": 34.0, "lng": -81.03},
      "steps": []
    }]
  }]
}`

const geocodeBody = `{
  "status": "OK",
  "results": [{
    "formatted_address": "Columbia, SC, USA",
    "geometry": {"location": {"lat": 34.0007, "lng": -81.0348}}
  }]
}`

func newTestGoogle(t *testing.T) (*GoogleProvider, *[]string) {
	t.Helper()
	var modes []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "geocode") {
			_, _ = w.Write([]byte(geocodeBody))
			return
		}
		modes = append(modes, r.URL.Query().Get("mode"))
		_, _ = w.Write([]byte(directionsBody))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGoogleProvider("test-key", maps.WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return g, &modes
}

func TestGoogleProviderRoute(t *testing.T) {
	g, modes := newTestGoogle(t)

	res, err := g.Route(context.Background(), Request{Origin: "a", Destination: "b", Mode: transport.ProviderBike})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if res.DistanceText != "0.8 mi" || res.DistanceMeters != 1287 || res.DurationSeconds != 1140 {
		t.Fatalf("unexpected leg values: %+v", res)
	}
	if len(res.Path) != 3 || math.Abs(res.Path[0].Lat-38.5) > 1e-6 || math.Abs(res.Path[0].Lng+120.2) > 1e-6 {
		t.Fatalf("unexpected decoded path: %+v", res.Path)
	}
	if res.Bounds.NorthEast.Lat != 34.0 || res.StartLocation.Lng != -81.027 {
		t.Fatalf("unexpected bounds/start: %+v", res)
	}
	if len(*modes) != 1 || (*modes)[0] != "bicycling" {
		t.Fatalf("unexpected travel mode: %v", *modes)
	}
}

func TestGoogleProviderGeocode(t *testing.T) {
	g, _ := newTestGoogle(t)

	p, err := g.Geocode(context.Background(), "Columbia, SC")
	if err != nil {
		t.Fatalf("geocode: %v", err)
	}
	if p.Lat != 34.0007 || p.Lng != -81.0348 {
		t.Fatalf("unexpected point %+v", p)
	}
}

func TestTravelMode(t *testing.T) {
	if travelMode(transport.ProviderDrive) != maps.TravelModeDriving ||
		travelMode(transport.ProviderBike) != maps.TravelModeBicycling ||
		travelMode(transport.ProviderWalk) != maps.TravelModeWalking {
		t.Fatalf("unexpected travel mode mapping")
	}
}
