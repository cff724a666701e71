package directions

import (
	"context"
	"fmt"

	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"

	"googlemaps.github.io/maps"
)

// GoogleProvider routes and geocodes through the Google Maps web services.
type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(apiKey string, opts ...maps.ClientOption) (*GoogleProvider, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{client: client}, nil
}

func (g *GoogleProvider) Route(ctx context.Context, req Request) (Result, error) {
	routes, _, err := g.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      req.Origin,
		Destination: req.Destination,
		Mode:        travelMode(req.Mode),
	})
	if err != nil {
		return Result{}, err
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return Result{}, ErrNoRoute
	}

	route := routes[0]
	leg := route.Legs[0]
	decoded, err := route.OverviewPolyline.Decode()
	if err != nil {
		return Result{}, fmt.Errorf("decode polyline: %w", err)
	}

	path := make([]geo.Point, 0, len(decoded))
	for _, ll := range decoded {
		path = append(path, toPoint(ll))
	}

	return Result{
		DistanceText:    leg.Distance.HumanReadable,
		DistanceMeters:  float64(leg.Distance.Meters),
		DurationSeconds: leg.Duration.Seconds(),
		StartLocation:   toPoint(leg.StartLocation),
		Path:            path,
		Bounds: Bounds{
			NorthEast: toPoint(route.Bounds.NorthEast),
			SouthWest: toPoint(route.Bounds.SouthWest),
		},
	}, nil
}

func (g *GoogleProvider) Geocode(ctx context.Context, address string) (geo.Point, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return geo.Point{}, err
	}
	if len(results) == 0 {
		return geo.Point{}, ErrAddressUnknown
	}
	return toPoint(results[0].Geometry.Location), nil
}

func travelMode(m transport.ProviderMode) maps.Mode {
	switch m {
	case transport.ProviderDrive:
		return maps.TravelModeDriving
	case transport.ProviderBike:
		return maps.TravelModeBicycling
	default:
		return maps.TravelModeWalking
	}
}

func toPoint(ll maps.LatLng) geo.Point {
	return geo.Point{Lat: ll.Lat, Lng: ll.Lng}
}
