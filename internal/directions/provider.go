package directions

import (
	"context"
	"errors"

	"backend-colatrails/internal/shared/geo"
)

var (
	ErrNoRoute        = errors.New("no route found")
	ErrNotConfigured  = errors.New("directions provider not configured")
	ErrAddressUnknown = errors.New("address not found")
)

type Provider interface {
	Route(ctx context.Context, req Request) (Result, error)
}

type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, error)
}

// Unconfigured stands in when no provider credentials are set.
type Unconfigured struct{}

func (Unconfigured) Route(context.Context, Request) (Result, error) {
	return Result{}, ErrNotConfigured
}

func (Unconfigured) Geocode(context.Context, string) (geo.Point, error) {
	return geo.Point{}, ErrNotConfigured
}
