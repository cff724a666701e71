package directions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"

	"golang.org/x/time/rate"
)

var (
	ErrMissingEndpoints = errors.New("please enter both origin and destination")
	ErrRouteUnavailable = errors.New("could not calculate route")
)

type Service struct {
	provider Provider
	geocoder Geocoder
	limiter  *rate.Limiter
}

// NewService throttles provider calls to perSecond; zero or less disables
// throttling.
func NewService(provider Provider, geocoder Geocoder, perSecond float64) *Service {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &Service{provider: provider, geocoder: geocoder, limiter: rate.NewLimiter(limit, burst)}
}

// Calculate routes origin to destination for mode. Modes without a provider
// equivalent reuse the closest provider mode and scale its ETA by the mode's
// speed multiplier.
func (s *Service) Calculate(ctx context.Context, origin, destination string, mode transport.Mode) (Estimate, error) {
	origin = strings.TrimSpace(origin)
	destination = strings.TrimSpace(destination)
	if origin == "" || destination == "" {
		return Estimate{}, ErrMissingEndpoints
	}

	if err := s.limiter.Wait(ctx); err != nil {
		requestsTotal.WithLabelValues(string(mode), "throttled").Inc()
		return Estimate{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}

	res, err := s.provider.Route(ctx, Request{Origin: origin, Destination: destination, Mode: mode.ProviderMode()})
	if err != nil {
		log.Printf("directions %s -> %s (%s): %v", origin, destination, mode, err)
		requestsTotal.WithLabelValues(string(mode), "error").Inc()
		return Estimate{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	requestsTotal.WithLabelValues(string(mode), "ok").Inc()

	est := Estimate{
		Origin:          origin,
		Destination:     destination,
		Mode:            mode,
		DistanceText:    res.DistanceText,
		DurationSeconds: res.DurationSeconds,
		StartLocation:   res.StartLocation,
		Path:            res.Path,
		Bounds:          res.Bounds,
	}
	if mode.UsesProviderETA() {
		est.DurationText = transport.FormatDuration(res.DurationSeconds)
		return est, nil
	}

	est.Approximate = true
	if minutes, ok := transport.AdjustedMinutes(res.DurationSeconds, mode.Multiplier()); ok {
		est.DurationText = transport.FormatMinutes(minutes)
		est.DurationSeconds = float64(minutes * 60)
	}
	return est, nil
}

func (s *Service) Geocode(ctx context.Context, address string) (geo.Point, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return geo.Point{}, ErrMissingEndpoints
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	p, err := s.geocoder.Geocode(ctx, address)
	if err != nil {
		return geo.Point{}, fmt.Errorf("%w: %v", ErrRouteUnavailable, err)
	}
	return p, nil
}
