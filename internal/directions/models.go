package directions

import (
	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"
)

type Request struct {
	Origin      string                 `json:"origin"`
	Destination string                 `json:"destination"`
	Mode        transport.ProviderMode `json:"mode"`
}

type Bounds struct {
	NorthEast geo.Point `json:"northeast"`
	SouthWest geo.Point `json:"southwest"`
}

// Result is what a routing provider returns for one origin/destination/mode.
type Result struct {
	DistanceText    string      `json:"distance_text"`
	DistanceMeters  float64     `json:"distance_meters"`
	DurationSeconds float64     `json:"duration_seconds"`
	StartLocation   geo.Point   `json:"start_location"`
	Path            []geo.Point `json:"path"`
	Bounds          Bounds      `json:"bounds"`
}

// Estimate is a provider result presented for a user-selected transport
// mode. Approximate marks ETAs derived from a baseline speed multiplier.
type Estimate struct {
	Origin          string         `json:"origin"`
	Destination     string         `json:"destination"`
	Mode            transport.Mode `json:"transport_mode"`
	DistanceText    string         `json:"distance_text"`
	DurationText    string         `json:"duration_text"`
	DurationSeconds float64        `json:"duration_seconds"`
	Approximate     bool           `json:"approximate"`
	StartLocation   geo.Point      `json:"start_location"`
	Path            []geo.Point    `json:"path"`
	Bounds          Bounds         `json:"bounds"`
}

type CalculateRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	TransportMode string `json:"transport_mode"`
}
