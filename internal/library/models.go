package library

import (
	"time"

	"backend-colatrails/internal/shared/geo"
	"backend-colatrails/internal/transport"
)

// Record is a saved route in the library. Calculated saves carry an origin
// and destination; tracked saves also carry the captured path.
type Record struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	Title         string         `json:"title"`
	Origin        string         `json:"origin"`
	Destination   string         `json:"destination"`
	DistanceText  string         `json:"distance_text"`
	DurationText  string         `json:"duration_text"`
	TransportMode transport.Mode `json:"transport_mode"`
	IsPublic      bool           `json:"is_public"`
	Review        *Review        `json:"review"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	Path          []geo.Point    `json:"path"`
}

type Review struct {
	Stars     int       `json:"stars"`
	Terrain   int       `json:"terrain"`
	Comment   string    `json:"comment"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Patch lists the fields a settings edit or review submission may change.
// Nil fields are left untouched; Review replaces the stored review wholesale.
type Patch struct {
	Title  *string
	Mode   *transport.Mode
	Public *bool
	Review *Review
}

func (p Patch) apply(r *Record, now time.Time) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Mode != nil {
		r.TransportMode = *p.Mode
	}
	if p.Public != nil {
		r.IsPublic = *p.Public
	}
	if p.Review != nil {
		review := *p.Review
		r.Review = &review
	}
	r.UpdatedAt = now
}

type SaveRequest struct {
	Title         string `json:"title"`
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DistanceText  string `json:"distance_text"`
	DurationText  string `json:"duration_text"`
	TransportMode string `json:"transport_mode"`
	IsPublic      bool   `json:"is_public"`
}

type SettingsRequest struct {
	Title         *string `json:"title"`
	TransportMode *string `json:"transport_mode"`
	IsPublic      *bool   `json:"is_public"`
}

type ReviewRequest struct {
	Stars   int    `json:"stars"`
	Terrain *int   `json:"terrain"`
	Comment string `json:"comment"`
	// IsPublic lets a review submission toggle visibility in the same write.
	IsPublic *bool `json:"is_public"`
}

// ChangeEvent is published to the library topic after every write.
type ChangeEvent struct {
	Type string `json:"type"`
	Op   string `json:"op"`
	ID   string `json:"id,omitempty"`
}
