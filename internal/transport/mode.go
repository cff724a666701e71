package transport

import (
	"fmt"
	"strings"
)

// Mode is the travel type a user picks for a route.
type Mode string

const (
	Walk       Mode = "walk"
	Bike       Mode = "bike"
	Drive      Mode = "drive"
	Run        Mode = "run"
	Wheelchair Mode = "wheelchair"
	Scooter    Mode = "scooter"
	Skateboard Mode = "skateboard"
)

// ProviderMode is the subset of modes a routing provider understands.
type ProviderMode string

const (
	ProviderWalk  ProviderMode = "walk"
	ProviderBike  ProviderMode = "bike"
	ProviderDrive ProviderMode = "drive"
)

var All = []Mode{Walk, Bike, Drive, Run, Wheelchair, Scooter, Skateboard}

var glyphs = map[string]Mode{
	"👣": Walk,
	"🚲": Bike,
	"🚗": Drive,
	"🏃": Run,
	"♿": Wheelchair,
	"🛴": Scooter,
	"🛹": Skateboard,
}

// ParseMode accepts a mode tag ("walk", "Bike") or the glyph the web client
// shows for it. An empty string yields Walk.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Walk, nil
	}
	if m, ok := glyphs[s]; ok {
		return m, nil
	}
	m := Mode(strings.ToLower(s))
	if !m.Valid() {
		return "", fmt.Errorf("unknown transport mode %q", s)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	for _, known := range All {
		if m == known {
			return true
		}
	}
	return false
}

func (m Mode) Glyph() string {
	for g, mode := range glyphs {
		if mode == m {
			return g
		}
	}
	return ""
}

// ProviderMode maps a mode onto the routing mode used to compute it.
// Scooters and skateboards ride bike lanes; runners and wheelchairs
// follow pedestrian paths.
func (m Mode) ProviderMode() ProviderMode {
	switch m {
	case Drive:
		return ProviderDrive
	case Bike, Scooter, Skateboard:
		return ProviderBike
	default:
		return ProviderWalk
	}
}

// UsesProviderETA reports whether the provider has a dedicated mode whose
// duration can be shown as is.
func (m Mode) UsesProviderETA() bool {
	return m == Walk || m == Bike || m == Drive
}

// Multiplier is the speed relative to the provider baseline: >1 is faster,
// <1 slower. Modes with their own provider ETA return 1.
func (m Mode) Multiplier() float64 {
	switch m {
	case Run:
		return 2.0
	case Wheelchair:
		return 0.8
	default:
		return 1.0
	}
}
