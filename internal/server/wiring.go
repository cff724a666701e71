package server

import (
	"log"

	"backend-colatrails/internal/config"
	"backend-colatrails/internal/db"
	"backend-colatrails/internal/directions"
	"backend-colatrails/internal/library"

	"github.com/redis/go-redis/v9"
)

var newGoogleProviderFn = func(apiKey string) (*directions.GoogleProvider, error) {
	return directions.NewGoogleProvider(apiKey)
}

// newLibraryStore picks the saved-route backend. A backend whose connection
// is missing falls back to process memory.
func newLibraryStore(cfg config.Config, q db.Querier, rdb *redis.Client, notify library.Notifier) library.Store {
	switch cfg.LibraryBackend {
	case config.LibraryPostgres:
		if q != nil {
			return library.NewPostgresStore(q, notify)
		}
		log.Printf("library backend postgres requested without a database, using memory")
	case config.LibraryRedis, "":
		if rdb != nil {
			return library.NewJSONStore(library.NewRedisKV(rdb), cfg.LibraryKey, notify)
		}
		log.Printf("library backend redis requested without a redis client, using memory")
	case config.LibraryMemory:
	default:
		log.Printf("unknown library backend %q, using memory", cfg.LibraryBackend)
	}
	return library.NewJSONStore(library.NewMemoryKV(), cfg.LibraryKey, notify)
}

func newDirectionsService(cfg config.Config, rdb *redis.Client) *directions.Service {
	var (
		provider directions.Provider = directions.Unconfigured{}
		geocoder directions.Geocoder = directions.Unconfigured{}
	)
	if cfg.GoogleMapsAPIKey != "" {
		g, err := newGoogleProviderFn(cfg.GoogleMapsAPIKey)
		if err != nil {
			log.Printf("google maps client: %v", err)
		} else {
			provider, geocoder = g, g
		}
	}
	return directions.NewService(
		directions.NewCachedProvider(provider, rdb, cfg.DirectionsCacheTTL),
		geocoder,
		cfg.DirectionsRate,
	)
}
