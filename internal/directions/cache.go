package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedProvider keeps provider results in redis as JSON for ttl.
type CachedProvider struct {
	next  Provider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(next Provider, client *redis.Client, ttl time.Duration) Provider {
	if client == nil || ttl <= 0 {
		return next
	}
	return &CachedProvider{next: next, redis: client, ttl: ttl}
}

func (c *CachedProvider) Route(ctx context.Context, req Request) (Result, error) {
	key := routeKey(req)
	start := time.Now()

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached Result
		if err := json.Unmarshal(raw, &cached); err == nil {
			observeProvider(true, time.Since(start))
			return cached, nil
		}
		log.Printf("directions cache %s: discarding unreadable entry", key)
	case !errors.Is(err, redis.Nil):
		log.Printf("directions cache get: %v", err)
	}

	res, err := c.next.Route(ctx, req)
	observeProvider(false, time.Since(start))
	if err != nil {
		return Result{}, err
	}

	payload, err := json.Marshal(res)
	if err == nil {
		err = c.redis.Set(ctx, key, payload, c.ttl).Err()
	}
	if err != nil {
		log.Printf("directions cache set: %v", err)
	}
	return res, nil
}

func routeKey(req Request) string {
	return fmt.Sprintf("directions:%s:%s:%s",
		req.Mode,
		strings.ToLower(strings.TrimSpace(req.Origin)),
		strings.ToLower(strings.TrimSpace(req.Destination)))
}
