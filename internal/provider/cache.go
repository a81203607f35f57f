package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/bluele/gcache"

	"github.com/jusunglee/departures-go/internal/models"
)

// CachedStopFinder remembers stop lookups for nearby positions.
// Stops rarely change, and a rider refreshing from the same corner should
// not cost another spatial query.
type CachedStopFinder struct {
	next  StopFinder
	cache gcache.Cache
}

// NewCachedStopFinder wraps next with an LRU cache of size entries
func NewCachedStopFinder(next StopFinder, size int, ttl time.Duration) *CachedStopFinder {
	return &CachedStopFinder{
		next: next,
		cache: gcache.New(size).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

// FindStops serves from cache when a lookup for the same ~100 m cell exists
func (c *CachedStopFinder) FindStops(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error) {
	key := cellKey(lat, lon, radiusMeters)
	if cached, err := c.cache.Get(key); err == nil {
		return cloneStops(cached.([]models.Stop)), nil
	}

	stops, err := c.next.FindStops(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, err
	}
	if len(stops) > 0 {
		c.cache.Set(key, cloneStops(stops))
	}
	return stops, nil
}

// cellKey rounds the position to three decimals, about 100 m of latitude
func cellKey(lat, lon float64, radiusMeters int) string {
	round := func(v float64) float64 { return math.Round(v*1000) / 1000 }
	return fmt.Sprintf("%.3f,%.3f,%d", round(lat), round(lon), radiusMeters)
}

func cloneStops(stops []models.Stop) []models.Stop {
	out := make([]models.Stop, len(stops))
	copy(out, stops)
	return out
}
