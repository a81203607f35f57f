// Package geo ranks stops by distance from a point.
package geo

import (
	"math"
	"sort"

	"github.com/jusunglee/departures-go/internal/models"
)

// Distance calculates the distance in meters between two points using the Haversine formula
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000 // Earth's radius in meters

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// Nearest returns up to limit stops ordered by distance from (lat, lon).
// The input slice is not modified. Ties keep their upstream order.
func Nearest(lat, lon float64, stops []models.Stop, limit int) []models.Stop {
	type stopDist struct {
		stop     models.Stop
		distance float64
	}

	ranked := make([]stopDist, len(stops))
	for i, stop := range stops {
		ranked[i] = stopDist{stop, Distance(lat, lon, stop.Latitude, stop.Longitude)}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].distance < ranked[j].distance
	})

	if limit <= 0 || limit > len(ranked) {
		limit = len(ranked)
	}
	result := make([]models.Stop, 0, limit)
	for i := 0; i < limit; i++ {
		result = append(result, ranked[i].stop)
	}
	return result
}
