package aggregator

import "github.com/jusunglee/departures-go/internal/models"

// Prioritize flattens per-stop departures, nearest stop first, so that every
// route and direction is shown once before any repeat.
//
// A departure whose key was already seen at the same stop is dropped. One
// whose key was first seen at a closer stop is moved to the end. The result
// is the unique departures in stop order followed by the repeats.
func Prioritize(batches []models.StopDepartures) []models.Departure {
	seen := make(map[models.DedupKey]struct{})

	var priority, last []models.Departure
	for _, batch := range batches {
		local := make(map[models.DedupKey]struct{}, len(batch.Departures))

		for _, d := range batch.Departures {
			if _, dup := local[d.Key]; dup {
				continue
			}
			local[d.Key] = struct{}{}

			if _, ok := seen[d.Key]; ok {
				last = append(last, d)
				continue
			}
			seen[d.Key] = struct{}{}
			priority = append(priority, d)
		}
	}

	return append(priority, last...)
}
