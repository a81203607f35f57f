// Package aggregator turns a position into a ranked, deduplicated list of
// departures from the configured providers.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/departures-go/internal/corrections"
	"github.com/jusunglee/departures-go/internal/geo"
	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/internal/provider"
)

// DefaultStopLimit is how many of the nearest stops are queried for departures
const DefaultStopLimit = 9

// Observer receives aggregation events, e.g. for metrics
type Observer interface {
	ObserveFallback(from, to string, err error)
	ObserveDropped(provider, reason string)
}

// Config holds configuration for the Aggregator
type Config struct {
	// Primary finds stops and is the fallback departure source
	Primary provider.Provider
	// Secondary is tried first for departures when set
	Secondary provider.DepartureLister
	// Stops overrides Primary as the stop finder, e.g. with a cache
	Stops     provider.StopFinder
	StopLimit int
	// DropStale removes departures whose real-time estimate is already past
	DropStale bool
	Now       func() time.Time
	Observer  Observer
	Logger    *slog.Logger
}

// Aggregator runs the fetch, dedup and correction pipeline
type Aggregator struct {
	cfg Config
}

// Result is the outcome of one successful aggregation
type Result struct {
	// Stops are the ranked stops departures were fetched for
	Stops []models.Stop
	// Departures are prioritised and corrected, nearest unique routes first
	Departures []models.Departure
	// Source is the provider the departures came from
	Source models.Source
	// FellBack is set when the secondary provider failed and Primary was used
	FellBack bool
}

// New creates an Aggregator
func New(cfg Config) (*Aggregator, error) {
	if cfg.Primary == nil {
		return nil, errors.New("aggregator: primary provider is required")
	}
	if cfg.Stops == nil {
		cfg.Stops = cfg.Primary
	}
	if cfg.StopLimit <= 0 {
		cfg.StopLimit = DefaultStopLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Aggregator{cfg: cfg}, nil
}

// Locate finds the stops near a point and ranks them by distance
func (a *Aggregator) Locate(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error) {
	stops, err := a.cfg.Stops.FindStops(ctx, lat, lon, radiusMeters)
	if err != nil {
		return nil, fmt.Errorf("finding stops: %w", err)
	}

	ranked := geo.Nearest(lat, lon, stops, a.cfg.StopLimit)
	if len(ranked) == 0 {
		return nil, models.ErrNoResults
	}
	return ranked, nil
}

// Run locates stops near the point and returns their departures
func (a *Aggregator) Run(ctx context.Context, lat, lon float64, radiusMeters int) (Result, error) {
	stops, err := a.Locate(ctx, lat, lon, radiusMeters)
	if err != nil {
		return Result{}, err
	}
	return a.Refresh(ctx, stops)
}

// Refresh fetches departures for already ranked stops
func (a *Aggregator) Refresh(ctx context.Context, stops []models.Stop) (Result, error) {
	if len(stops) == 0 {
		return Result{}, models.ErrNoResults
	}

	batches, source, fellBack, err := a.fetch(ctx, stops)
	if err != nil {
		return Result{Stops: stops}, err
	}

	if a.cfg.DropStale {
		batches = a.dropStale(batches)
	}

	prioritized := Prioritize(batches)
	if len(prioritized) == 0 {
		return Result{Stops: stops, Source: source, FellBack: fellBack}, models.ErrNoResults
	}

	for i, d := range prioritized {
		prioritized[i] = corrections.ForSource(d.Source).Apply(d.AgencyKey, d)
	}

	return Result{
		Stops:      stops,
		Departures: prioritized,
		Source:     source,
		FellBack:   fellBack,
	}, nil
}

// fetch tries the secondary provider and falls back to Primary for the
// whole batch when it fails. Results of the two are never mixed.
func (a *Aggregator) fetch(ctx context.Context, stops []models.Stop) ([]models.StopDepartures, models.Source, bool, error) {
	primary := a.cfg.Primary.Name()

	att := a.trySecondary(ctx, stops)
	switch att.outcome {
	case attemptOK:
		return att.batches, att.source, false, nil
	case attemptFailed:
		if ctx.Err() != nil {
			return nil, "", false, ctx.Err()
		}
		a.cfg.Logger.Warn("Secondary provider failed, falling back",
			"from", att.source, "to", primary, "error", att.err)
		if a.cfg.Observer != nil {
			a.cfg.Observer.ObserveFallback(string(att.source), primary, att.err)
		}
	}

	batches, err := fetchAll(ctx, a.cfg.Primary, stops)
	if err != nil {
		return nil, "", false, err
	}
	return batches, models.Source(primary), att.outcome == attemptFailed, nil
}

func (a *Aggregator) trySecondary(ctx context.Context, stops []models.Stop) attempt {
	if a.cfg.Secondary == nil {
		return attempt{outcome: attemptSkipped}
	}

	source := models.SourceTransSee
	if named, ok := a.cfg.Secondary.(interface{ Name() string }); ok {
		source = models.Source(named.Name())
	}

	batches, err := fetchAll(ctx, a.cfg.Secondary, stops)
	if err != nil {
		return attempt{outcome: attemptFailed, source: source, err: err}
	}
	return attempt{outcome: attemptOK, source: source, batches: batches}
}

// fetchAll lists departures for every stop concurrently. Each goroutine
// writes only its own slot; the first error cancels the rest.
func fetchAll(ctx context.Context, lister provider.DepartureLister, stops []models.Stop) ([]models.StopDepartures, error) {
	results := make([]models.StopDepartures, len(stops))

	g, gctx := errgroup.WithContext(ctx)
	for i, stop := range stops {
		i, stop := i, stop
		g.Go(func() error {
			departures, err := lister.ListDepartures(gctx, stop)
			if err != nil {
				return err
			}
			results[i] = models.StopDepartures{Stop: stop, Departures: departures}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// dropStale removes departures whose estimate is already in the past.
// Departures without a real-time estimate are kept.
func (a *Aggregator) dropStale(batches []models.StopDepartures) []models.StopDepartures {
	now := a.cfg.Now()

	out := make([]models.StopDepartures, len(batches))
	for i, batch := range batches {
		kept := make([]models.Departure, 0, len(batch.Departures))
		for _, d := range batch.Departures {
			if IsStale(d, now) {
				a.cfg.Logger.Debug("Dropping departed vehicle",
					"stop", batch.Stop.ID, "key", d.Key.String(), "estimated_at", d.EstimatedAt)
				if a.cfg.Observer != nil {
					a.cfg.Observer.ObserveDropped(string(d.Source), "stale")
				}
				continue
			}
			kept = append(kept, d)
		}
		out[i] = models.StopDepartures{Stop: batch.Stop, Departures: kept}
	}
	return out
}

// IsStale reports whether d's real-time estimate lies before now
func IsStale(d models.Departure, now time.Time) bool {
	return d.EstimatedAt != nil && d.EstimatedAt.Before(now)
}
