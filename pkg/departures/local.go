// Package departures is the public entry point: it runs departure cycles
// and hands the result to a transmitter.
package departures

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jusunglee/departures-go/internal/aggregator"
	"github.com/jusunglee/departures-go/internal/config"
	"github.com/jusunglee/departures-go/internal/encoder"
	"github.com/jusunglee/departures-go/internal/feed"
	"github.com/jusunglee/departures-go/internal/metrics"
	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/internal/provider"
	"github.com/jusunglee/departures-go/internal/store"
	"github.com/jusunglee/departures-go/internal/transmit"
)

// transitlandFetchLimit is how many stops are requested before ranking
const transitlandFetchLimit = 12

// Cycle kinds used in logs and metrics
const (
	KindRun     = "run"
	KindRefresh = "refresh"
)

// Option customises a LocalClient
type Option func(*LocalClient)

// WithStore replaces the in-memory stop cache
func WithStore(s store.StopCache) Option {
	return func(c *LocalClient) { c.store = s }
}

// WithTransmitter replaces the logging transmitter
func WithTransmitter(t transmit.Transmitter) Option {
	return func(c *LocalClient) { c.transmitter = t }
}

// WithMetrics reports provider, aggregation and cycle metrics to m
func WithMetrics(m *metrics.Collector) Option {
	return func(c *LocalClient) { c.metrics = m }
}

// WithLogger sets the base logger
func WithLogger(l *slog.Logger) Option {
	return func(c *LocalClient) { c.logger = l }
}

// WithProviders replaces the configured upstream providers.
// secondary may be nil.
func WithProviders(primary provider.Provider, secondary provider.DepartureLister) Option {
	return func(c *LocalClient) {
		c.primary = primary
		c.secondary = secondary
	}
}

// WithClock sets the time source used for staleness checks and ETAs
func WithClock(now func() time.Time) Option {
	return func(c *LocalClient) { c.now = now }
}

// LocalClient implements the Client interface in-process
// Owns the aggregation pipeline and the optional periodic refresher
type LocalClient struct {
	cfg         config.Config
	store       store.StopCache
	transmitter transmit.Transmitter
	metrics     *metrics.Collector
	logger      *slog.Logger
	now         func() time.Time

	primary   provider.Provider
	secondary provider.DepartureLister

	agg         *aggregator.Aggregator
	feedManager *feed.Manager
}

// NewLocal creates a new local client
// Starts a background refresher when cfg.RefreshInterval is set and the
// store can list its devices
func NewLocal(cfg config.Config, opts ...Option) (*LocalClient, error) {
	c := &LocalClient{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.store == nil {
		c.store = store.NewStore()
	}
	if c.transmitter == nil {
		c.transmitter = transmit.NewLog(c.logger)
	}
	if c.cfg.Location == nil {
		c.cfg.Location = time.Local
	}

	var providerObs provider.Observer
	var aggObs aggregator.Observer
	if c.metrics != nil {
		providerObs = c.metrics
		aggObs = c.metrics
	}

	if c.primary == nil {
		c.primary, c.secondary = c.buildProviders(providerObs)
	}

	var stops provider.StopFinder = c.primary
	if c.cfg.StopCacheSize > 0 {
		stops = provider.NewCachedStopFinder(c.primary, c.cfg.StopCacheSize, c.cfg.StopCacheTTL)
	}

	agg, err := aggregator.New(aggregator.Config{
		Primary:   c.primary,
		Secondary: c.secondary,
		Stops:     stops,
		StopLimit: c.cfg.StopLimit,
		DropStale: c.cfg.DropStale,
		Now:       c.now,
		Observer:  aggObs,
		Logger:    c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating aggregator: %w", err)
	}
	c.agg = agg

	if lister, ok := c.store.(feed.DeviceLister); ok && c.cfg.RefreshInterval > 0 {
		c.feedManager = feed.NewManager(feed.RefreshFunc(func(ctx context.Context, device string) error {
			return c.RefreshCycle(ctx, device).Err
		}), lister, c.cfg.RefreshInterval, c.logger)
		c.feedManager.Start()
	}

	return c, nil
}

func (c *LocalClient) buildProviders(obs provider.Observer) (provider.Provider, provider.DepartureLister) {
	tl := provider.NewTransitland(provider.TransitlandConfig{
		BaseURL:   c.cfg.TransitlandURL,
		APIKey:    c.cfg.TransitlandAPIKey,
		Timeout:   c.cfg.HTTPTimeout,
		Retries:   c.cfg.Retries,
		StopLimit: transitlandFetchLimit,
		Location:  c.cfg.Location,
		Now:       c.now,
		Observer:  obs,
	})

	if c.cfg.TransSeeUserID == "" {
		return tl, nil
	}

	ts := provider.NewTransSee(provider.TransSeeConfig{
		BaseURL:  c.cfg.TransSeeURL,
		UserID:   c.cfg.TransSeeUserID,
		Timeout:  c.cfg.HTTPTimeout,
		Retries:  c.cfg.Retries,
		Now:      c.now,
		Observer: obs,
	}, tl)
	return tl, ts
}

// Close gracefully shuts down the local client
// Must be called to stop the background refresher
func (c *LocalClient) Close() {
	if c.feedManager != nil {
		c.feedManager.Stop()
	}
}

// RunCycle implements Client
func (c *LocalClient) RunCycle(ctx context.Context, device string, lat, lon float64, radiusMeters int) Outcome {
	cyc := c.begin(KindRun, device)
	if radiusMeters <= 0 {
		radiusMeters = c.cfg.RadiusMeters
	}
	cyc.logger.Info("Starting cycle", "lat", lat, "lon", lon, "radius", radiusMeters)

	stops, err := c.agg.Locate(ctx, lat, lon, radiusMeters)
	if err != nil {
		return c.fail(ctx, cyc, err)
	}

	// a failed save only costs the next refresh
	if err := c.store.SaveStops(ctx, cyc.device, stops); err != nil {
		cyc.logger.Warn("Failed to save stops", "error", err)
	}

	res, err := c.agg.Refresh(ctx, stops)
	return c.finish(ctx, cyc, res, err)
}

// RefreshCycle implements Client
func (c *LocalClient) RefreshCycle(ctx context.Context, device string) Outcome {
	cyc := c.begin(KindRefresh, device)

	stops, err := c.store.LoadStops(ctx, cyc.device)
	if err != nil {
		return c.fail(ctx, cyc, err)
	}
	cyc.logger.Info("Starting cycle", "stops", len(stops))

	res, err := c.agg.Refresh(ctx, stops)
	return c.finish(ctx, cyc, res, err)
}

// Locate implements Client
func (c *LocalClient) Locate(ctx context.Context, device string, pos PositionSource, radiusMeters int) Outcome {
	lat, lon, err := pos.Position(ctx)
	if err != nil {
		cyc := c.begin(KindRun, device)
		return c.fail(ctx, cyc, locationError(err))
	}
	return c.RunCycle(ctx, device, lat, lon, radiusMeters)
}

// locationError makes sure position failures carry a location code
func locationError(err error) error {
	if errors.Is(err, models.ErrLocationDenied) || errors.Is(err, models.ErrLocationUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", models.ErrLocationUnavailable, err)
}

type cycle struct {
	id     string
	kind   string
	device string
	start  time.Time
	logger *slog.Logger
}

func (c *LocalClient) begin(kind, device string) cycle {
	if device == "" {
		device = store.DefaultDevice
	}
	id := uuid.NewString()
	return cycle{
		id:     id,
		kind:   kind,
		device: device,
		start:  time.Now(),
		logger: c.logger.With("cycle", id, "kind", kind, "device", device),
	}
}

func (c *LocalClient) finish(ctx context.Context, cyc cycle, res aggregator.Result, err error) Outcome {
	if err != nil {
		return c.fail(ctx, cyc, err)
	}

	record, err := encoder.Encode(res.Departures)
	if err != nil {
		return c.fail(ctx, cyc, err)
	}

	msg := encoder.NewMessage(record)
	if err := c.transmitter.Send(ctx, cyc.device, msg); err != nil {
		return c.fail(ctx, cyc, err)
	}

	cyc.logger.Info("Cycle complete",
		"slots", record.Count,
		"source", res.Source,
		"fell_back", res.FellBack,
		"duration", time.Since(cyc.start))
	c.observe(cyc, 0)

	return Outcome{
		CycleID:    cyc.id,
		Record:     &record,
		Message:    msg,
		Departures: res.Departures,
		Source:     res.Source,
		FellBack:   res.FellBack,
	}
}

// fail sends the error code in place of a record
func (c *LocalClient) fail(ctx context.Context, cyc cycle, err error) Outcome {
	code := models.CodeFor(err)
	cyc.logger.Warn("Cycle failed", "code", code, "error", err)

	msg := encoder.ErrorMessage(code)
	if sendErr := c.transmitter.Send(ctx, cyc.device, msg); sendErr != nil {
		cyc.logger.Error("Failed to send error message", "code", code, "error", sendErr)
	}
	c.observe(cyc, code)

	return Outcome{
		CycleID: cyc.id,
		Code:    code,
		Err:     err,
		Message: msg,
	}
}

func (c *LocalClient) observe(cyc cycle, code models.ErrorCode) {
	if c.metrics != nil {
		c.metrics.ObserveCycle(cyc.kind, time.Since(cyc.start), code)
	}
}
