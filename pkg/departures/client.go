package departures

import (
	"context"

	"github.com/jusunglee/departures-go/internal/encoder"
	"github.com/jusunglee/departures-go/internal/models"
)

// Client defines the interface for producing watch records
// Abstracts local aggregation and remote servers behind common interface
type Client interface {
	// RunCycle finds stops near the position, remembers them for device and
	// sends the resulting record or error code
	RunCycle(ctx context.Context, device string, lat, lon float64, radiusMeters int) Outcome
	// RefreshCycle repeats the departure fetch for device's remembered stops
	RefreshCycle(ctx context.Context, device string) Outcome
	// Locate asks pos for the position and then runs a full cycle
	Locate(ctx context.Context, device string, pos PositionSource, radiusMeters int) Outcome
}

// PositionSource supplies the caller's position.
// Return models.ErrLocationDenied when the user refused access.
type PositionSource interface {
	Position(ctx context.Context) (lat, lon float64, err error)
}

// PositionFunc adapts a function to PositionSource
type PositionFunc func(ctx context.Context) (lat, lon float64, err error)

func (f PositionFunc) Position(ctx context.Context) (float64, float64, error) {
	return f(ctx)
}

// FixedPosition is a PositionSource that always reports the same point
type FixedPosition models.Location

func (p FixedPosition) Position(ctx context.Context) (float64, float64, error) {
	return p.Lat, p.Lon, nil
}

// Outcome is the single result of a cycle: a record or an error code,
// never both
type Outcome struct {
	CycleID string
	// Record is nil when Code is set
	Record *models.WatchRecord
	// Code is zero on success
	Code models.ErrorCode
	Err  error
	// Message is what was handed to the transmitter
	Message encoder.Message

	Departures []models.Departure
	Source     models.Source
	FellBack   bool
}

// OK reports whether the cycle produced a record that was delivered
func (o Outcome) OK() bool {
	return o.Code == 0 && o.Record != nil
}
