// Package provider adapts upstream departure APIs to the canonical model.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jusunglee/departures-go/internal/models"
)

// StopFinder finds stops near a point
type StopFinder interface {
	FindStops(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error)
}

// DepartureLister lists upcoming departures for one stop
type DepartureLister interface {
	ListDepartures(ctx context.Context, stop models.Stop) ([]models.Departure, error)
}

// Provider abstracts an upstream departure source behind one interface
type Provider interface {
	StopFinder
	DepartureLister
	Name() string
}

// Observer receives request timings and dropped records, e.g. for metrics
type Observer interface {
	ObserveRequest(provider string, d time.Duration, err error)
	ObserveDropped(provider, reason string)
}

// Error kinds, matched with errors.Is
var (
	ErrNetwork  = errors.New("network error")
	ErrAuth     = errors.New("invalid credentials")
	ErrSchema   = errors.New("unparseable response")
	ErrUpstream = errors.New("upstream error")
)

// Error is a provider-wide failure. It aborts the provider's whole batch.
type Error struct {
	Provider string
	Kind     error
	Err      error
}

func newError(provider string, kind, err error) *Error {
	if err == nil {
		err = kind
	}
	return &Error{Provider: provider, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == e.Kind {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Code maps the error kind to the code shown on the watch
func (e *Error) Code() models.ErrorCode {
	switch e.Kind {
	case ErrNetwork:
		return models.NoConnection
	case ErrAuth:
		return models.InvalidAPIKey
	}
	return models.UnknownAPIError
}
