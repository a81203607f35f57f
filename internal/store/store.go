// Package store keeps the most recent ranked stop list per device so a
// refresh can skip position lookup and stop discovery.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jusunglee/departures-go/internal/models"
)

// DefaultDevice is used when a caller does not identify its device
const DefaultDevice = "default"

// ErrNoStops means a refresh was requested before any full cycle ran
var ErrNoStops = models.NewCodedError(models.NoResults, "no cached stops, run a full cycle first")

// StopCache persists the ranked stop list between cycles
type StopCache interface {
	SaveStops(ctx context.Context, device string, stops []models.Stop) error
	LoadStops(ctx context.Context, device string) ([]models.Stop, error)
}

type entry struct {
	stops     []models.Stop
	updatedAt time.Time
}

// Store manages stop lists in memory
type Store struct {
	mu      sync.RWMutex
	devices map[string]entry
	now     func() time.Time
}

// NewStore creates a new store instance
func NewStore() *Store {
	return &Store{
		devices: make(map[string]entry),
		now:     time.Now,
	}
}

// SaveStops replaces the stop list for device
func (s *Store) SaveStops(ctx context.Context, device string, stops []models.Stop) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.devices[deviceKey(device)] = entry{
		stops:     append([]models.Stop(nil), stops...),
		updatedAt: s.now(),
	}
	return nil
}

// LoadStops returns a copy of the stop list saved for device
func (s *Store) LoadStops(ctx context.Context, device string) ([]models.Stop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.devices[deviceKey(device)]
	if !ok || len(e.stops) == 0 {
		return nil, ErrNoStops
	}
	return append([]models.Stop(nil), e.stops...), nil
}

// GetLastUpdate returns when device's stops were last saved
func (s *Store) GetLastUpdate(device string) time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.devices[deviceKey(device)].updatedAt
}

// Devices lists every device with a saved stop list
func (s *Store) Devices() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	devices := make([]string, 0, len(s.devices))
	for d, e := range s.devices {
		if len(e.stops) > 0 {
			devices = append(devices, d)
		}
	}
	return devices
}

func deviceKey(device string) string {
	if device == "" {
		return DefaultDevice
	}
	return device
}
