// Package feed keeps known devices supplied with fresh departures by
// re-running refresh cycles on an interval.
package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Refresher runs one refresh cycle for a device
type Refresher interface {
	Refresh(ctx context.Context, device string) error
}

// RefreshFunc adapts a function to Refresher
type RefreshFunc func(ctx context.Context, device string) error

func (f RefreshFunc) Refresh(ctx context.Context, device string) error {
	return f(ctx, device)
}

// DeviceLister lists the devices that have a saved stop list
type DeviceLister interface {
	Devices() []string
}

// Manager handles periodic refreshes
type Manager struct {
	refresher      Refresher
	devices        DeviceLister
	updateInterval time.Duration
	cycleTimeout   time.Duration
	logger         *slog.Logger
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// NewManager creates a new feed manager
func NewManager(refresher Refresher, devices DeviceLister, updateInterval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		refresher:      refresher,
		devices:        devices,
		updateInterval: updateInterval,
		cycleTimeout:   updateInterval,
		logger:         logger,
		stopCh:         make(chan struct{}),
	}
}

// Start begins the update loop
func (m *Manager) Start() {
	m.wg.Add(1)
	go m.updateLoop()
}

// Stop stops the update loop and waits for a running update to finish
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Manager) updateLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.update()
		case <-m.stopCh:
			return
		}
	}
}

// update refreshes every known device once, one at a time
func (m *Manager) update() {
	ctx, cancel := context.WithTimeout(context.Background(), m.cycleTimeout)
	defer cancel()

	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for _, device := range m.devices.Devices() {
		if ctx.Err() != nil {
			return
		}
		if err := m.refresher.Refresh(ctx, device); err != nil {
			m.logger.Warn("Update failed", "device", device, "error", err)
		}
	}
}
