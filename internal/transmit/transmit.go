// Package transmit delivers encoded messages to watches.
package transmit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jusunglee/departures-go/internal/encoder"
	"github.com/jusunglee/departures-go/internal/models"
)

// Transmitter sends one message to a device
type Transmitter interface {
	Send(ctx context.Context, device string, msg encoder.Message) error
}

// sendError marks a delivery failure so callers report CouldNotSendMessage
func sendError(err error) error {
	return fmt.Errorf("%w: %w", models.ErrSendFailed, err)
}

// Log writes messages to a logger instead of a device
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging transmitter. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

// Send logs msg at info level
func (l *Log) Send(ctx context.Context, device string, msg encoder.Message) error {
	l.logger.InfoContext(ctx, "Sending message",
		"device", device,
		"num_routes", msg.Count(),
		"keys", len(msg))
	return nil
}
