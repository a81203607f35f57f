package transmit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jusunglee/departures-go/internal/encoder"
)

// DefaultSubjectPrefix is prepended to the device token of every subject
const DefaultSubjectPrefix = "departures"

// NATSMetrics receives publish outcomes
type NATSMetrics interface {
	ObserveTransmit(d time.Duration, err error)
	SetTransmitConnected(connected bool)
}

// NATSConfig holds configuration for the NATS transmitter
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	// Retries is how many times a failed publish is repeated
	Retries int
	Metrics NATSMetrics
}

// NATS publishes messages as protobuf Structs on "<prefix>.<device>"
type NATS struct {
	nc      *nats.Conn
	cfg     NATSConfig
	metrics NATSMetrics
}

// NewNATS connects to the NATS server at cfg.URL
func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = DefaultSubjectPrefix
	}
	m := cfg.Metrics

	nc, err := nats.Connect(cfg.URL,
		nats.Name("departures-go"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.SetTransmitConnected(false)
			}
			slog.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetTransmitConnected(true)
			}
			slog.Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetTransmitConnected(false)
			}
			slog.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}
	if m != nil {
		m.SetTransmitConnected(true)
	}

	return &NATS{nc: nc, cfg: cfg, metrics: m}, nil
}

// Close drains pending messages and closes the connection
func (n *NATS) Close() {
	if n.nc != nil {
		n.nc.Drain()
		n.nc.Close()
	}
}

// Send publishes msg for device, retrying transient failures
func (n *NATS) Send(ctx context.Context, device string, msg encoder.Message) error {
	payload, err := EncodePayload(msg)
	if err != nil {
		return sendError(err)
	}
	subject := Subject(n.cfg.SubjectPrefix, device)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(n.cfg.Retries, 0))), ctx)

	start := time.Now()
	err = backoff.Retry(func() error {
		err := n.nc.Publish(subject, payload)
		if errors.Is(err, nats.ErrConnectionClosed) || errors.Is(err, nats.ErrBadSubject) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if n.metrics != nil {
		n.metrics.ObserveTransmit(time.Since(start), err)
	}
	if err != nil {
		return sendError(err)
	}

	slog.DebugContext(ctx, "Published message", "subject", subject, "bytes", len(payload))
	return nil
}

// EncodePayload marshals msg as a google.protobuf.Struct
func EncodePayload(msg encoder.Message) ([]byte, error) {
	st, err := structpb.NewStruct(msg)
	if err != nil {
		return nil, fmt.Errorf("building payload: %w", err)
	}
	return proto.Marshal(st)
}

// DecodePayload is the inverse of EncodePayload. Numbers come back as float64.
func DecodePayload(data []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil, err
	}
	return st.AsMap(), nil
}

// Subject returns the NATS subject for device
func Subject(prefix, device string) string {
	return prefix + "." + subjectToken(device)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*', or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
