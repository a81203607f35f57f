// Package metrics exposes Prometheus metrics for departure cycles.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/internal/provider"
)

// Collector implements the observer interfaces of the provider, aggregator
// and transmit packages on a private registry.
type Collector struct {
	reg *prometheus.Registry

	Cycles          *prometheus.CounterVec   // kind, outcome
	CycleDuration   *prometheus.HistogramVec // kind
	Fallbacks       *prometheus.CounterVec   // from, to
	Dropped         *prometheus.CounterVec   // provider, reason
	Requests        *prometheus.CounterVec   // provider, result
	RequestDuration *prometheus.HistogramVec // provider

	Transmits         *prometheus.CounterVec // result
	TransmitDuration  prometheus.Histogram
	TransmitConnected prometheus.Gauge
}

// NewCollector creates and registers every metric
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departures_cycles_total",
			Help: "Departure cycles by kind (run, refresh) and outcome code.",
		}, []string{"kind", "outcome"}),
		CycleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "departures_cycle_duration_seconds",
			Help:    "Duration of a full departure cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"kind"}),
		Fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departures_provider_fallbacks_total",
			Help: "Cycles where the secondary provider failed and the primary was used.",
		}, []string{"from", "to"}),
		Dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departures_dropped_total",
			Help: "Departures dropped before prioritisation.",
		}, []string{"provider", "reason"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departures_upstream_requests_total",
			Help: "Upstream API requests by result.",
		}, []string{"provider", "result"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "departures_upstream_request_duration_seconds",
			Help:    "Duration of upstream API requests including retries.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"provider"}),
		Transmits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "departures_transmits_total",
			Help: "Messages sent to devices by result.",
		}, []string{"result"}),
		TransmitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "departures_transmit_duration_seconds",
			Help:    "Duration to publish a message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		TransmitConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "departures_transmit_connected",
			Help: "1 if the transmit connection is established, 0 otherwise.",
		}),
	}

	reg.MustRegister(
		c.Cycles, c.CycleDuration,
		c.Fallbacks, c.Dropped,
		c.Requests, c.RequestDuration,
		c.Transmits, c.TransmitDuration, c.TransmitConnected,
	)

	return c
}

// Handler serves the registry in the Prometheus text format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.reg
}

// ObserveCycle records a finished cycle. code is zero on success.
func (c *Collector) ObserveCycle(kind string, d time.Duration, code models.ErrorCode) {
	outcome := "ok"
	if code != 0 {
		outcome = code.String()
	}
	c.Cycles.WithLabelValues(kind, outcome).Inc()
	c.CycleDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveRequest records an upstream request
func (c *Collector) ObserveRequest(providerName string, d time.Duration, err error) {
	c.Requests.WithLabelValues(providerName, requestResult(err)).Inc()
	c.RequestDuration.WithLabelValues(providerName).Observe(d.Seconds())
}

// ObserveDropped records a departure removed from a batch
func (c *Collector) ObserveDropped(providerName, reason string) {
	c.Dropped.WithLabelValues(providerName, reason).Inc()
}

// ObserveFallback records a secondary to primary fallback
func (c *Collector) ObserveFallback(from, to string, err error) {
	c.Fallbacks.WithLabelValues(from, to).Inc()
}

// ObserveTransmit records a publish attempt
func (c *Collector) ObserveTransmit(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.Transmits.WithLabelValues(result).Inc()
	c.TransmitDuration.Observe(d.Seconds())
}

// SetTransmitConnected tracks the transmit connection state
func (c *Collector) SetTransmitConnected(connected bool) {
	if connected {
		c.TransmitConnected.Set(1)
	} else {
		c.TransmitConnected.Set(0)
	}
}

func requestResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, provider.ErrAuth):
		return "auth"
	case errors.Is(err, provider.ErrNetwork):
		return "network"
	case errors.Is(err, provider.ErrSchema):
		return "schema"
	}
	return "upstream"
}
