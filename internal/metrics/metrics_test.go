package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/internal/provider"
)

func TestObserveRequest(t *testing.T) {
	c := NewCollector()

	c.ObserveRequest("transitland", 20*time.Millisecond, nil)
	c.ObserveRequest("transitland", 5*time.Millisecond, &provider.Error{Provider: "transitland", Kind: provider.ErrAuth, Err: provider.ErrAuth})
	c.ObserveRequest("transsee", time.Millisecond, &provider.Error{Provider: "transsee", Kind: provider.ErrNetwork, Err: errors.New("reset")})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("transitland", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("transitland", "auth")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Requests.WithLabelValues("transsee", "network")))
}

func TestObserveCycle(t *testing.T) {
	c := NewCollector()

	c.ObserveCycle("run", time.Second, 0)
	c.ObserveCycle("refresh", time.Second, models.NoResults)
	c.ObserveCycle("refresh", time.Second, models.NoResults)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Cycles.WithLabelValues("run", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Cycles.WithLabelValues("refresh", "no_results")))
}

func TestObserveFallbackAndDropped(t *testing.T) {
	c := NewCollector()

	c.ObserveFallback("transsee", "transitland", provider.ErrAuth)
	c.ObserveDropped("transitland", "stale")
	c.ObserveDropped("transitland", "stale")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Fallbacks.WithLabelValues("transsee", "transitland")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Dropped.WithLabelValues("transitland", "stale")))
}

func TestTransmit(t *testing.T) {
	c := NewCollector()

	c.SetTransmitConnected(true)
	c.ObserveTransmit(time.Millisecond, nil)
	c.ObserveTransmit(time.Millisecond, errors.New("closed"))
	c.SetTransmitConnected(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transmits.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Transmits.WithLabelValues("error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.TransmitConnected))
}

func TestHandler(t *testing.T) {
	c := NewCollector()
	c.ObserveCycle("run", time.Second, 0)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `departures_cycles_total{kind="run",outcome="ok"} 1`))
}
