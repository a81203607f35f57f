package departures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jusunglee/departures-go/internal/config"
	"github.com/jusunglee/departures-go/internal/encoder"
	"github.com/jusunglee/departures-go/internal/metrics"
	"github.com/jusunglee/departures-go/internal/models"
	"github.com/jusunglee/departures-go/internal/provider"
	"github.com/jusunglee/departures-go/internal/store"
)

type fakeProvider struct {
	name       string
	stops      []models.Stop
	stopsErr   error
	departures map[string][]models.Departure
	err        error
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FindStops(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error) {
	return f.stops, f.stopsErr
}

func (f *fakeProvider) ListDepartures(ctx context.Context, stop models.Stop) ([]models.Departure, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.departures[stop.ID], nil
}

type sent struct {
	device string
	msg    encoder.Message
}

type recordingTransmitter struct {
	mu   sync.Mutex
	sent []sent
	err  error
}

func (r *recordingTransmitter) Send(ctx context.Context, device string, msg encoder.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{device: device, msg: msg})
	return r.err
}

func (r *recordingTransmitter) last() sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sent[len(r.sent)-1]
}

var (
	king   = models.Stop{ID: "5286", Name: "King St West at Spadina Ave", Latitude: 43.6453, Longitude: -79.3953, FeedID: "f-dpz8-ttc", AgencyKey: "ttc"}
	queens = models.Stop{ID: "2134", Name: "Queen St West at Spadina Ave", Latitude: 43.6487, Longitude: -79.3966, FeedID: "f-dpz8-ttc", AgencyKey: "ttc"}
)

func departure(source models.Source, stop models.Stop, route string, eta int) models.Departure {
	return models.Departure{
		Source:         source,
		Stop:           stop,
		AgencyKey:      stop.AgencyKey,
		RouteID:        route,
		RouteShortName: route,
		Headsign:       "East - " + route + " towards Downtown",
		ETAMinutes:     eta,
		Key:            models.DedupKey{Agency: stop.AgencyKey, Route: route, Direction: "0"},
		Display: models.Display{
			StopName:    stop.Name,
			DestName:    "East - " + route + " towards Downtown",
			RouteNumber: route,
			VehicleType: models.Bus,
		},
	}
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Location = time.UTC
	cfg.StopCacheSize = 0
	return cfg
}

func newTestClient(t *testing.T, primary provider.Provider, secondary provider.DepartureLister, opts ...Option) (*LocalClient, *recordingTransmitter) {
	t.Helper()
	tx := &recordingTransmitter{}
	opts = append([]Option{
		WithProviders(primary, secondary),
		WithTransmitter(tx),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)

	client, err := NewLocal(testConfig(), opts...)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	t.Cleanup(client.Close)
	return client, tx
}

func torontoPrimary() *fakeProvider {
	src := models.SourceTransitland
	return &fakeProvider{
		name:  "transitland",
		stops: []models.Stop{queens, king},
		departures: map[string][]models.Departure{
			king.ID:   {departure(src, king, "504", 3), departure(src, king, "510", 5)},
			queens.ID: {departure(src, queens, "510", 2), departure(src, queens, "501", 7)},
		},
	}
}

func TestRunCycle(t *testing.T) {
	client, tx := newTestClient(t, torontoPrimary(), nil)

	out := client.RunCycle(context.Background(), "pebble-1", king.Latitude, king.Longitude, 0)
	if !out.OK() {
		t.Fatalf("Expected success, got code %d: %v", out.Code, out.Err)
	}
	if out.CycleID == "" {
		t.Error("Expected a cycle id")
	}

	got := make([]string, 0, len(out.Departures))
	for _, d := range out.Departures {
		got = append(got, d.Stop.ID+"/"+d.RouteID)
	}
	want := []string{"5286/504", "5286/510", "2134/501", "2134/510"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if out.Record.Count != 4 {
		t.Errorf("Expected 4 slots, got %d", out.Record.Count)
	}

	last := tx.last()
	if last.device != "pebble-1" || last.msg.Count() != 4 {
		t.Errorf("Unexpected transmission %+v", last)
	}
	if last.msg["dest_name0"] != "to Downtown" {
		t.Errorf("Expected corrected destination, got %v", last.msg["dest_name0"])
	}
}

func TestRefreshCycleUsesSavedStops(t *testing.T) {
	primary := torontoPrimary()
	s := store.NewStore()
	client, _ := newTestClient(t, primary, nil, WithStore(s))
	ctx := context.Background()

	if out := client.RunCycle(ctx, "pebble-1", king.Latitude, king.Longitude, 500); !out.OK() {
		t.Fatalf("RunCycle failed: %v", out.Err)
	}

	// stop discovery must not be needed again
	primary.stops = nil
	primary.stopsErr = errors.New("should not be called")

	out := client.RefreshCycle(ctx, "pebble-1")
	if !out.OK() {
		t.Fatalf("RefreshCycle failed: %v", out.Err)
	}
	if out.Record.Count != 4 {
		t.Errorf("Expected 4 slots, got %d", out.Record.Count)
	}
}

func TestRefreshWithoutRun(t *testing.T) {
	client, tx := newTestClient(t, torontoPrimary(), nil)

	out := client.RefreshCycle(context.Background(), "pebble-1")
	if out.OK() || out.Code != models.NoResults {
		t.Fatalf("Expected NoResults, got code %d", out.Code)
	}
	if out.Record != nil {
		t.Error("Expected no record alongside an error code")
	}
	if tx.last().msg.Count() != int(models.NoResults) {
		t.Errorf("Expected error message sent, got %v", tx.last().msg)
	}
}

func TestCycleErrorCodes(t *testing.T) {
	tests := []struct {
		name    string
		primary *fakeProvider
		want    models.ErrorCode
	}{
		{
			name:    "no stops",
			primary: &fakeProvider{name: "transitland"},
			want:    models.NoResults,
		},
		{
			name:    "stops without departures",
			primary: &fakeProvider{name: "transitland", stops: []models.Stop{king}},
			want:    models.NoResults,
		},
		{
			name: "invalid api key",
			primary: &fakeProvider{name: "transitland", stops: []models.Stop{king},
				err: &provider.Error{Provider: "transitland", Kind: provider.ErrAuth, Err: provider.ErrAuth}},
			want: models.InvalidAPIKey,
		},
		{
			name: "no connection",
			primary: &fakeProvider{name: "transitland",
				stopsErr: &provider.Error{Provider: "transitland", Kind: provider.ErrNetwork, Err: errors.New("dial tcp: timeout")}},
			want: models.NoConnection,
		},
		{
			name: "schema",
			primary: &fakeProvider{name: "transitland", stops: []models.Stop{king},
				err: &provider.Error{Provider: "transitland", Kind: provider.ErrSchema, Err: errors.New("unexpected EOF")}},
			want: models.UnknownAPIError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, tx := newTestClient(t, tt.primary, nil)

			out := client.RunCycle(context.Background(), "pebble-1", king.Latitude, king.Longitude, 500)
			if out.Code != tt.want {
				t.Errorf("Expected code %d, got %d (%v)", tt.want, out.Code, out.Err)
			}
			if out.Record != nil {
				t.Error("Expected no record alongside an error code")
			}
			if len(tx.sent) != 1 || tx.last().msg.Count() != int(tt.want) {
				t.Errorf("Expected exactly one error message, got %v", tx.sent)
			}
		})
	}
}

func TestSendFailure(t *testing.T) {
	client, tx := newTestClient(t, torontoPrimary(), nil)
	tx.err = errors.New("bluetooth disconnected")

	out := client.RunCycle(context.Background(), "pebble-1", king.Latitude, king.Longitude, 500)
	if out.Code != models.CouldNotSendMessage {
		t.Fatalf("Expected CouldNotSendMessage, got %d (%v)", out.Code, out.Err)
	}
	if out.Record != nil {
		t.Error("Expected no record when delivery failed")
	}
	if tx.last().msg.Count() != int(models.CouldNotSendMessage) {
		t.Errorf("Expected the error code to be sent last, got %v", tx.last().msg)
	}
}

func TestSecondaryFallback(t *testing.T) {
	secondary := &fakeProvider{
		name: "transsee",
		err:  &provider.Error{Provider: "transsee", Kind: provider.ErrAuth, Err: provider.ErrAuth},
	}
	m := metrics.NewCollector()
	client, _ := newTestClient(t, torontoPrimary(), secondary, WithMetrics(m))

	out := client.RunCycle(context.Background(), "pebble-1", king.Latitude, king.Longitude, 500)
	if !out.OK() {
		t.Fatalf("Expected fallback success, got %v", out.Err)
	}
	if !out.FellBack || out.Source != models.SourceTransitland {
		t.Errorf("Expected fallback to transitland, got %q fellBack=%v", out.Source, out.FellBack)
	}
	if got := testutil.ToFloat64(m.Fallbacks.WithLabelValues("transsee", "transitland")); got != 1 {
		t.Errorf("Expected fallback metric 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.Cycles.WithLabelValues(KindRun, "ok")); got != 1 {
		t.Errorf("Expected one successful run cycle, got %v", got)
	}
}

func TestLocate(t *testing.T) {
	tests := []struct {
		name string
		pos  PositionSource
		want models.ErrorCode
	}{
		{
			name: "fixed position",
			pos:  FixedPosition{Lat: king.Latitude, Lon: king.Longitude},
		},
		{
			name: "denied",
			pos: PositionFunc(func(ctx context.Context) (float64, float64, error) {
				return 0, 0, models.ErrLocationDenied
			}),
			want: models.LocationAccessDenied,
		},
		{
			name: "timeout",
			pos: PositionFunc(func(ctx context.Context) (float64, float64, error) {
				return 0, 0, context.DeadlineExceeded
			}),
			want: models.UnknownLocationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, torontoPrimary(), nil)

			out := client.Locate(context.Background(), "pebble-1", tt.pos, 500)
			if out.Code != tt.want {
				t.Errorf("Expected code %d, got %d (%v)", tt.want, out.Code, out.Err)
			}
		})
	}
}

func TestBackgroundRefresh(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshInterval = 10 * time.Millisecond

	tx := &recordingTransmitter{}
	client, err := NewLocal(cfg,
		WithProviders(torontoPrimary(), nil),
		WithTransmitter(tx),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	defer client.Close()

	if out := client.RunCycle(context.Background(), "pebble-1", king.Latitude, king.Longitude, 500); !out.OK() {
		t.Fatalf("RunCycle failed: %v", out.Err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tx.mu.Lock()
		n := len(tx.sent)
		tx.mu.Unlock()
		if n >= 2 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Expected the refresher to send again")
}
