package provider

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jusunglee/departures-go/internal/agency"
	"github.com/jusunglee/departures-go/internal/eta"
	"github.com/jusunglee/departures-go/internal/models"
)

// DefaultTransSeeURL is the TransSee public feed endpoint
const DefaultTransSeeURL = "http://transsee.ca/publicJSONFeed"

// TransSeeConfig holds configuration for the TransSee provider
type TransSeeConfig struct {
	BaseURL  string
	UserID   string
	Timeout  time.Duration
	Retries  int
	Now      func() time.Time
	Observer Observer
}

// TransSee is the secondary provider. It is keyed by agency and stop code
// and has no spatial search, so stops come from another StopFinder.
type TransSee struct {
	cfg   TransSeeConfig
	stops StopFinder
	fetch *fetcher
}

// NewTransSee creates a TransSee provider that delegates stop discovery to stops
func NewTransSee(cfg TransSeeConfig, stops StopFinder) *TransSee {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTransSeeURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	name := string(models.SourceTransSee)
	return &TransSee{
		cfg:   cfg,
		stops: stops,
		fetch: newFetcher(name, cfg.Timeout, cfg.Retries, cfg.Observer, classifyTransSee),
	}
}

// Name returns the provider name
func (t *TransSee) Name() string {
	return string(models.SourceTransSee)
}

// FindStops delegates to the configured stop finder
func (t *TransSee) FindStops(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error) {
	if t.stops == nil {
		return nil, newError(t.Name(), ErrUpstream, nil)
	}
	return t.stops.FindStops(ctx, lat, lon, radiusMeters)
}

// ListDepartures returns the first prediction of every direction serving stop
func (t *TransSee) ListDepartures(ctx context.Context, stop models.Stop) ([]models.Departure, error) {
	if t.cfg.UserID == "" {
		return nil, newError(t.Name(), ErrAuth, nil)
	}

	query, ok := t.query(stop)
	if !ok {
		// agency has stop tags but none for this stop
		return nil, nil
	}

	var resp tsResponse
	if err := t.fetch.getJSON(ctx, t.cfg.BaseURL+"?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Error != nil {
		kind := ErrUpstream
		if isTransSeeAuthMessage(resp.Error.Content) {
			kind = ErrAuth
		}
		return nil, newError(t.Name(), kind, nil)
	}

	ref := t.cfg.Now()

	var departures []models.Departure
	for _, route := range resp.Predictions {
		for _, direction := range route.Direction {
			if !wanted(stop, direction) {
				continue
			}

			d, err := t.convert(ref, stop, route, direction)
			if err != nil {
				slog.Warn("Dropping departure",
					"provider", t.Name(), "stop", stop.Code, "route", route.RouteTag, "error", err)
				if t.cfg.Observer != nil {
					t.cfg.Observer.ObserveDropped(t.Name(), "missing_time")
				}
				continue
			}
			departures = append(departures, d)
		}
	}

	return departures, nil
}

func (t *TransSee) query(stop models.Stop) (url.Values, bool) {
	query := url.Values{
		"premium": {t.cfg.UserID},
		"a":       {stop.AgencyKey},
	}

	tags, multi := agency.StopTags(stop.AgencyKey, stop)
	if !multi {
		query.Set("command", "predictions")
		query.Set("stopId", stop.Code)
		return query, true
	}
	if len(tags) == 0 {
		return nil, false
	}

	query.Set("command", "predictionsForMultiStops")
	for _, tag := range tags {
		query.Add("stops", tag)
	}
	return query, true
}

// wanted filters out partial records and vehicles terminating here
func wanted(stop models.Stop, direction tsDirection) bool {
	if direction.Title == "" || len(direction.Prediction) == 0 {
		return false
	}
	return !strings.EqualFold(direction.Title, stop.Name)
}

func (t *TransSee) convert(ref time.Time, stop models.Stop, route tsRoute, direction tsDirection) (models.Departure, error) {
	prediction := direction.Prediction[0]

	minutes, err := eta.FromMinutes(prediction.Minutes)
	if err != nil {
		epoch, perr := strconv.ParseInt(prediction.EpochTime, 10, 64)
		if perr != nil {
			return models.Departure{}, err
		}
		minutes, err = eta.FromInstant(ref, time.UnixMilli(epoch))
		if err != nil {
			return models.Departure{}, err
		}
	}

	color := models.ColorBlack
	if route.Color != "" {
		color = models.ColorFromHex(route.Color)
	}

	return models.Departure{
		Source:         models.SourceTransSee,
		Stop:           stop,
		AgencyKey:      stop.AgencyKey,
		RouteID:        route.RouteTag,
		RouteShortName: route.RouteTag,
		RouteLongName:  route.RouteTitle,
		Headsign:       direction.Title,
		DirectionTag:   prediction.DirTag,
		ETAMinutes:     minutes,
		Key: models.DedupKey{
			Agency:    stop.AgencyKey,
			Route:     route.RouteTag,
			Direction: direction.Title,
		},
		Display: models.Display{
			StopName:    stop.Name,
			DestName:    direction.Title,
			RouteNumber: route.RouteTag,
			RouteName:   strings.Replace(route.RouteTitle, route.RouteTag+"-", "", 1),
			VehicleType: models.Bus,
			Color:       color,
			Shape:       models.RoundRect,
		},
	}, nil
}

// classifyTransSee spots credential failures. TransSee sometimes answers an
// unknown premium user id with HTTP 500, so a 500 only counts as ErrAuth
// when its body says so; any other 500 is an unexplained upstream error.
func classifyTransSee(status int, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if status == http.StatusInternalServerError {
		if isTransSeeAuthMessage(string(trimmed)) {
			return ErrAuth
		}
		return ErrUpstream
	}
	// plain-text rejections arrive with a 200
	if status == http.StatusOK && !bytes.HasPrefix(trimmed, []byte("{")) && isTransSeeAuthMessage(string(trimmed)) {
		return ErrAuth
	}
	return nil
}

func isTransSeeAuthMessage(s string) bool {
	s = strings.ToLower(s)
	return strings.Contains(s, "premium") || strings.Contains(s, "invalid user")
}
