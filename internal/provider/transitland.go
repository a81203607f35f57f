package provider

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jusunglee/departures-go/internal/agency"
	"github.com/jusunglee/departures-go/internal/eta"
	"github.com/jusunglee/departures-go/internal/models"
)

// DefaultTransitlandURL is the Transitland REST API root
const DefaultTransitlandURL = "https://transit.land/api/v2/rest"

// TransitlandConfig holds configuration for the Transitland provider
type TransitlandConfig struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	Retries   int
	StopLimit int
	// Location is the zone wall-clock departure times are read in
	Location *time.Location
	Now      func() time.Time
	Observer Observer
}

// Transitland is the primary provider: precise stop ids, GTFS-style nesting
type Transitland struct {
	cfg   TransitlandConfig
	fetch *fetcher
}

// NewTransitland creates a Transitland provider
func NewTransitland(cfg TransitlandConfig) *Transitland {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultTransitlandURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.StopLimit == 0 {
		cfg.StopLimit = 12
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	name := string(models.SourceTransitland)
	return &Transitland{
		cfg:   cfg,
		fetch: newFetcher(name, cfg.Timeout, cfg.Retries, cfg.Observer, classifyTransitland),
	}
}

// Name returns the provider name
func (t *Transitland) Name() string {
	return string(models.SourceTransitland)
}

// FindStops returns stops within radiusMeters of the point, in upstream order
func (t *Transitland) FindStops(ctx context.Context, lat, lon float64, radiusMeters int) ([]models.Stop, error) {
	query := url.Values{
		"lat":    {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":    {strconv.FormatFloat(lon, 'f', -1, 64)},
		"radius": {strconv.Itoa(radiusMeters)},
		"limit":  {strconv.Itoa(t.cfg.StopLimit)},
	}

	var resp tlStopsResponse
	if err := t.fetch.getJSON(ctx, t.cfg.BaseURL+"/stops?"+query.Encode(), t.header(), &resp); err != nil {
		return nil, err
	}

	stops := make([]models.Stop, 0, len(resp.Stops))
	for _, s := range resp.Stops {
		if len(s.Geometry.Coordinates) < 2 {
			slog.Warn("Skipping stop without coordinates", "stop", s.OnestopID)
			continue
		}
		stop := models.Stop{
			ID:        s.StopID,
			Name:      s.StopName,
			Code:      s.StopCode,
			Longitude: s.Geometry.Coordinates[0],
			Latitude:  s.Geometry.Coordinates[1],
			FeedID:    s.FeedVersion.Feed.OnestopID,
		}
		stop.AgencyKey = agency.Resolve(stop)
		stops = append(stops, stop)
	}

	return stops, nil
}

// ListDepartures returns the departures Transitland reports for stop
func (t *Transitland) ListDepartures(ctx context.Context, stop models.Stop) ([]models.Departure, error) {
	stopKey := stop.FeedID + ":" + stop.ID
	endpoint := t.cfg.BaseURL + "/stops/" + url.PathEscape(stopKey) + "/departures"

	var resp tlStopsResponse
	if err := t.fetch.getJSON(ctx, endpoint, t.header(), &resp); err != nil {
		return nil, err
	}

	ref := t.cfg.Now().In(t.cfg.Location)

	var departures []models.Departure
	for _, s := range resp.Stops {
		for _, raw := range s.Departures {
			d, err := t.convert(ref, stop, raw)
			if err != nil {
				slog.Warn("Dropping departure",
					"provider", t.Name(), "stop", stop.ID, "trip", raw.Trip.TripID, "error", err)
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

func (t *Transitland) convert(ref time.Time, stop models.Stop, raw tlDeparture) (models.Departure, error) {
	clock := firstNonEmpty(raw.Departure.Estimated, raw.DepartureTime, raw.Departure.Scheduled, raw.ArrivalTime)
	minutes, err := eta.FromClock(ref, raw.ServiceDate, clock)
	if err != nil {
		return models.Departure{}, err
	}

	route := raw.Trip.Route
	direction := raw.Trip.TripHeadsign
	if raw.Trip.DirectionID != nil {
		direction = strconv.Itoa(*raw.Trip.DirectionID)
	}

	return models.Departure{
		Source:         models.SourceTransitland,
		Stop:           stop,
		AgencyKey:      stop.AgencyKey,
		RouteID:        route.RouteID,
		RouteShortName: route.RouteShortName,
		RouteLongName:  route.RouteLongName,
		Headsign:       raw.Trip.TripHeadsign,
		DirectionTag:   direction,
		ETAMinutes:     minutes,
		EstimatedAt:    raw.Departure.EstimatedUTC,
		Key: models.DedupKey{
			Agency:    stop.AgencyKey,
			Route:     route.RouteID,
			Direction: direction,
		},
		Display: models.Display{
			StopName:    stop.Name,
			DestName:    raw.Trip.TripHeadsign,
			RouteNumber: route.RouteShortName,
			RouteName:   route.RouteLongName,
			VehicleType: VehicleTypeForRouteType(route.RouteType),
			Color:       models.ColorFromHex(route.RouteColor),
			Shape:       models.RoundRect,
		},
	}, nil
}

func (t *Transitland) header() http.Header {
	h := http.Header{}
	if t.cfg.APIKey != "" {
		h.Set("apikey", t.cfg.APIKey)
	}
	return h
}

// VehicleTypeForRouteType maps a GTFS route_type to the watch's vehicle icons
func VehicleTypeForRouteType(routeType int) models.VehicleType {
	switch routeType {
	case 0, 5, 6: // tram, cable tram, aerial lift
		return models.Streetcar
	case 1, 7, 12: // subway, funicular, monorail
		return models.Subway
	case 2:
		return models.RegionalTrain
	case 3, 11: // bus, trolleybus
		return models.Bus
	}
	return models.Bus
}

func classifyTransitland(status int, body []byte) error {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrAuth
	case http.StatusTooManyRequests:
		return ErrUpstream
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
