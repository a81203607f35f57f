package provider

import "time"

// Wire types for the Transitland REST API v2

type tlStopsResponse struct {
	Stops []tlStop `json:"stops"`
}

type tlStop struct {
	OnestopID   string        `json:"onestop_id"`
	StopID      string        `json:"stop_id"`
	StopName    string        `json:"stop_name"`
	StopCode    string        `json:"stop_code"`
	Geometry    tlGeometry    `json:"geometry"`
	FeedVersion tlFeedVersion `json:"feed_version"`
	Departures  []tlDeparture `json:"departures"`
}

type tlGeometry struct {
	Coordinates []float64 `json:"coordinates"` // [lon, lat]
}

type tlFeedVersion struct {
	Feed struct {
		OnestopID string `json:"onestop_id"`
	} `json:"feed"`
}

type tlDeparture struct {
	DepartureTime string          `json:"departure_time"`
	ArrivalTime   string          `json:"arrival_time"`
	ServiceDate   string          `json:"service_date"`
	Departure     tlStopTimeEvent `json:"departure"`
	Trip          tlTrip          `json:"trip"`
}

type tlStopTimeEvent struct {
	Scheduled    string     `json:"scheduled"`
	Estimated    string     `json:"estimated"`
	EstimatedUTC *time.Time `json:"estimated_utc"`
}

type tlTrip struct {
	TripID       string  `json:"trip_id"`
	TripHeadsign string  `json:"trip_headsign"`
	DirectionID  *int    `json:"direction_id"`
	Route        tlRoute `json:"route"`
}

type tlRoute struct {
	RouteID        string `json:"route_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	RouteType      int    `json:"route_type"`
	RouteColor     string `json:"route_color"`
	Agency         struct {
		AgencyName string `json:"agency_name"`
	} `json:"agency"`
}
