package models

import (
	"strconv"
	"time"
)

// MaxSlots is the number of departures a watch record can carry
const MaxSlots = 12

// Unit is the only unit the watch understands
const Unit = "min"

// Location represents a geographic coordinate
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Stop represents a physical boarding location returned by a provider
type Stop struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Code      string  `json:"code"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	// FeedID is the upstream feed identity, e.g. "f-dpz8-ttc"
	FeedID    string `json:"feed_id"`
	AgencyKey string `json:"agency"`
}

// Location returns the stop coordinate
func (s Stop) Location() Location {
	return Location{Lat: s.Latitude, Lon: s.Longitude}
}

// VehicleType is the icon the watch draws for a departure
type VehicleType int

const (
	Streetcar VehicleType = iota
	Subway
	Bus
	RegionalTrain
)

func (v VehicleType) String() string {
	switch v {
	case Streetcar:
		return "streetcar"
	case Subway:
		return "subway"
	case Bus:
		return "bus"
	case RegionalTrain:
		return "regional_train"
	}
	return "VehicleType(" + strconv.Itoa(int(v)) + ")"
}

// RouteShape is the outline drawn around the route number
type RouteShape int

const (
	RoundRect RouteShape = iota
	Rect
	Circle
)

// Source identifies the provider a departure came from
type Source string

const (
	SourceTransitland Source = "transitland"
	SourceTransSee    Source = "transsee"
)

// DedupKey identifies one route travelling in one direction.
// Route alone is not enough: both directions of a route share it.
type DedupKey struct {
	Agency    string
	Route     string
	Direction string
}

func (k DedupKey) String() string {
	return k.Agency + "/" + k.Route + "/" + k.Direction
}

// Display holds every field the watch renders.
// Correction rules may only write to this struct.
type Display struct {
	StopName    string      `json:"stop_name"`
	DestName    string      `json:"dest_name"`
	RouteNumber string      `json:"route_number"`
	RouteName   string      `json:"route_name"`
	VehicleType VehicleType `json:"vehicle_type"`
	Color       Color       `json:"color"`
	Shape       RouteShape  `json:"shape"`
}

// Departure is the canonical departure every provider maps into
type Departure struct {
	Source         Source `json:"source"`
	Stop           Stop   `json:"stop"`
	AgencyKey      string `json:"agency"`
	RouteID        string `json:"route_id"`
	RouteShortName string `json:"route_short_name"`
	RouteLongName  string `json:"route_long_name"`
	Headsign       string `json:"headsign"`
	// DirectionTag is the provider's pattern or direction identifier
	DirectionTag string `json:"direction_tag,omitempty"`
	ETAMinutes   int    `json:"eta"`
	// EstimatedAt is only set when the provider reports a real-time estimate
	EstimatedAt *time.Time `json:"estimated_at,omitempty"`
	Key         DedupKey   `json:"-"`
	Display     Display    `json:"display"`
}

// StopDepartures pairs a ranked stop with the departures fetched for it
type StopDepartures struct {
	Stop       Stop
	Departures []Departure
}

// Slot is one fixed position of the watch record
type Slot struct {
	ETA         int         `json:"time"`
	Unit        string      `json:"unit"`
	StopName    string      `json:"stop_name"`
	DestName    string      `json:"dest_name"`
	RouteNumber string      `json:"route_number"`
	RouteName   string      `json:"route_name"`
	VehicleType VehicleType `json:"vehicle_type"`
	Color       Color       `json:"color"`
	Shape       RouteShape  `json:"shape"`
}

// WatchRecord is the bounded payload sent to the watch
type WatchRecord struct {
	Slots []Slot `json:"slots"`
	Count int    `json:"count"`
}

// ConvertToSlot converts a Departure to its watch slot
func (d *Departure) ConvertToSlot() Slot {
	return Slot{
		ETA:         d.ETAMinutes,
		Unit:        Unit,
		StopName:    d.Display.StopName,
		DestName:    d.Display.DestName,
		RouteNumber: d.Display.RouteNumber,
		RouteName:   d.Display.RouteName,
		VehicleType: d.Display.VehicleType,
		Color:       d.Display.Color,
		Shape:       d.Display.Shape,
	}
}
