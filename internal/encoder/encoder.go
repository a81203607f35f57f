// Package encoder packs departures into the fixed-size record the watch reads.
package encoder

import (
	"strconv"

	"github.com/jusunglee/departures-go/internal/models"
)

// ErrEmpty is returned when there is nothing to encode
var ErrEmpty = models.NewCodedError(models.NoResults, "no departures to encode")

// Message keys. Slot fields carry the slot index as a suffix, e.g. "time0".
const (
	KeyTime        = "time"
	KeyUnit        = "unit"
	KeyStopName    = "stop_name"
	KeyDestName    = "dest_name"
	KeyRouteNumber = "route_number"
	KeyRouteName   = "route_name"
	KeyVehicleType = "vehicle_type"
	KeyColor       = "color"
	KeyShape       = "shape"
	// KeyNumRoutes holds the slot count, or an error code when negative
	KeyNumRoutes = "num_routes"
)

// Message is the flat key/value form sent over the watch channel
type Message map[string]any

// Count returns the num_routes field, which is negative for error messages
func (m Message) Count() int {
	n, _ := m[KeyNumRoutes].(int)
	return n
}

// Encode converts ordered departures into a watch record of at most
// models.MaxSlots slots, keeping the first ones.
func Encode(departures []models.Departure) (models.WatchRecord, error) {
	if len(departures) == 0 {
		return models.WatchRecord{}, ErrEmpty
	}

	n := min(len(departures), models.MaxSlots)
	slots := make([]models.Slot, n)
	for i := range slots {
		slots[i] = departures[i].ConvertToSlot()
	}

	return models.WatchRecord{Slots: slots, Count: n}, nil
}

// NewMessage flattens a record into index-suffixed keys plus num_routes
func NewMessage(record models.WatchRecord) Message {
	msg := make(Message, len(record.Slots)*9+1)
	for i, slot := range record.Slots {
		idx := strconv.Itoa(i)
		msg[KeyTime+idx] = slot.ETA
		msg[KeyUnit+idx] = slot.Unit
		msg[KeyStopName+idx] = slot.StopName
		msg[KeyDestName+idx] = slot.DestName
		msg[KeyRouteNumber+idx] = slot.RouteNumber
		msg[KeyRouteName+idx] = slot.RouteName
		msg[KeyVehicleType+idx] = int(slot.VehicleType)
		msg[KeyColor+idx] = int(slot.Color)
		msg[KeyShape+idx] = int(slot.Shape)
	}
	msg[KeyNumRoutes] = len(record.Slots)
	return msg
}

// ErrorMessage is the message sent in place of a record when a cycle fails
func ErrorMessage(code models.ErrorCode) Message {
	return Message{KeyNumRoutes: int(code)}
}
