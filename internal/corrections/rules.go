package corrections

import (
	"strings"

	"github.com/jusunglee/departures-go/internal/agency"
	"github.com/jusunglee/departures-go/internal/models"
)

// ttcStreetcarRoutes are TransSee route tags run with streetcars
var ttcStreetcarRoutes = map[string]bool{
	"501": true, "502": true, "503": true, "504": true, "504A": true,
	"504B": true, "505": true, "506": true, "507": true, "508": true,
	"509": true, "510": true, "511": true, "512": true, "513": true,
	"514": true, "301": true, "304": true, "306": true, "310": true,
}

// Transitland returns the rules for departures from Transitland
func Transitland() *Registry {
	return NewRegistry(map[string]Rule{
		agency.TTC:       transitlandTTC,
		agency.TTCSubway: transitlandTTC,
		agency.GOTransit: transitlandGO,
		agency.GOTrain:   transitlandGO,
		agency.GRT:       transitlandGRT,
	})
}

// TransSee returns the rules for departures from TransSee
func TransSee() *Registry {
	return NewRegistry(map[string]Rule{
		agency.TTC:       transseeTTC,
		agency.TTCSubway: transseeTTC,
		agency.GOTransit: transseeGOBus,
		agency.GOTrain:   transseeGOTrain,
		agency.GRT:       transseeGRT,
		agency.UPExpress: transseeUPExpress,
	})
}

func transitlandTTC(d models.Departure, display *models.Display) {
	// TTC headsigns read "504A King towards Distillery"
	dest := d.Headsign
	if _, after, found := strings.Cut(d.Headsign, " towards "); found {
		dest = after
	}

	display.StopName = shortenStopName(display.StopName)
	display.RouteName = titleCase(shortenLineName(display.RouteName))
	display.DestName = "to " + titleCase(dest)

	if n, ok := routeNumber(d.RouteShortName); ok && n >= 1 && n <= 6 {
		display.Shape = models.Circle
	}
}

func transitlandGO(d models.Departure, display *models.Display) {
	display.DestName = strings.Replace(display.DestName, display.RouteNumber+" - ", "", 1)
	display.Shape = models.Rect
}

func transitlandGRT(d models.Departure, display *models.Display) {
	n, ok := routeNumber(d.RouteShortName)
	if !ok {
		return
	}
	switch {
	case n >= 200 && n <= 299:
		// iXpress
		display.Color = models.ColorLimerick
	case n >= 300 && n <= 399:
		// ION
		display.Color = models.ColorBlue
	}
}

func transseeTTC(d models.Departure, display *models.Display) {
	if n, ok := routeNumber(d.RouteID); ok && n >= 1 && n <= 6 {
		display.Shape = models.Circle
		display.VehicleType = models.Subway
	}
	if ttcStreetcarRoutes[d.RouteID] {
		display.VehicleType = models.Streetcar
	}

	// the 506 bus replacement shares the streetcar's route tag
	if parts := strings.Split(d.DirectionTag, "_"); len(parts) > 2 && parts[2] == "506Cbus" {
		display.RouteNumber = "506C"
		display.VehicleType = models.Bus
	}

	display.StopName = shortenStopName(display.StopName)
	display.RouteName = shortenLineName(display.RouteName)
}

func transseeGOBus(d models.Departure, display *models.Display) {
	display.Shape = models.Rect
	number, dest := splitNumberedDirection(d.Headsign)
	display.RouteNumber = number
	display.DestName = "to " + dest
}

func transseeGOTrain(d models.Departure, display *models.Display) {
	transseeGOBus(d, display)
	display.VehicleType = models.RegionalTrain
}

func transseeGRT(d models.Departure, display *models.Display) {
	if d.RouteID == "301" {
		display.VehicleType = models.Streetcar
	}
}

func transseeUPExpress(d models.Departure, display *models.Display) {
	display.Shape = models.Rect
	display.VehicleType = models.RegionalTrain
}
