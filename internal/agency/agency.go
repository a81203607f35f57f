// Package agency maps upstream feed identities to the canonical agency keys
// used to pick corrections and TransSee query parameters.
package agency

import (
	"strings"

	"github.com/jusunglee/departures-go/internal/models"
)

// Canonical agency keys
const (
	TTC        = "ttc"
	TTCSubway  = "ttcsubway"
	GOTransit  = "gotransit"
	GOTrain    = "gotrain"
	GRT        = "grt"
	UPExpress  = "upexpress"
	Northland  = "northland"
	VIARail    = "viarail"
	Unresolved = ""
)

// aliases maps onestop names to the shorter key TransSee expects
var aliases = map[string]string{
	"grandrivertransit":    GRT,
	"ontario~northland~ca": Northland,
}

// OnestopName returns the trailing segment of a compound onestop id,
// e.g. "f-dpz8-ttc" -> "ttc"
func OnestopName(feedID string) string {
	feedID = strings.TrimSpace(feedID)
	if i := strings.LastIndex(feedID, "-"); i >= 0 {
		return feedID[i+1:]
	}
	return feedID
}

// Resolve returns the canonical agency key for a stop.
// Some agencies are split by stop membership: TTC subway platforms are
// served by a separate TransSee agency, as are GO train stations.
func Resolve(stop models.Stop) string {
	name := OnestopName(stop.FeedID)
	if alias, ok := aliases[name]; ok {
		return alias
	}

	switch name {
	case TTC:
		if ttcSubwayStations[stop.Code] {
			return TTCSubway
		}
	case GOTransit:
		if goTrainStations[stop.ID] {
			return GOTrain
		}
	}
	return name
}

// StopTags returns the TransSee "route|stop" tags to query for a stop.
// ok is false when the agency is queried by plain stop code instead.
func StopTags(key string, stop models.Stop) (tags []string, ok bool) {
	switch key {
	case UPExpress:
		return []string{"UP|" + stop.ID}, true
	case GOTrain:
		return goTrainTags(stop.ID), true
	case VIARail:
		// VIA stop codes do not map onto TransSee route tags yet
		return nil, true
	}
	return nil, false
}

func goTrainTags(stopID string) []string {
	if stopID == "UN" {
		tags := make([]string, 0, len(unionLines))
		for _, line := range unionLines {
			tags = append(tags, line+"|UN_0")
		}
		return tags
	}
	if line, ok := goTrainLines[stopID]; ok {
		return []string{line + "|" + stopID + "_0"}
	}
	return nil
}
