package provider

import (
	"bytes"
	"encoding/json"
)

// Wire types for the TransSee public JSON feed. TransSee mirrors the NextBus
// schema, which encodes single-element lists as bare objects.

type tsResponse struct {
	Predictions oneOrMany[tsRoute] `json:"predictions"`
	Error       *tsError           `json:"Error"`
}

type tsError struct {
	Content     string `json:"content"`
	ShouldRetry string `json:"shouldRetry"`
}

type tsRoute struct {
	AgencyTitle string                 `json:"agencyTitle"`
	RouteTag    string                 `json:"routeTag"`
	RouteTitle  string                 `json:"routeTitle"`
	StopTitle   string                 `json:"stopTitle"`
	Color       string                 `json:"color"`
	Direction   oneOrMany[tsDirection] `json:"direction"`
}

type tsDirection struct {
	Title      string                  `json:"title"`
	Prediction oneOrMany[tsPrediction] `json:"prediction"`
}

type tsPrediction struct {
	Minutes   string `json:"minutes"`
	EpochTime string `json:"epochTime"`
	DirTag    string `json:"dirTag"`
	Vehicle   string `json:"vehicle"`
	TripTag   string `json:"tripTag"`
}

// oneOrMany decodes either a JSON array or a single object into a slice
type oneOrMany[T any] []T

func (o *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*o = nil
		return nil
	}

	if data[0] == '[' {
		var many []T
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*o = many
		return nil
	}

	var one T
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*o = oneOrMany[T]{one}
	return nil
}
