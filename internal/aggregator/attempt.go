package aggregator

import "github.com/jusunglee/departures-go/internal/models"

type outcome int

const (
	// attemptSkipped means no secondary provider is configured
	attemptSkipped outcome = iota
	attemptOK
	attemptFailed
)

// attempt is the tagged result of asking the secondary provider
type attempt struct {
	outcome outcome
	source  models.Source
	batches []models.StopDepartures
	err     error
}
