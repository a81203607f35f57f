// Package eta turns the time representations providers use into
// minutes from a reference instant.
package eta

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrMissingTimeField is returned when a departure carries no usable time
var ErrMissingTimeField = errors.New("departure has no usable time field")

// FromClock converts a wall-clock time of day into minutes after ref.
//
// Upstream service dates are unreliable, so serviceDate is ignored and the
// time is placed on ref's calendar day in ref's location. A time that has
// already passed is assumed to be the same clock time tomorrow.
func FromClock(ref time.Time, serviceDate, clock string) (int, error) {
	h, mi, sec, err := parseClock(clock)
	if err != nil {
		return 0, err
	}

	// GTFS hours past 23 belong to the previous service day; only the
	// time of day matters once the service date is ignored
	y, m, d := ref.Date()
	candidate := time.Date(y, m, d, h%24, mi, sec, 0, ref.Location())
	if candidate.Before(ref) {
		candidate = candidate.AddDate(0, 0, 1)
	}

	return minutesBetween(ref, candidate), nil
}

// FromInstant converts an absolute instant into minutes after ref
func FromInstant(ref, t time.Time) (int, error) {
	if t.IsZero() {
		return 0, ErrMissingTimeField
	}
	return minutesBetween(ref, t), nil
}

// FromMinutes parses a relative minute count as reported by a provider
func FromMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingTimeField
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMissingTimeField, s)
	}
	return n, nil
}

// parseClock parses HH:MM or HH:MM:SS. Hours may exceed 23 as in GTFS.
func parseClock(clock string) (hour, minute, second int, err error) {
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return 0, 0, 0, ErrMissingTimeField
	}

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMissingTimeField, clock)
	}

	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, 0, fmt.Errorf("%w: %q", ErrMissingTimeField, clock)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 {
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrMissingTimeField, clock)
	}

	return fields[0], fields[1], fields[2], nil
}

func minutesBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Minutes()))
}
