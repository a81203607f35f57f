// Package corrections holds per-agency fixes to how departures are displayed.
//
// Upstream names are often too long for the watch, shouted in capitals, or
// classify rail lines as buses. A Rule rewrites the Display of a departure
// and nothing else: it receives the departure by value and may only write
// through the Display pointer, so dedup keys, ETAs and identity fields are
// out of its reach.
package corrections

import "github.com/jusunglee/departures-go/internal/models"

// Rule adjusts the display fields of a departure
type Rule func(d models.Departure, display *models.Display)

// Registry maps agency keys to correction rules
type Registry struct {
	rules map[string]Rule
}

// NewRegistry creates a registry from a fixed rule table
func NewRegistry(rules map[string]Rule) *Registry {
	r := &Registry{rules: make(map[string]Rule, len(rules))}
	for key, rule := range rules {
		r.rules[key] = rule
	}
	return r
}

// Apply runs the rule registered for key. Unknown keys leave d untouched.
func (r *Registry) Apply(key string, d models.Departure) models.Departure {
	if r == nil {
		return d
	}
	rule, ok := r.rules[key]
	if !ok || rule == nil {
		return d
	}

	display := d.Display
	rule(d, &display)
	d.Display = display
	return d
}

// Has reports whether a rule is registered for key
func (r *Registry) Has(key string) bool {
	if r == nil {
		return false
	}
	_, ok := r.rules[key]
	return ok
}

// ForSource returns the registry matching the provider a departure came from
func ForSource(source models.Source) *Registry {
	switch source {
	case models.SourceTransitland:
		return transitland
	case models.SourceTransSee:
		return transsee
	}
	return nil
}

var (
	transitland = Transitland()
	transsee    = TransSee()
)
