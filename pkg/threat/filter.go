package threat

import (
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Matches reports whether an event passes the filter at time now.
// Severity, attack type and time range are ANDed; a key missing from either
// toggle map fails the event.
func Matches(e models.ThreatEvent, f models.FilterState, now time.Time) bool {
	if !f.Severity[e.Severity] {
		return false
	}
	if !f.AttackType[e.Type] {
		return false
	}

	if f.TimeRange != models.TimeRangeAll {
		window, ok := WindowFor(f.TimeRange)
		if !ok {
			// Unknown ranges behave like "all"
			return true
		}
		if e.Age(now) > window.Milliseconds() {
			return false
		}
	}

	return true
}

// Filter returns the events that pass the filter, preserving order.
// The input slice is not modified.
func Filter(events []models.ThreatEvent, f models.FilterState, now time.Time) []models.ThreatEvent {
	result := make([]models.ThreatEvent, 0, len(events))
	for _, e := range events {
		if Matches(e, f, now) {
			result = append(result, e)
		}
	}
	return result
}
