// Package threat provides the pure functions the threat store is built on:
// filter matching, statistics aggregation and geospatial projection.
package threat

import (
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// TimeRangeDurations maps each bounded time range to its look-back window.
// TimeRangeAll is intentionally absent.
var TimeRangeDurations = map[models.TimeRange]time.Duration{
	models.TimeRange1Min: time.Minute,
	models.TimeRange5Min: 5 * time.Minute,
	models.TimeRange1Hr:  time.Hour,
}

// WindowFor returns the look-back window for a time range and whether the
// range is bounded at all.
func WindowFor(tr models.TimeRange) (time.Duration, bool) {
	d, ok := TimeRangeDurations[tr]
	return d, ok
}

// IsCritical checks if an event has critical severity.
func IsCritical(e models.ThreatEvent) bool {
	return e.Severity == models.SeverityCritical
}

// IsSwarm checks if an event belongs to a grouped attack.
func IsSwarm(e models.ThreatEvent) bool {
	return e.Metadata.SwarmID != ""
}
