package store

import (
	"time"

	geojson "github.com/paulmach/go.geojson"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
	"github.com/hervehildenbrand/threat-radar/pkg/threat"
)

// State is a point-in-time copy of every store field. MapFeatures is shared
// with the store and must be treated as read-only; it is replaced, never
// mutated, on recompute.
type State struct {
	ActiveThreats []models.ThreatEvent       `json:"activeThreats"`
	Logs          []models.ThreatEvent       `json:"logs"`
	StatsGlobal   models.ThreatStats         `json:"statsGlobal"`
	Filters       models.FilterState         `json:"filters"`
	MapFeatures   *geojson.FeatureCollection `json:"mapFeatures"`
	IsLive        bool                       `json:"isLive"`
}

// FilteredLogs returns the logs that pass the current filters.
func FilteredLogs(s State, now time.Time) []models.ThreatEvent {
	return threat.Filter(s.Logs, s.Filters, now)
}

// FilteredActiveThreats returns the active threats that pass the current filters.
func FilteredActiveThreats(s State, now time.Time) []models.ThreatEvent {
	return threat.Filter(s.ActiveThreats, s.Filters, now)
}

// FilteredStats aggregates the filtered logs.
func FilteredStats(s State, now time.Time) models.ThreatStats {
	return threat.ComputeStats(FilteredLogs(s, now), now)
}

// View is a State together with its derived selectors, evaluated at At.
type View struct {
	State
	FilteredLogs          []models.ThreatEvent `json:"filteredLogs"`
	FilteredActiveThreats []models.ThreatEvent `json:"filteredActiveThreats"`
	FilteredStats         models.ThreatStats   `json:"filteredStats"`
	At                    int64                `json:"at"`
}

// NewView evaluates every selector over s.
func NewView(s State, now time.Time) View {
	logs := FilteredLogs(s, now)
	return View{
		State:                 s,
		FilteredLogs:          logs,
		FilteredActiveThreats: FilteredActiveThreats(s, now),
		FilteredStats:         threat.ComputeStats(logs, now),
		At:                    now.UnixMilli(),
	}
}

func copyEvents(events []models.ThreatEvent) []models.ThreatEvent {
	out := make([]models.ThreatEvent, len(events))
	copy(out, events)
	return out
}

// prepend returns a new slice with e first, truncated to limit.
func prepend(events []models.ThreatEvent, e models.ThreatEvent, limit int) []models.ThreatEvent {
	keep := len(events)
	if keep > limit-1 {
		keep = limit - 1
	}
	if keep < 0 {
		keep = 0
	}
	out := make([]models.ThreatEvent, 0, keep+1)
	out = append(out, e)
	return append(out, events[:keep]...)
}
