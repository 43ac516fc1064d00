package threat

import (
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// ComputeStats reduces a collection of events into summary counts.
// activeCritical is evaluated against now.
func ComputeStats(events []models.ThreatEvent, now time.Time) models.ThreatStats {
	stats := models.EmptyStats()
	stats.TotalAttacks = len(events)
	nowMs := now.UnixMilli()

	countries := newCounter[string]()
	regions := newCounter[models.Region]()

	for _, e := range events {
		stats.BySeverity[e.Severity]++
		stats.ByRegion[e.Source.Region]++

		if IsCritical(e) && e.ExpiresAt() > nowMs {
			stats.ActiveCritical++
		}

		countries.add(e.Source.Country)
		regions.add(e.Source.Region)
	}

	if country, count, ok := countries.top(); ok && count > 0 {
		stats.TopSourceCountry = &country
	}
	if region, count, ok := regions.top(); ok && count > 0 {
		stats.TopSourceRegion = &region
	}

	return stats
}

// counter tallies keys and remembers first-seen order so ties resolve to
// the earliest key.
type counter[K comparable] struct {
	counts map[K]int
	order  []K
}

func newCounter[K comparable]() *counter[K] {
	return &counter[K]{counts: make(map[K]int)}
}

func (c *counter[K]) add(key K) {
	if _, seen := c.counts[key]; !seen {
		c.order = append(c.order, key)
	}
	c.counts[key]++
}

// top returns the first key holding the strictly highest count.
func (c *counter[K]) top() (K, int, bool) {
	var best K
	if len(c.order) == 0 {
		return best, 0, false
	}
	best = c.order[0]
	bestCount := c.counts[best]
	for _, key := range c.order[1:] {
		if n := c.counts[key]; n > bestCount {
			best, bestCount = key, n
		}
	}
	return best, bestCount, true
}
