package threat

import (
	"testing"
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

func TestMatches_Composition(t *testing.T) {
	e := event("e1", models.SeverityCritical, models.AttackDDoS, 30*time.Second, newYork, london)

	base := func() models.FilterState {
		return models.FilterState{
			Severity:   map[models.Severity]bool{models.SeverityCritical: true},
			AttackType: map[models.AttackType]bool{models.AttackDDoS: true},
			TimeRange:  models.TimeRange1Min,
		}
	}

	if !Matches(e, base(), testNow) {
		t.Fatal("Expected critical DDoS event aged 30s to match")
	}

	tests := []struct {
		name   string
		mutate func(f *models.FilterState)
	}{
		{"severity disabled", func(f *models.FilterState) { f.Severity[models.SeverityCritical] = false }},
		{"type disabled", func(f *models.FilterState) { f.AttackType[models.AttackDDoS] = false }},
		{"severity key missing", func(f *models.FilterState) { delete(f.Severity, models.SeverityCritical) }},
		{"type key missing", func(f *models.FilterState) { f.AttackType = map[models.AttackType]bool{} }},
		{"nil maps", func(f *models.FilterState) { f.Severity, f.AttackType = nil, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base()
			tt.mutate(&f)
			if Matches(e, f, testNow) {
				t.Errorf("Expected no match after %s", tt.name)
			}
		})
	}
}

func TestMatches_TimeRange(t *testing.T) {
	tests := []struct {
		name      string
		age       time.Duration
		timeRange models.TimeRange
		expected  bool
	}{
		{"30s in 1min", 30 * time.Second, models.TimeRange1Min, true},
		{"90s in 1min", 90 * time.Second, models.TimeRange1Min, false},
		{"3min in 5min", 3 * time.Minute, models.TimeRange5Min, true},
		{"6min in 5min", 6 * time.Minute, models.TimeRange5Min, false},
		{"30min in 1hr", 30 * time.Minute, models.TimeRange1Hr, true},
		{"90min in 1hr", 90 * time.Minute, models.TimeRange1Hr, false},
		{"1 day in all", 24 * time.Hour, models.TimeRangeAll, true},
		{"fresh in all", 0, models.TimeRangeAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := event("e", models.SeverityLow, models.AttackMalware, tt.age, newYork, london)
			f := models.DefaultFilters()
			f.TimeRange = tt.timeRange
			if got := Matches(e, f, testNow); got != tt.expected {
				t.Errorf("Matches(age=%v, range=%s) = %v, want %v", tt.age, tt.timeRange, got, tt.expected)
			}
		})
	}
}

func TestFilter_PreservesOrder(t *testing.T) {
	events := []models.ThreatEvent{
		event("a", models.SeverityLow, models.AttackDDoS, time.Second, newYork, london),
		event("b", models.SeverityMedium, models.AttackDDoS, time.Second, newYork, london),
		event("c", models.SeverityLow, models.AttackBotnet, time.Second, newYork, london),
	}
	f := models.DefaultFilters()
	f.Severity[models.SeverityMedium] = false

	got := Filter(events, f, testNow)
	if len(got) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(got))
	}
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Expected order [a c], got [%s %s]", got[0].ID, got[1].ID)
	}
	if len(events) != 3 {
		t.Error("Input slice was modified")
	}
}
