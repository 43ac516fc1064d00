package models

import (
	"errors"
	"testing"
	"time"
)

func TestThreatEvent_IsActive(t *testing.T) {
	now := time.UnixMilli(1_705_320_000_000)

	tests := []struct {
		name      string
		timestamp int64
		duration  int64
		expected  bool
	}{
		{"fresh", now.UnixMilli() - 2000, 5000, true},
		{"expired", now.UnixMilli() - 10000, 5000, false},
		{"expires exactly now", now.UnixMilli() - 5000, 5000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ThreatEvent{Timestamp: tt.timestamp, Duration: tt.duration}
			if got := e.IsActive(now); got != tt.expected {
				t.Errorf("IsActive() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDefaultFilters(t *testing.T) {
	f := DefaultFilters()

	if f.TimeRange != TimeRangeAll {
		t.Errorf("Expected time range all, got %s", f.TimeRange)
	}
	for _, s := range Severities {
		if !f.Severity[s] {
			t.Errorf("Expected severity %s enabled", s)
		}
	}
	for _, typ := range AttackTypes {
		if !f.AttackType[typ] {
			t.Errorf("Expected attack type %s enabled", typ)
		}
	}

	c := f.Clone()
	c.Severity[SeverityLow] = false
	if !f.Severity[SeverityLow] {
		t.Error("Clone shares severity map with original")
	}
}

func TestFilterPatch_Validate(t *testing.T) {
	bad := TimeRange("2hr")
	good := TimeRange5Min

	tests := []struct {
		name    string
		patch   FilterPatch
		wantErr error
	}{
		{"empty", FilterPatch{}, nil},
		{"valid", FilterPatch{Severity: map[Severity]bool{SeverityLow: false}, TimeRange: &good}, nil},
		{"bad severity", FilterPatch{Severity: map[Severity]bool{"high": true}}, ErrUnknownSeverity},
		{"bad type", FilterPatch{AttackType: map[AttackType]bool{"SQLi": true}}, ErrUnknownAttackType},
		{"bad range", FilterPatch{TimeRange: &bad}, ErrUnknownTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestThreatStats_Clone(t *testing.T) {
	country := "USA"
	s := EmptyStats()
	s.TopSourceCountry = &country

	c := s.Clone()
	c.ByRegion[RegionNA] = 5
	*c.TopSourceCountry = "UK"

	if s.ByRegion[RegionNA] != 0 {
		t.Error("Clone shares region map with original")
	}
	if *s.TopSourceCountry != "USA" {
		t.Error("Clone shares top country pointer with original")
	}
}
