// Package models defines data structures for simulated threat events and the
// filter and statistics values derived from them.
package models

import "time"

// Severity is the ordered severity of a threat event.
type Severity string

// Severity levels, lowest first.
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity level in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityCritical}

// AttackType is one of the closed set of attack categories.
type AttackType string

// Attack types
const (
	AttackDDoS       AttackType = "DDoS"
	AttackMalware    AttackType = "Malware"
	AttackPhishing   AttackType = "Phishing"
	AttackRansomware AttackType = "Ransomware"
	AttackIntrusion  AttackType = "Intrusion"
	AttackBotnet     AttackType = "Botnet"
)

// AttackTypes lists every attack type.
var AttackTypes = []AttackType{
	AttackDDoS, AttackMalware, AttackPhishing,
	AttackRansomware, AttackIntrusion, AttackBotnet,
}

// Region is a continental region code.
type Region string

// Region codes
const (
	RegionNA Region = "NA" // North America
	RegionSA Region = "SA" // South America
	RegionEU Region = "EU" // Europe
	RegionAS Region = "AS" // Asia
	RegionAF Region = "AF" // Africa
	RegionOC Region = "OC" // Oceania
)

// Regions lists all six region codes.
var Regions = []Region{RegionNA, RegionSA, RegionEU, RegionAS, RegionAF, RegionOC}

// Location is a geographic endpoint of a threat event.
type Location struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Region  Region  `json:"region"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Metadata carries auxiliary attributes of a threat event.
type Metadata struct {
	IP          string `json:"ip"`
	PayloadSize *int   `json:"payloadSize,omitempty"`
	PacketCount int    `json:"packetCount"`
	SwarmID     string `json:"swarmId,omitempty"`
	BatchID     string `json:"batchId,omitempty"`
	SwarmSize   int    `json:"swarmSize,omitempty"`
}

// ThreatEvent is an immutable record of a simulated attack.
// Timestamp is epoch milliseconds and Duration is milliseconds.
type ThreatEvent struct {
	ID        string     `json:"id"`
	Timestamp int64      `json:"timestamp"`
	Source    Location   `json:"source"`
	Target    Location   `json:"target"`
	Type      AttackType `json:"type"`
	Severity  Severity   `json:"severity"`
	Duration  int64      `json:"duration"`
	Metadata  Metadata   `json:"metadata"`
}

// ExpiresAt returns the epoch millisecond at which the event stops being active.
func (e ThreatEvent) ExpiresAt() int64 {
	return e.Timestamp + e.Duration
}

// IsActive reports whether now is before the event's expiry.
func (e ThreatEvent) IsActive(now time.Time) bool {
	return now.UnixMilli() < e.ExpiresAt()
}

// Age returns how long ago the event was created, in milliseconds.
func (e ThreatEvent) Age(now time.Time) int64 {
	return now.UnixMilli() - e.Timestamp
}

// Time returns the creation time.
func (e ThreatEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// TimeRange selects how far back the filter looks.
type TimeRange string

// Time ranges
const (
	TimeRange1Min TimeRange = "1min"
	TimeRange5Min TimeRange = "5min"
	TimeRange1Hr  TimeRange = "1hr"
	TimeRangeAll  TimeRange = "all"
)

// FilterState is the full filter configuration. Only the enumerated keys
// control matching; a missing key counts as disabled.
type FilterState struct {
	Severity   map[Severity]bool   `json:"severity"`
	AttackType map[AttackType]bool `json:"attackType"`
	TimeRange  TimeRange           `json:"timeRange"`
}

// DefaultFilters returns a filter with everything enabled over all time.
func DefaultFilters() FilterState {
	f := FilterState{
		Severity:   make(map[Severity]bool, len(Severities)),
		AttackType: make(map[AttackType]bool, len(AttackTypes)),
		TimeRange:  TimeRangeAll,
	}
	for _, s := range Severities {
		f.Severity[s] = true
	}
	for _, t := range AttackTypes {
		f.AttackType[t] = true
	}
	return f
}

// Clone returns a deep copy of the filter.
func (f FilterState) Clone() FilterState {
	c := FilterState{
		Severity:   make(map[Severity]bool, len(f.Severity)),
		AttackType: make(map[AttackType]bool, len(f.AttackType)),
		TimeRange:  f.TimeRange,
	}
	for k, v := range f.Severity {
		c.Severity[k] = v
	}
	for k, v := range f.AttackType {
		c.AttackType[k] = v
	}
	return c
}

// FilterPatch is a partial filter update. Nested maps merge key by key;
// a non-nil TimeRange replaces the current one.
type FilterPatch struct {
	Severity   map[Severity]bool   `json:"severity,omitempty"`
	AttackType map[AttackType]bool `json:"attackType,omitempty"`
	TimeRange  *TimeRange          `json:"timeRange,omitempty"`
}

// ThreatStats is an aggregate over a collection of threat events.
type ThreatStats struct {
	TotalAttacks     int              `json:"totalAttacks"`
	ActiveCritical   int              `json:"activeCritical"`
	ByRegion         map[Region]int   `json:"byRegion"`
	BySeverity       map[Severity]int `json:"bySeverity"`
	TopSourceCountry *string          `json:"topSourceCountry"`
	TopSourceRegion  *Region          `json:"topSourceRegion"`
}

// EmptyStats returns the all-zero statistics value with every region and
// severity key present.
func EmptyStats() ThreatStats {
	s := ThreatStats{
		ByRegion:   make(map[Region]int, len(Regions)),
		BySeverity: make(map[Severity]int, len(Severities)),
	}
	for _, r := range Regions {
		s.ByRegion[r] = 0
	}
	for _, sev := range Severities {
		s.BySeverity[sev] = 0
	}
	return s
}

// Clone returns a deep copy of the statistics.
func (s ThreatStats) Clone() ThreatStats {
	c := s
	c.ByRegion = make(map[Region]int, len(s.ByRegion))
	for k, v := range s.ByRegion {
		c.ByRegion[k] = v
	}
	c.BySeverity = make(map[Severity]int, len(s.BySeverity))
	for k, v := range s.BySeverity {
		c.BySeverity[k] = v
	}
	if s.TopSourceCountry != nil {
		country := *s.TopSourceCountry
		c.TopSourceCountry = &country
	}
	if s.TopSourceRegion != nil {
		region := *s.TopSourceRegion
		c.TopSourceRegion = &region
	}
	return c
}

// Valid reports whether s is one of the known severity levels.
func (s Severity) Valid() bool {
	for _, known := range Severities {
		if s == known {
			return true
		}
	}
	return false
}

// Valid reports whether t is one of the known attack types.
func (t AttackType) Valid() bool {
	for _, known := range AttackTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Valid reports whether r is one of the six region codes.
func (r Region) Valid() bool {
	for _, known := range Regions {
		if r == known {
			return true
		}
	}
	return false
}

// Valid reports whether tr is a known time range.
func (tr TimeRange) Valid() bool {
	switch tr {
	case TimeRange1Min, TimeRange5Min, TimeRange1Hr, TimeRangeAll:
		return true
	}
	return false
}
