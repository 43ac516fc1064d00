package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

func sampleEvents() []models.ThreatEvent {
	size := 1500
	return []models.ThreatEvent{
		{
			ID:        "evt-2",
			Timestamp: 1705320000123,
			Source:    models.Location{Name: "Lagos", Country: "Nigeria", Region: models.RegionAF, Lat: 6.52, Lng: 3.37},
			Target:    models.Location{Name: "Paris", Country: "France", Region: models.RegionEU, Lat: 48.85, Lng: 2.35},
			Type:      models.AttackDDoS,
			Severity:  models.SeverityCritical,
			Duration:  4000,
			Metadata:  models.Metadata{IP: "45.1.2.3", PayloadSize: &size, PacketCount: 900, SwarmID: "swarm-a"},
		},
		{
			ID:        "evt-1",
			Timestamp: 1705319999000,
			Source:    models.Location{Name: "Seoul, Gangnam", Country: "South Korea", Region: models.RegionAS},
			Target:    models.Location{Name: "Sydney", Country: "Australia", Region: models.RegionOC},
			Type:      models.AttackPhishing,
			Severity:  models.SeverityLow,
			Duration:  3000,
			Metadata:  models.Metadata{IP: "81.9.9.9", PacketCount: 12},
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleEvents()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Reading CSV back failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d records", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(CSVHeader, ",") {
		t.Errorf("Unexpected header: %v", records[0])
	}

	first := records[1]
	tests := []struct {
		column   int
		expected string
	}{
		{0, "evt-2"},
		{1, "2024-01-15T12:00:00.123Z"},
		{2, "DDoS"},
		{3, "critical"},
		{4, "Lagos"},
		{9, "EU"},
		{11, "1500"},
		{12, "900"},
		{13, "swarm-a"},
	}
	for _, tt := range tests {
		if got := first[tt.column]; got != tt.expected {
			t.Errorf("Column %s = %q, want %q", CSVHeader[tt.column], got, tt.expected)
		}
	}

	second := records[2]
	if second[4] != "Seoul, Gangnam" {
		t.Errorf("Expected quoted city to round-trip, got %q", second[4])
	}
	if second[11] != "" {
		t.Errorf("Expected empty payload size, got %q", second[11])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleEvents()); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var decoded []models.ThreatEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(decoded) != 2 || decoded[0].ID != "evt-2" || decoded[1].ID != "evt-1" {
		t.Errorf("Unexpected decoded order: %+v", decoded)
	}
	if decoded[1].Metadata.PayloadSize != nil {
		t.Error("Expected absent payload size to stay absent")
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("Expected empty array, got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"", FormatJSON, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
