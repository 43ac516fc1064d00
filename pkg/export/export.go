// Package export serializes threat logs to JSON and CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Format is an export encoding.
type Format string

// Export formats
const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{
	"id", "timestamp", "type", "severity",
	"source_city", "source_country", "source_region",
	"target_city", "target_country", "target_region",
	"ip", "payload_size", "packet_count", "swarm_id",
}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON, FormatCSV:
		return Format(s), nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/json"
}

// Filename returns a download name stamped with t.
func (f Format) Filename(t time.Time) string {
	return fmt.Sprintf("threat-log-%s.%s", t.UTC().Format("20060102-150405"), f)
}

// Write encodes events in the given format.
func Write(w io.Writer, f Format, events []models.ThreatEvent) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, events)
	case FormatCSV:
		return WriteCSV(w, events)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// WriteJSON writes events as an indented JSON array in the given order.
func WriteJSON(w io.Writer, events []models.ThreatEvent) error {
	if events == nil {
		events = []models.ThreatEvent{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(events); err != nil {
		return fmt.Errorf("encode json export: %w", err)
	}
	return nil
}

// WriteCSV writes a header row and one row per event.
func WriteCSV(w io.Writer, events []models.ThreatEvent) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range events {
		if err := cw.Write(csvRow(e)); err != nil {
			return fmt.Errorf("write csv row %s: %w", e.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv export: %w", err)
	}
	return nil
}

func csvRow(e models.ThreatEvent) []string {
	payload := ""
	if e.Metadata.PayloadSize != nil {
		payload = strconv.Itoa(*e.Metadata.PayloadSize)
	}
	return []string{
		e.ID,
		e.Time().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		string(e.Type),
		string(e.Severity),
		e.Source.Name,
		e.Source.Country,
		string(e.Source.Region),
		e.Target.Name,
		e.Target.Country,
		string(e.Target.Region),
		e.Metadata.IP,
		payload,
		strconv.Itoa(e.Metadata.PacketCount),
		e.Metadata.SwarmID,
	}
}
