package threat

import (
	"time"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

var testNow = time.UnixMilli(1_705_320_000_000)

func loc(name, country string, region models.Region, lat, lng float64) models.Location {
	return models.Location{Name: name, Country: country, Region: region, Lat: lat, Lng: lng}
}

var (
	newYork = loc("New York", "USA", models.RegionNA, 40.7128, -74.0060)
	chicago = loc("Chicago", "USA", models.RegionNA, 41.8781, -87.6298)
	london  = loc("London", "UK", models.RegionEU, 51.5074, -0.1278)
	tokyo   = loc("Tokyo", "Japan", models.RegionAS, 35.6762, 139.6503)
)

func event(id string, sev models.Severity, typ models.AttackType, age time.Duration, src, dst models.Location) models.ThreatEvent {
	return models.ThreatEvent{
		ID:        id,
		Timestamp: testNow.Add(-age).UnixMilli(),
		Source:    src,
		Target:    dst,
		Type:      typ,
		Severity:  sev,
		Duration:  5000,
		Metadata:  models.Metadata{IP: "203.0.113.7", PacketCount: 10},
	}
}
