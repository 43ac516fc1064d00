package threat

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Point types carried by point features.
const (
	PointSource = "source"
	PointTarget = "target"
)

// ToLineFeatures projects each event to a two-point line from its source to
// its target. Coordinates are [lng, lat]. An empty input yields an empty
// collection.
func ToLineFeatures(events []models.ThreatEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		f := geojson.NewLineStringFeature([][]float64{
			{e.Source.Lng, e.Source.Lat},
			{e.Target.Lng, e.Target.Lat},
		})
		f.ID = e.ID
		f.SetProperty("id", e.ID)
		f.SetProperty("severity", string(e.Severity))
		f.SetProperty("type", string(e.Type))
		f.SetProperty("timestamp", e.Timestamp)
		if IsSwarm(e) {
			f.SetProperty("swarmId", e.Metadata.SwarmID)
		}
		fc.AddFeature(f)
	}
	return fc
}

// ToPointFeatures projects each event to a source and a target point
// feature for endpoint markers.
func ToPointFeatures(events []models.ThreatEvent) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, e := range events {
		fc.AddFeature(pointFeature(e, e.Source, PointSource))
		fc.AddFeature(pointFeature(e, e.Target, PointTarget))
	}
	return fc
}

func pointFeature(e models.ThreatEvent, loc models.Location, pointType string) *geojson.Feature {
	f := geojson.NewPointFeature([]float64{loc.Lng, loc.Lat})
	f.ID = e.ID + "-" + pointType
	f.SetProperty("id", e.ID)
	f.SetProperty("pointType", pointType)
	f.SetProperty("severity", string(e.Severity))
	f.SetProperty("type", string(e.Type))
	f.SetProperty("city", loc.Name)
	f.SetProperty("country", loc.Country)
	f.SetProperty("ip", e.Metadata.IP)
	return f
}
