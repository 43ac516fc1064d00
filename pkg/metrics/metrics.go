// Package metrics defines the Prometheus instruments exported by threat-radar.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Ingest: events accepted by the store, by severity
	ThreatsAdded *prometheus.CounterVec

	// Retained collection sizes
	ActiveThreats prometheus.Gauge
	LogEntries    prometheus.Gauge

	// Map pipeline: completed recomputes and debounce restarts
	MapRecomputes       prometheus.Counter
	DebounceReschedules prometheus.Counter

	// Active threats evicted by pruning
	PrunedThreats prometheus.Counter

	// Simulation resets
	Resets prometheus.Counter

	// Generator emissions by kind (single, swarm)
	Emissions *prometheus.CounterVec

	// Connected websocket clients
	FeedClients prometheus.Gauge
}

// New registers all instruments on reg. A nil reg gets a private registry
// that nothing scrapes.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		ThreatsAdded: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "threat_radar_threats_added_total",
			Help: "Total number of threat events added to the store.",
		}, []string{"severity"}),

		ActiveThreats: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "threat_radar_active_threats",
			Help: "Current number of retained active threats.",
		}),

		LogEntries: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "threat_radar_log_entries",
			Help: "Current number of retained log entries.",
		}),

		MapRecomputes: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "threat_radar_map_recomputes_total",
			Help: "Total number of debounced map feature recomputes.",
		}),

		DebounceReschedules: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "threat_radar_debounce_reschedules_total",
			Help: "Map update triggers that replaced a pending recompute.",
		}),

		PrunedThreats: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "threat_radar_pruned_threats_total",
			Help: "Total number of expired threats pruned from the active set.",
		}),

		Resets: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "threat_radar_resets_total",
			Help: "Total number of simulation resets.",
		}),

		Emissions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "threat_radar_generator_emissions_total",
			Help: "Generator emissions by kind.",
		}, []string{"kind"}),

		FeedClients: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "threat_radar_feed_clients",
			Help: "Current number of connected websocket clients.",
		}),
	}
}
