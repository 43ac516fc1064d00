package api

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/metrics"
	"github.com/hervehildenbrand/threat-radar/pkg/models"
	"github.com/hervehildenbrand/threat-radar/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.Store) {
	t.Helper()
	reg := prometheus.NewRegistry()
	s := store.New(store.WithDebounce(10*time.Millisecond), store.WithMetrics(metrics.New(reg)))
	t.Cleanup(s.Close)
	return NewServer(s, nil, reg, zap.NewNop()), s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func addEvent(s *store.Store, id string, sev models.Severity) {
	s.AddThreat(models.ThreatEvent{
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
		Source:    models.Location{Name: "Toronto", Country: "Canada", Region: models.RegionNA, Lat: 43.65, Lng: -79.38},
		Target:    models.Location{Name: "Nairobi", Country: "Kenya", Region: models.RegionAF, Lat: -1.29, Lng: 36.82},
		Type:      models.AttackIntrusion,
		Severity:  sev,
		Duration:  60000,
		Metadata:  models.Metadata{IP: "81.2.3.4", PacketCount: 7},
	})
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSimulationEndpoints(t *testing.T) {
	srv, s := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/api/v1/simulation/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isLive": true}`, rec.Body.String())
	assert.True(t, s.IsLive())

	addEvent(s, "a", models.SeverityLow)

	rec = do(t, srv, http.MethodPost, "/api/v1/simulation/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, s.IsLive())
	assert.Empty(t, s.Logs())

	var view store.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Nil(t, view.MapFeatures)
	assert.Equal(t, 0, view.StatsGlobal.TotalAttacks)
}

func TestFilterEndpoints(t *testing.T) {
	srv, s := newTestServer(t)

	rec := do(t, srv, http.MethodPatch, "/api/v1/filters", `{"severity": {"low": false}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var f models.FilterState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.False(t, f.Severity[models.SeverityLow])
	assert.True(t, f.Severity[models.SeverityMedium])
	assert.True(t, f.Severity[models.SeverityCritical])

	rec = do(t, srv, http.MethodPatch, "/api/v1/filters", `{"timeRange": "1min"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.TimeRange1Min, s.Filters().TimeRange)
	assert.False(t, s.Filters().Severity[models.SeverityLow], "time range update must keep severity toggles")

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"severity":`},
		{"unknown severity", `{"severity": {"high": true}}`},
		{"unknown type", `{"attackType": {"SQLi": true}}`},
		{"unknown range", `{"timeRange": "1day"}`},
		{"unknown field", `{"colour": "red"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPatch, "/api/v1/filters", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}

	rec = do(t, srv, http.MethodDelete, "/api/v1/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultFilters(), s.Filters())

	rec = do(t, srv, http.MethodGet, "/api/v1/filters", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReadEndpoints(t *testing.T) {
	srv, s := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/api/v1/map", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()), "map is null before first compute")

	addEvent(s, "low-1", models.SeverityLow)
	addEvent(s, "crit-1", models.SeverityCritical)
	s.SetFilters(models.FilterPatch{Severity: map[models.Severity]bool{models.SeverityLow: false}})

	var logs []models.ThreatEvent
	rec = do(t, srv, http.MethodGet, "/api/v1/logs", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "crit-1", logs[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/v1/logs?raw=1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 2)

	rec = do(t, srv, http.MethodGet, "/api/v1/threats/active", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	assert.Len(t, logs, 1)

	var stats struct {
		Global   models.ThreatStats `json:"global"`
		Filtered models.ThreatStats `json:"filtered"`
	}
	rec = do(t, srv, http.MethodGet, "/api/v1/stats", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Global.TotalAttacks)
	assert.Equal(t, 1, stats.Filtered.TotalAttacks)
	require.NotNil(t, stats.Global.TopSourceCountry)
	assert.Equal(t, "Canada", *stats.Global.TopSourceCountry)

	require.Eventually(t, func() bool {
		fc := s.MapFeatures()
		return fc != nil && len(fc.Features) == 1
	}, time.Second, 5*time.Millisecond)
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	rec = do(t, srv, http.MethodGet, "/api/v1/map", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 1)

	rec = do(t, srv, http.MethodGet, "/api/v1/map/points", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Len(t, fc.Features, 2)

	rec = do(t, srv, http.MethodGet, "/api/v1/state", "")
	var view store.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Len(t, view.Logs, 2)
	assert.Len(t, view.FilteredLogs, 1)
}

func TestExport(t *testing.T) {
	srv, s := newTestServer(t)
	addEvent(s, "e1", models.SeverityLow)
	addEvent(s, "e2", models.SeverityCritical)

	rec := do(t, srv, http.MethodGet, "/api/v1/export?format=csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "e2", records[1][0], "newest first")

	s.SetFilters(models.FilterPatch{Severity: map[models.Severity]bool{models.SeverityCritical: false}})
	rec = do(t, srv, http.MethodGet, "/api/v1/export?format=json&filtered=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var events []models.ThreatEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)

	rec = do(t, srv, http.MethodGet, "/api/v1/export?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, s := newTestServer(t)
	addEvent(s, "m1", models.SeverityCritical)

	rec := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `threat_radar_threats_added_total{severity="critical"} 1`)
	assert.Contains(t, rec.Body.String(), "threat_radar_log_entries 1")
}
