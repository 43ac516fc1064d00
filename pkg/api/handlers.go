package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/export"
	"github.com/hervehildenbrand/threat-radar/pkg/models"
	"github.com/hervehildenbrand/threat-radar/pkg/threat"
)

const maxBodySize = 64 * 1024

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.View())
}

func (s *Server) getActiveThreats(w http.ResponseWriter, r *http.Request) {
	if raw(r) {
		s.writeJSON(w, http.StatusOK, s.store.ActiveThreats())
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.FilteredActiveThreats())
}

func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	if raw(r) {
		s.writeJSON(w, http.StatusOK, s.store.Logs())
		return
	}
	s.writeJSON(w, http.StatusOK, s.store.FilteredLogs())
}

type statsResponse struct {
	Global   models.ThreatStats `json:"global"`
	Filtered models.ThreatStats `json:"filtered"`
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statsResponse{
		Global:   s.store.StatsGlobal(),
		Filtered: s.store.FilteredStats(),
	})
}

func (s *Server) getMap(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.MapFeatures())
}

func (s *Server) getMapPoints(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, threat.ToPointFeatures(s.store.FilteredActiveThreats()))
}

func (s *Server) toggleSimulation(w http.ResponseWriter, r *http.Request) {
	live := s.store.ToggleSimulation()
	s.writeJSON(w, http.StatusOK, map[string]bool{"isLive": live})
}

func (s *Server) resetSimulation(w http.ResponseWriter, r *http.Request) {
	s.store.ResetSimulation()
	s.writeJSON(w, http.StatusOK, s.store.View())
}

func (s *Server) getFilters(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) setFilters(w http.ResponseWriter, r *http.Request) {
	var patch models.FilterPatch
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid filter patch: "+err.Error())
		return
	}
	if err := patch.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.store.SetFilters(patch)
	s.writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) clearFilters(w http.ResponseWriter, r *http.Request) {
	s.store.ClearAllFilters()
	s.writeJSON(w, http.StatusOK, s.store.Filters())
}

func (s *Server) exportLogs(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := s.store.Logs()
	if isSet(r, "filtered") {
		events = s.store.FilteredLogs()
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, events); err != nil {
		s.logger.Error("export failed", zap.String("format", string(format)), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+format.Filename(s.store.Now())+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func raw(r *http.Request) bool {
	return isSet(r, "raw")
}

func isSet(r *http.Request, key string) bool {
	switch r.URL.Query().Get(key) {
	case "1", "true", "yes":
		return true
	}
	return false
}
