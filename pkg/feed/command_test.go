package feed

import (
	"errors"
	"testing"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

func TestParseCommand_SetFilters(t *testing.T) {
	msg := []byte(`{
		"type": "set_filters",
		"data": {
			"severity": {"low": false},
			"attackType": {"DDoS": false, "Botnet": true},
			"timeRange": "5min"
		}
	}`)

	cmd, err := ParseCommand(msg)
	if err != nil {
		t.Fatalf("ParseCommand failed: %v", err)
	}
	if cmd == nil {
		t.Fatal("Expected command, got nil")
	}

	if cmd.Type != CommandSetFilters {
		t.Errorf("Expected type set_filters, got %s", cmd.Type)
	}
	if v, ok := cmd.Filters.Severity[models.SeverityLow]; !ok || v {
		t.Errorf("Expected severity low=false, got %v (present=%v)", v, ok)
	}
	if _, ok := cmd.Filters.Severity[models.SeverityMedium]; ok {
		t.Error("Expected medium to be absent from the patch")
	}
	if cmd.Filters.AttackType[models.AttackDDoS] {
		t.Error("Expected DDoS=false")
	}
	if cmd.Filters.TimeRange == nil || *cmd.Filters.TimeRange != models.TimeRange5Min {
		t.Errorf("Expected time range 5min, got %v", cmd.Filters.TimeRange)
	}
}

func TestParseCommand_Simple(t *testing.T) {
	tests := []struct {
		msg      string
		expected CommandType
	}{
		{`{"type": "toggle_simulation"}`, CommandToggleSimulation},
		{`{"type": "reset_simulation"}`, CommandResetSimulation},
		{`{"type": "clear_filters", "data": {}}`, CommandClearFilters},
	}

	for _, tt := range tests {
		cmd, err := ParseCommand([]byte(tt.msg))
		if err != nil {
			t.Errorf("ParseCommand(%s) failed: %v", tt.msg, err)
			continue
		}
		if cmd == nil || cmd.Type != tt.expected {
			t.Errorf("ParseCommand(%s) = %+v, want type %s", tt.msg, cmd, tt.expected)
		}
	}
}

func TestParseCommand_UnknownType(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"type": "ping"}`))
	if err != nil {
		t.Errorf("Expected no error for unknown type, got %v", err)
	}
	if cmd != nil {
		t.Errorf("Expected nil command for unknown type, got %+v", cmd)
	}
}

func TestParseCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		wantErr error
	}{
		{"invalid json", `{not json`, nil},
		{"missing data", `{"type": "set_filters"}`, nil},
		{"bad patch", `{"type": "set_filters", "data": {"severity": []}}`, nil},
		{"unknown severity", `{"type": "set_filters", "data": {"severity": {"high": true}}}`, models.ErrUnknownSeverity},
		{"unknown range", `{"type": "set_filters", "data": {"timeRange": "1day"}}`, models.ErrUnknownTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.msg))
			if err == nil {
				t.Fatalf("Expected error, got command %+v", cmd)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

type recordingController struct {
	calls []string
	patch models.FilterPatch
}

func (r *recordingController) ToggleSimulation() bool { r.calls = append(r.calls, "toggle"); return true }
func (r *recordingController) ResetSimulation()       { r.calls = append(r.calls, "reset") }
func (r *recordingController) ClearAllFilters()       { r.calls = append(r.calls, "clear") }
func (r *recordingController) SetFilters(p models.FilterPatch) {
	r.calls = append(r.calls, "set")
	r.patch = p
}

func TestApply(t *testing.T) {
	c := &recordingController{}
	oneHr := models.TimeRange1Hr

	Apply(c, &Command{Type: CommandToggleSimulation})
	Apply(c, &Command{Type: CommandSetFilters, Filters: models.FilterPatch{TimeRange: &oneHr}})
	Apply(c, &Command{Type: CommandClearFilters})
	Apply(c, &Command{Type: CommandResetSimulation})

	expected := []string{"toggle", "set", "clear", "reset"}
	if len(c.calls) != len(expected) {
		t.Fatalf("Expected %d calls, got %v", len(expected), c.calls)
	}
	for i := range expected {
		if c.calls[i] != expected[i] {
			t.Errorf("Call %d = %s, want %s", i, c.calls[i], expected[i])
		}
	}
	if c.patch.TimeRange == nil || *c.patch.TimeRange != models.TimeRange1Hr {
		t.Errorf("Expected patch with 1hr range, got %+v", c.patch)
	}
}
