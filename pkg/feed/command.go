// Package feed pushes threat store snapshots to websocket clients and
// applies the commands they send back.
package feed

import (
	"encoding/json"
	"fmt"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// CommandType names an inbound client command.
type CommandType string

// Command types
const (
	CommandToggleSimulation CommandType = "toggle_simulation"
	CommandResetSimulation  CommandType = "reset_simulation"
	CommandSetFilters       CommandType = "set_filters"
	CommandClearFilters     CommandType = "clear_filters"
)

// Message is the envelope for every websocket message in both directions.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Command is a parsed client command.
type Command struct {
	Type    CommandType
	Filters models.FilterPatch
}

// Controller is the set of store operations a client may invoke.
type Controller interface {
	ToggleSimulation() bool
	ResetSimulation()
	SetFilters(patch models.FilterPatch)
	ClearAllFilters()
}

// ParseCommand parses a client message into a Command.
// Returns nil if the message type is not a known command.
func ParseCommand(data []byte) (*Command, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	switch CommandType(msg.Type) {
	case CommandToggleSimulation, CommandResetSimulation, CommandClearFilters:
		return &Command{Type: CommandType(msg.Type)}, nil

	case CommandSetFilters:
		if len(msg.Data) == 0 {
			return nil, fmt.Errorf("set_filters: missing data")
		}
		var patch models.FilterPatch
		if err := json.Unmarshal(msg.Data, &patch); err != nil {
			return nil, fmt.Errorf("unmarshal filter patch: %w", err)
		}
		if err := patch.Validate(); err != nil {
			return nil, fmt.Errorf("set_filters: %w", err)
		}
		return &Command{Type: CommandSetFilters, Filters: patch}, nil
	}

	return nil, nil
}

// Apply runs a command against the store.
func Apply(c Controller, cmd *Command) {
	switch cmd.Type {
	case CommandToggleSimulation:
		c.ToggleSimulation()
	case CommandResetSimulation:
		c.ResetSimulation()
	case CommandSetFilters:
		c.SetFilters(cmd.Filters)
	case CommandClearFilters:
		c.ClearAllFilters()
	}
}
