// Package sink forwards added threat events to optional external systems.
package sink

import (
	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Sink receives a copy of every event added to the store. Write must not
// block.
type Sink interface {
	Write(e models.ThreatEvent)
}

// Store is the part of the threat store the generator drives.
type Store interface {
	AddThreat(e models.ThreatEvent)
	PruneExpired() int
	IsLive() bool
}

// Fanout adds events to the store, then hands them to every sink.
type Fanout struct {
	store Store
	sinks []Sink
}

// NewFanout wraps store. Nil sinks are ignored.
func NewFanout(store Store, sinks ...Sink) *Fanout {
	f := &Fanout{store: store}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// AddThreat adds the event to the store and forwards it to each sink.
func (f *Fanout) AddThreat(e models.ThreatEvent) {
	f.store.AddThreat(e)
	for _, s := range f.sinks {
		s.Write(e)
	}
}

// PruneExpired delegates to the store.
func (f *Fanout) PruneExpired() int {
	return f.store.PruneExpired()
}

// IsLive delegates to the store.
func (f *Fanout) IsLive() bool {
	return f.store.IsLive()
}

// Len returns the number of attached sinks.
func (f *Fanout) Len() int {
	return len(f.sinks)
}
