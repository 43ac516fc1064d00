// Package store implements the threat store: the single owner of retained
// threat events, global statistics, filters and the debounced map projection.
package store

import (
	"sync"
	"time"

	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/metrics"
	"github.com/hervehildenbrand/threat-radar/pkg/models"
	"github.com/hervehildenbrand/threat-radar/pkg/threat"
)

const (
	// DefaultActiveCap bounds the active threat set.
	DefaultActiveCap = 30
	// DefaultLogCap bounds the historical log.
	DefaultLogCap = 100
	// DefaultDebounce is the delay before mapFeatures is recomputed.
	DefaultDebounce = 100 * time.Millisecond

	subscriberBuffer = 16
)

// ChangeKind identifies which part of the state changed.
type ChangeKind string

// Change kinds
const (
	ChangeThreats    ChangeKind = "threats"
	ChangeFilters    ChangeKind = "filters"
	ChangeMap        ChangeKind = "map"
	ChangeSimulation ChangeKind = "simulation"
	ChangeReset      ChangeKind = "reset"
)

// Change is published to subscribers after every mutation.
type Change struct {
	Kind ChangeKind
	At   time.Time
}

// Store is the threat store. All operations are serialized by a single
// mutex and never block on I/O.
type Store struct {
	mu sync.Mutex

	activeThreats []models.ThreatEvent
	logs          []models.ThreatEvent
	statsGlobal   models.ThreatStats
	filters       models.FilterState
	mapFeatures   *geojson.FeatureCollection
	isLive        bool

	activeCap int
	logCap    int
	delay     time.Duration
	mapUpdate *debouncer
	subs      map[chan Change]struct{}
	closed    bool

	now     func() time.Time
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for expiry, filtering and stats.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithDebounce sets the map recompute delay.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.delay = d }
}

// WithCapacity overrides the active and log caps. Non-positive values keep
// the defaults.
func WithCapacity(active, logs int) Option {
	return func(s *Store) {
		if active > 0 {
			s.activeCap = active
		}
		if logs > 0 {
			s.logCap = logs
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates an empty store in its default state.
func New(opts ...Option) *Store {
	s := &Store{
		activeCap: DefaultActiveCap,
		logCap:    DefaultLogCap,
		delay:     DefaultDebounce,
		subs:      make(map[chan Change]struct{}),
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New(nil)
	}
	s.logger = s.logger.Named("store")
	s.mapUpdate = newDebouncer(&s.mu, s.delay, s.recomputeMap)
	s.resetLocked()
	return s
}

// AddThreat prepends an event to the active set and the log, recomputes the
// global stats from the log and schedules a map update. The event is not
// validated.
func (s *Store) AddThreat(e models.ThreatEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeThreats = prepend(s.activeThreats, e, s.activeCap)
	s.logs = prepend(s.logs, e, s.logCap)
	s.statsGlobal = threat.ComputeStats(s.logs, s.now())

	s.metrics.ThreatsAdded.WithLabelValues(string(e.Severity)).Inc()
	s.observeSizes()
	s.scheduleMapUpdate()
	s.notify(ChangeThreats)
}

// ToggleSimulation flips the live flag and returns the new value.
func (s *Store) ToggleSimulation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isLive = !s.isLive
	s.logger.Info("simulation toggled", zap.Bool("live", s.isLive))
	s.notify(ChangeSimulation)
	return s.isLive
}

// ResetSimulation cancels any pending map update and restores the default
// state.
func (s *Store) ResetSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.metrics.Resets.Inc()
	s.observeSizes()
	s.logger.Info("simulation reset")
	s.notify(ChangeReset)
}

// SetFilters merges a partial update into the current filters and schedules
// a map update. Toggle maps merge key by key.
func (s *Store) SetFilters(patch models.FilterPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.filters.Clone()
	for k, v := range patch.Severity {
		next.Severity[k] = v
	}
	for k, v := range patch.AttackType {
		next.AttackType[k] = v
	}
	if patch.TimeRange != nil {
		next.TimeRange = *patch.TimeRange
	}
	s.filters = next

	s.scheduleMapUpdate()
	s.notify(ChangeFilters)
}

// ClearAllFilters restores the default filters and schedules a map update.
func (s *Store) ClearAllFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filters = models.DefaultFilters()
	s.scheduleMapUpdate()
	s.notify(ChangeFilters)
}

// PruneExpired drops every active threat whose expiry is at or before now
// and schedules a map update. The log and global stats are untouched.
// It returns the number of evicted threats.
func (s *Store) PruneExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	nowMs := s.now().UnixMilli()
	kept := make([]models.ThreatEvent, 0, len(s.activeThreats))
	for _, e := range s.activeThreats {
		if e.ExpiresAt() > nowMs {
			kept = append(kept, e)
		}
	}
	pruned := len(s.activeThreats) - len(kept)
	s.activeThreats = kept

	if pruned > 0 {
		s.metrics.PrunedThreats.Add(float64(pruned))
		s.observeSizes()
		s.notify(ChangeThreats)
	}
	s.scheduleMapUpdate()
	return pruned
}

// IsLive reports whether the generator may run.
func (s *Store) IsLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isLive
}

// ActiveThreats returns a copy of the active set, newest first.
func (s *Store) ActiveThreats() []models.ThreatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEvents(s.activeThreats)
}

// Logs returns a copy of the log, newest first.
func (s *Store) Logs() []models.ThreatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEvents(s.logs)
}

// StatsGlobal returns the statistics over the full log.
func (s *Store) StatsGlobal() models.ThreatStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsGlobal.Clone()
}

// Filters returns the current filters.
func (s *Store) Filters() models.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters.Clone()
}

// MapFeatures returns the last computed map projection, or nil before the
// first recompute. The collection is shared and must not be modified.
func (s *Store) MapFeatures() *geojson.FeatureCollection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapFeatures
}

// MapUpdatePending reports whether a map recompute is scheduled.
func (s *Store) MapUpdatePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mapUpdate.Pending()
}

// Snapshot returns a consistent copy of every field.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		ActiveThreats: copyEvents(s.activeThreats),
		Logs:          copyEvents(s.logs),
		StatsGlobal:   s.statsGlobal.Clone(),
		Filters:       s.filters.Clone(),
		MapFeatures:   s.mapFeatures,
		IsLive:        s.isLive,
	}
}

// View returns a snapshot with every selector evaluated at the store clock.
func (s *Store) View() View {
	state := s.Snapshot()
	return NewView(state, s.now())
}

// FilteredLogs returns the logs passing the current filters.
func (s *Store) FilteredLogs() []models.ThreatEvent {
	return FilteredLogs(s.Snapshot(), s.now())
}

// FilteredActiveThreats returns the active threats passing the current filters.
func (s *Store) FilteredActiveThreats() []models.ThreatEvent {
	return FilteredActiveThreats(s.Snapshot(), s.now())
}

// FilteredStats aggregates the filtered logs.
func (s *Store) FilteredStats() models.ThreatStats {
	return FilteredStats(s.Snapshot(), s.now())
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Subscribe returns a channel that receives a Change after every mutation.
// Slow subscribers miss notifications rather than block the store.
func (s *Store) Subscribe() <-chan Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Change, subscriberBuffer)
	if s.closed {
		close(ch)
		return ch
	}
	s.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe.
func (s *Store) Unsubscribe(ch <-chan Change) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs {
		if sub == ch {
			delete(s.subs, sub)
			close(sub)
			return
		}
	}
}

// Close cancels any pending map update and closes all subscriptions.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	s.mapUpdate.Cancel()
	for sub := range s.subs {
		close(sub)
	}
	s.subs = make(map[chan Change]struct{})
}

// resetLocked wipes every field. The pending timer is cancelled first.
func (s *Store) resetLocked() {
	s.mapUpdate.Cancel()
	s.isLive = false
	s.activeThreats = []models.ThreatEvent{}
	s.logs = []models.ThreatEvent{}
	s.statsGlobal = models.EmptyStats()
	s.filters = models.DefaultFilters()
	s.mapFeatures = nil
}

func (s *Store) scheduleMapUpdate() {
	if s.closed {
		return
	}
	if s.mapUpdate.Schedule() {
		s.metrics.DebounceReschedules.Inc()
	}
}

// recomputeMap runs on the debounce timer with s.mu held.
func (s *Store) recomputeMap() {
	now := s.now()
	visible := threat.Filter(s.activeThreats, s.filters, now)
	s.mapFeatures = threat.ToLineFeatures(visible)

	s.metrics.MapRecomputes.Inc()
	s.logger.Debug("map features recomputed",
		zap.Int("features", len(visible)),
		zap.Int("active", len(s.activeThreats)))
	s.notify(ChangeMap)
}

func (s *Store) observeSizes() {
	s.metrics.ActiveThreats.Set(float64(len(s.activeThreats)))
	s.metrics.LogEntries.Set(float64(len(s.logs)))
}

func (s *Store) notify(kind ChangeKind) {
	change := Change{Kind: kind, At: s.now()}
	for sub := range s.subs {
		// Non-blocking send
		select {
		case sub <- change:
		default:
		}
	}
}
