// Package generator produces synthetic threat events on a randomized timer
// and drives periodic pruning of expired threats.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/geo"
	"github.com/hervehildenbrand/threat-radar/pkg/metrics"
	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

// Target receives generated events. The generator only emits and prunes
// while IsLive reports true.
type Target interface {
	AddThreat(e models.ThreatEvent)
	PruneExpired() int
	IsLive() bool
}

// Config controls emission timing and shape.
type Config struct {
	MinInterval   time.Duration
	MaxInterval   time.Duration
	PruneInterval time.Duration
	MinDuration   time.Duration
	MaxDuration   time.Duration
	SwarmChance   float64
	MinSwarm      int
	MaxSwarm      int
	Seed          int64
}

// DefaultConfig returns the default generator settings.
func DefaultConfig() Config {
	return Config{
		MinInterval:   400 * time.Millisecond,
		MaxInterval:   1500 * time.Millisecond,
		PruneInterval: time.Second,
		MinDuration:   3 * time.Second,
		MaxDuration:   10 * time.Second,
		SwarmChance:   0.1,
		MinSwarm:      3,
		MaxSwarm:      6,
	}
}

// Generator emits random threat events into a Target.
type Generator struct {
	target  Target
	cities  []models.Location
	cfg     Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex // guards rng and batch
	rng     *rand.Rand
	batch   uint64
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Stats
	eventsEmitted uint64
	swarmsEmitted uint64
	pruned        uint64
}

// New creates a generator. The catalog must hold at least two cities.
func New(target Target, catalog geo.Catalog, cfg Config, logger *zap.Logger, m *metrics.Metrics) (*Generator, error) {
	cities := catalog.Cities()
	if len(cities) < 2 {
		return nil, fmt.Errorf("generator needs at least 2 cities, got %d", len(cities))
	}
	cfg = normalize(cfg)
	if m == nil {
		m = metrics.New(nil)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		target:  target,
		cities:  cities,
		cfg:     cfg,
		logger:  logger.Named("generator"),
		metrics: m,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(seed)),
		done:    make(chan struct{}),
	}, nil
}

func normalize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = def.MinInterval
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = def.PruneInterval
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = def.MinDuration
	}
	if cfg.MaxDuration < cfg.MinDuration {
		cfg.MaxDuration = cfg.MinDuration
	}
	if cfg.SwarmChance < 0 {
		cfg.SwarmChance = 0
	}
	if cfg.MinSwarm < 2 {
		cfg.MinSwarm = def.MinSwarm
	}
	if cfg.MaxSwarm < cfg.MinSwarm {
		cfg.MaxSwarm = cfg.MinSwarm
	}
	return cfg
}

// Start begins the emit and prune loops. Both stop on Stop or when ctx ends.
func (g *Generator) Start(ctx context.Context) {
	if g.running.Swap(true) {
		g.logger.Warn("generator already running")
		return
	}

	g.wg.Add(2)
	go g.emitLoop(ctx)
	go g.pruneLoop(ctx)
	g.logger.Info("generator started",
		zap.Duration("min_interval", g.cfg.MinInterval),
		zap.Duration("max_interval", g.cfg.MaxInterval),
		zap.Duration("prune_interval", g.cfg.PruneInterval))
}

// Stop ends both loops and waits for them.
func (g *Generator) Stop() {
	if !g.running.Swap(false) {
		return
	}
	close(g.done)
	g.wg.Wait()
	g.logger.Info("generator stopped",
		zap.Uint64("events", atomic.LoadUint64(&g.eventsEmitted)),
		zap.Uint64("swarms", atomic.LoadUint64(&g.swarmsEmitted)))
}

// Stats returns current statistics.
func (g *Generator) Stats() map[string]interface{} {
	return map[string]interface{}{
		"running":        g.running.Load(),
		"events_emitted": atomic.LoadUint64(&g.eventsEmitted),
		"swarms_emitted": atomic.LoadUint64(&g.swarmsEmitted),
		"pruned":         atomic.LoadUint64(&g.pruned),
	}
}

func (g *Generator) emitLoop(ctx context.Context) {
	defer g.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-time.After(g.nextDelay()):
		}

		if !g.target.IsLive() {
			continue
		}
		g.Emit()
	}
}

func (g *Generator) pruneLoop(ctx context.Context) {
	defer g.wg.Done()

	ticker := time.NewTicker(g.cfg.PruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-ticker.C:
			if !g.target.IsLive() {
				continue
			}
			if n := g.target.PruneExpired(); n > 0 {
				atomic.AddUint64(&g.pruned, uint64(n))
			}
		}
	}
}

// Emit produces one emission, a single event or a swarm, and sends every
// event to the target. It returns the emitted events.
func (g *Generator) Emit() []models.ThreatEvent {
	var events []models.ThreatEvent
	kind := "single"
	if g.chance(g.cfg.SwarmChance) {
		events = g.NewSwarm()
		kind = "swarm"
		atomic.AddUint64(&g.swarmsEmitted, 1)
	} else {
		events = []models.ThreatEvent{g.NewEvent()}
	}

	for _, e := range events {
		g.target.AddThreat(e)
	}
	atomic.AddUint64(&g.eventsEmitted, uint64(len(events)))
	g.metrics.Emissions.WithLabelValues(kind).Inc()
	return events
}

// NewEvent builds a single event between two distinct cities.
func (g *Generator) NewEvent() models.ThreatEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	src, dst := g.pickPair()
	return g.build(src, dst, g.pickType(models.AttackTypes), models.Metadata{})
}

// NewSwarm builds a grouped attack: several distinct sources against one
// target, sharing swarm and batch identifiers.
func (g *Generator) NewSwarm() []models.ThreatEvent {
	g.mu.Lock()
	defer g.mu.Unlock()

	targetIdx := g.rng.Intn(len(g.cities))
	target := g.cities[targetIdx]

	size := g.cfg.MinSwarm + g.rng.Intn(g.cfg.MaxSwarm-g.cfg.MinSwarm+1)
	if size > len(g.cities)-1 {
		size = len(g.cities) - 1
	}

	g.batch++
	swarmID := uuid.NewString()
	batchID := fmt.Sprintf("batch-%06d", g.batch)
	typ := g.pickType([]models.AttackType{models.AttackDDoS, models.AttackBotnet})

	events := make([]models.ThreatEvent, 0, size)
	for _, idx := range g.rng.Perm(len(g.cities)) {
		if len(events) == size {
			break
		}
		src := g.cities[idx]
		if idx == targetIdx || src.Name == target.Name {
			continue
		}
		events = append(events, g.build(src, target, typ, models.Metadata{
			SwarmID:   swarmID,
			BatchID:   batchID,
			SwarmSize: size,
		}))
	}
	return events
}

// build must be called with g.mu held.
func (g *Generator) build(src, dst models.Location, typ models.AttackType, meta models.Metadata) models.ThreatEvent {
	span := int64(g.cfg.MaxDuration - g.cfg.MinDuration)
	duration := g.cfg.MinDuration
	if span > 0 {
		duration += time.Duration(g.rng.Int63n(span + 1))
	}

	meta.IP = g.randomIP()
	meta.PacketCount = 100 + g.rng.Intn(50000)
	if g.rng.Intn(2) == 0 {
		size := 64 + g.rng.Intn(65536-64)
		meta.PayloadSize = &size
	}

	return models.ThreatEvent{
		ID:        uuid.NewString(),
		Timestamp: g.now().UnixMilli(),
		Source:    src,
		Target:    dst,
		Type:      typ,
		Severity:  g.pickSeverity(),
		Duration:  duration.Milliseconds(),
		Metadata:  meta,
	}
}

// pickPair returns two cities with different names.
func (g *Generator) pickPair() (models.Location, models.Location) {
	i := g.rng.Intn(len(g.cities))
	j := g.rng.Intn(len(g.cities) - 1)
	if j >= i {
		j++
	}
	src, dst := g.cities[i], g.cities[j]
	if src.Name == dst.Name {
		// Duplicate names in a custom catalog; fall back to a scan
		for _, c := range g.cities {
			if c.Name != src.Name {
				return src, c
			}
		}
	}
	return src, dst
}

func (g *Generator) pickSeverity() models.Severity {
	switch n := g.rng.Intn(100); {
	case n < 50:
		return models.SeverityLow
	case n < 85:
		return models.SeverityMedium
	default:
		return models.SeverityCritical
	}
}

func (g *Generator) pickType(types []models.AttackType) models.AttackType {
	return types[g.rng.Intn(len(types))]
}

// randomIP returns a public-looking IPv4 address.
func (g *Generator) randomIP() string {
	first := 11 + g.rng.Intn(212)
	switch first {
	case 100, 127, 169, 172, 192, 198, 203:
		first = 45
	}
	return fmt.Sprintf("%d.%d.%d.%d", first, g.rng.Intn(256), g.rng.Intn(256), 1+g.rng.Intn(254))
}

func (g *Generator) nextDelay() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	span := int64(g.cfg.MaxInterval - g.cfg.MinInterval)
	if span <= 0 {
		return g.cfg.MinInterval
	}
	return g.cfg.MinInterval + time.Duration(g.rng.Int63n(span+1))
}

func (g *Generator) chance(p float64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Float64() < p
}
