package sink

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

const (
	// DefaultPrefix namespaces every key and channel.
	DefaultPrefix = "threat-radar"

	countTTL       = 24 * time.Hour
	publishTimeout = 2 * time.Second
	redisQueueSize = 1000
)

// RedisPublisher publishes each event as JSON on a pub/sub channel and keeps
// per-type counters.
type RedisPublisher struct {
	rdb    *redis.Client
	prefix string
	logger *zap.Logger

	queue   chan models.ThreatEvent
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool

	// Stats
	published uint64
	dropped   uint64
	errors    uint64
}

// NewRedisPublisher creates a publisher. An empty prefix uses DefaultPrefix.
func NewRedisPublisher(rdb *redis.Client, prefix string, logger *zap.Logger) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisPublisher{
		rdb:    rdb,
		prefix: prefix,
		logger: logger.Named("redis"),
		queue:  make(chan models.ThreatEvent, redisQueueSize),
		done:   make(chan struct{}),
	}
}

// Channel returns the pub/sub channel events are published on.
func (p *RedisPublisher) Channel() string {
	return p.prefix + ":events"
}

// CountKey returns the counter key for an attack type.
func (p *RedisPublisher) CountKey(t models.AttackType) string {
	return p.prefix + ":count:" + string(t)
}

// Start begins the background publish loop.
func (p *RedisPublisher) Start() {
	if p.running.Swap(true) {
		return
	}
	p.wg.Add(1)
	go p.publishLoop()
	p.logger.Info("redis publisher started", zap.String("channel", p.Channel()))
}

// Stop drains the queue and stops the loop.
func (p *RedisPublisher) Stop() {
	if !p.running.Swap(false) {
		return
	}
	close(p.done)
	p.wg.Wait()
	p.logger.Info("redis publisher stopped",
		zap.Uint64("published", atomic.LoadUint64(&p.published)),
		zap.Uint64("dropped", atomic.LoadUint64(&p.dropped)))
}

// Write queues an event for publishing.
func (p *RedisPublisher) Write(e models.ThreatEvent) {
	select {
	case p.queue <- e:
	default:
		// Queue full, drop event
		if n := atomic.AddUint64(&p.dropped, 1); n%1000 == 1 {
			p.logger.Warn("redis queue full, dropping events", zap.Uint64("dropped", n))
		}
	}
}

// Stats returns publisher statistics.
func (p *RedisPublisher) Stats() map[string]interface{} {
	return map[string]interface{}{
		"published": atomic.LoadUint64(&p.published),
		"dropped":   atomic.LoadUint64(&p.dropped),
		"errors":    atomic.LoadUint64(&p.errors),
		"queue_len": len(p.queue),
		"queue_cap": cap(p.queue),
	}
}

func (p *RedisPublisher) publishLoop() {
	defer p.wg.Done()

	for {
		select {
		case e := <-p.queue:
			p.publish(e)
		case <-p.done:
			// Flush what is already queued
			for {
				select {
				case e := <-p.queue:
					p.publish(e)
				default:
					return
				}
			}
		}
	}
}

func (p *RedisPublisher) publish(e models.ThreatEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		atomic.AddUint64(&p.errors, 1)
		p.logger.Error("marshal event", zap.String("id", e.ID), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	key := p.CountKey(e.Type)
	pipe := p.rdb.Pipeline()
	pipe.Publish(ctx, p.Channel(), payload)
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, countTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		if n := atomic.AddUint64(&p.errors, 1); n%100 == 1 {
			p.logger.Warn("redis publish failed", zap.Error(err), zap.Uint64("errors", n))
		}
		return
	}
	atomic.AddUint64(&p.published, 1)
}
