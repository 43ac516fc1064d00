// Package database archives added threat events to PostgreSQL in batches.
// The archive is write-only; the store is never loaded from it.
package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/models"
)

const (
	batchSize     = 50
	batchInterval = 2 * time.Second
	queueSize     = 10000
)

// Schema creates the archive table.
const Schema = `
CREATE TABLE IF NOT EXISTS threat_events (
	id              TEXT PRIMARY KEY,
	occurred_at     TIMESTAMPTZ NOT NULL,
	duration_ms     BIGINT NOT NULL,
	attack_type     TEXT NOT NULL,
	severity        TEXT NOT NULL,
	source_city     TEXT NOT NULL,
	source_country  TEXT NOT NULL,
	source_region   TEXT NOT NULL,
	source_lat      DOUBLE PRECISION NOT NULL,
	source_lng      DOUBLE PRECISION NOT NULL,
	target_city     TEXT NOT NULL,
	target_country  TEXT NOT NULL,
	target_region   TEXT NOT NULL,
	target_lat      DOUBLE PRECISION NOT NULL,
	target_lng      DOUBLE PRECISION NOT NULL,
	swarm_id        TEXT,
	metadata        JSONB NOT NULL DEFAULT '{}'
)`

const insertEvent = `
INSERT INTO threat_events (
	id, occurred_at, duration_ms, attack_type, severity,
	source_city, source_country, source_region, source_lat, source_lng,
	target_city, target_country, target_region, target_lat, target_lng,
	swarm_id, metadata
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (id) DO NOTHING`

// EventWriter handles batch writing of threat events to PostgreSQL.
type EventWriter struct {
	db      *sql.DB
	logger  *zap.Logger
	queue   chan models.ThreatEvent
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex

	// Stats
	eventsWritten  uint64
	eventsDropped  uint64
	batchesWritten uint64
}

// NewEventWriter connects to PostgreSQL and ensures the archive table exists.
func NewEventWriter(databaseURL string, logger *zap.Logger) (*EventWriter, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	w := newEventWriter(db, logger)
	w.logger.Info("connected to PostgreSQL archive")
	return w, nil
}

func newEventWriter(db *sql.DB, logger *zap.Logger) *EventWriter {
	return &EventWriter{
		db:     db,
		logger: logger.Named("archive"),
		queue:  make(chan models.ThreatEvent, queueSize),
		done:   make(chan struct{}),
	}
}

// Start begins the background writer goroutine.
func (w *EventWriter) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.wg.Add(1)
	go w.writerLoop()
	w.logger.Info("archive writer started")
}

// Stop gracefully shuts down the writer, flushing remaining events.
func (w *EventWriter) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	w.wg.Wait()
	w.db.Close()
	w.logger.Info("archive writer stopped",
		zap.Uint64("written", atomic.LoadUint64(&w.eventsWritten)),
		zap.Uint64("dropped", atomic.LoadUint64(&w.eventsDropped)),
		zap.Uint64("batches", atomic.LoadUint64(&w.batchesWritten)))
}

// Write queues an event for batch writing.
func (w *EventWriter) Write(e models.ThreatEvent) {
	select {
	case w.queue <- e:
	default:
		// Queue full, drop event
		if n := atomic.AddUint64(&w.eventsDropped, 1); n%1000 == 0 {
			w.logger.Warn("archive queue full", zap.Uint64("dropped", n))
		}
	}
}

// Stats returns writer statistics.
func (w *EventWriter) Stats() map[string]interface{} {
	return map[string]interface{}{
		"events_written":  atomic.LoadUint64(&w.eventsWritten),
		"events_dropped":  atomic.LoadUint64(&w.eventsDropped),
		"batches_written": atomic.LoadUint64(&w.batchesWritten),
		"queue_len":       len(w.queue),
		"queue_cap":       cap(w.queue),
	}
}

func (w *EventWriter) writerLoop() {
	defer w.wg.Done()

	batch := make([]models.ThreatEvent, 0, batchSize)
	ticker := time.NewTicker(batchInterval)
	defer ticker.Stop()

	for {
		select {
		case e := <-w.queue:
			batch = append(batch, e)
			if len(batch) >= batchSize {
				w.writeBatch(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.writeBatch(batch)
				batch = batch[:0]
			}

		case <-w.done:
			// Flush remaining events
		drain:
			for {
				select {
				case e := <-w.queue:
					batch = append(batch, e)
					if len(batch) >= batchSize {
						w.writeBatch(batch)
						batch = batch[:0]
					}
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				w.writeBatch(batch)
			}
			return
		}
	}
}

func (w *EventWriter) writeBatch(batch []models.ThreatEvent) {
	if len(batch) == 0 {
		return
	}

	tx, err := w.db.Begin()
	if err != nil {
		w.logger.Error("begin transaction", zap.Error(err))
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertEvent)
	if err != nil {
		w.logger.Error("prepare insert", zap.Error(err))
		return
	}
	defer stmt.Close()

	written := 0
	for _, e := range batch {
		if _, err := stmt.Exec(insertArgs(e)...); err != nil {
			w.logger.Warn("insert event", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		w.logger.Error("commit batch", zap.Error(err))
		return
	}

	atomic.AddUint64(&w.eventsWritten, uint64(written))
	atomic.AddUint64(&w.batchesWritten, 1)
}

// insertArgs maps an event onto the insertEvent placeholders.
func insertArgs(e models.ThreatEvent) []interface{} {
	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		metadataJSON = []byte("{}")
	}

	var swarmID sql.NullString
	if e.Metadata.SwarmID != "" {
		swarmID = sql.NullString{String: e.Metadata.SwarmID, Valid: true}
	}

	return []interface{}{
		e.ID,
		e.Time().UTC(),
		e.Duration,
		string(e.Type),
		string(e.Severity),
		e.Source.Name,
		e.Source.Country,
		string(e.Source.Region),
		e.Source.Lat,
		e.Source.Lng,
		e.Target.Name,
		e.Target.Country,
		string(e.Target.Region),
		e.Target.Lat,
		e.Target.Lng,
		swarmID,
		metadataJSON,
	}
}
