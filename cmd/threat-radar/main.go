// threat-radar - Real-time cyber threat simulation and monitoring backend.
//
// Generates synthetic attack events between world cities, keeps a bounded
// window of active threats and logs, and serves them to dashboards over a
// REST API and a websocket feed.
//
// Usage:
//
//	threat-radar -config=configs/config.yaml
//
// Every setting can be overridden by environment, e.g.:
//
//	THREAT_RADAR_SERVER_PORT     - HTTP listen port
//	THREAT_RADAR_REDIS_URL       - Redis URL (enables the event publisher)
//	THREAT_RADAR_DATABASE_URL    - PostgreSQL URL (enables the event archive)
//	THREAT_RADAR_GEO_CITIES_FILE - Path to a city catalog CSV
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hervehildenbrand/threat-radar/pkg/api"
	"github.com/hervehildenbrand/threat-radar/pkg/config"
	"github.com/hervehildenbrand/threat-radar/pkg/database"
	"github.com/hervehildenbrand/threat-radar/pkg/feed"
	"github.com/hervehildenbrand/threat-radar/pkg/generator"
	"github.com/hervehildenbrand/threat-radar/pkg/geo"
	"github.com/hervehildenbrand/threat-radar/pkg/metrics"
	"github.com/hervehildenbrand/threat-radar/pkg/sink"
	"github.com/hervehildenbrand/threat-radar/pkg/store"
)

var (
	configFlag    = flag.String("config", "", "Path to config file (optional, defaults to ./config.yaml or ./configs/config.yaml)")
	statsInterval = flag.Duration("stats", 30*time.Second, "Stats logging interval")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("threat-radar failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("threat-radar starting", zap.String("addr", cfg.Server.Addr()))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st := store.New(
		store.WithCapacity(cfg.Store.ActiveCap, cfg.Store.LogCap),
		store.WithDebounce(cfg.Store.Debounce),
		store.WithLogger(logger),
		store.WithMetrics(m),
	)
	defer st.Close()

	// City catalog: CSV file > builtin
	var catalog geo.Catalog = geo.NewBuiltinCatalog()
	if cfg.Geo.CitiesFile != "" {
		fileCatalog, err := geo.NewFileCatalog(cfg.Geo.CitiesFile, logger)
		if err != nil {
			logger.Warn("failed to load city catalog, using builtin",
				zap.String("path", cfg.Geo.CitiesFile), zap.Error(err))
		} else {
			catalog = fileCatalog
		}
	}
	logger.Info("city catalog ready", zap.Int("cities", catalog.Count()))

	// Optional sinks
	var sinks []sink.Sink

	var publisher *sink.RedisPublisher
	if cfg.Redis.URL != "" {
		publisher = connectRedis(cfg.Redis, logger)
		if publisher != nil {
			publisher.Start()
			sinks = append(sinks, publisher)
		}
	}

	var dbWriter *database.EventWriter
	if cfg.Database.URL != "" {
		w, err := database.NewEventWriter(cfg.Database.URL, logger)
		if err != nil {
			logger.Warn("database connection failed, archive disabled", zap.Error(err))
		} else {
			dbWriter = w
			dbWriter.Start()
			sinks = append(sinks, dbWriter)
			logger.Info("database writer started")
		}
	}

	fanout := sink.NewFanout(st, sinks...)

	gen, err := generator.New(fanout, catalog, generator.Config{
		MinInterval:   cfg.Simulation.MinInterval,
		MaxInterval:   cfg.Simulation.MaxInterval,
		PruneInterval: cfg.Simulation.PruneInterval,
		MinDuration:   cfg.Simulation.MinDuration,
		MaxDuration:   cfg.Simulation.MaxDuration,
		SwarmChance:   cfg.Simulation.SwarmChance,
		Seed:          cfg.Simulation.Seed,
	}, logger, m)
	if err != nil {
		return fmt.Errorf("create generator: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gen.Start(ctx)
	if cfg.Simulation.AutoStart {
		st.ToggleSimulation()
	}

	hub := feed.NewHub(st, logger, m)
	hub.Start()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewServer(st, hub, reg, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	go logStats(ctx, logger, st, gen, hub, publisher, dbWriter)

	// Wait for interrupt or server failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	cancel()
	gen.Stop()
	hub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	// Sinks flush what is still queued
	if publisher != nil {
		publisher.Stop()
	}
	if dbWriter != nil {
		dbWriter.Stop()
	}

	logger.Info("final stats",
		zap.Int("logs", len(st.Logs())),
		zap.Int("total_attacks", st.StatsGlobal().TotalAttacks))
	return runErr
}

func connectRedis(cfg config.RedisConfig, logger *zap.Logger) *sink.RedisPublisher {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		logger.Warn("invalid redis url, publisher disabled", zap.Error(err))
		return nil
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("redis connection failed, publisher disabled", zap.Error(err))
		rdb.Close()
		return nil
	}
	logger.Info("connected to redis", zap.String("addr", opt.Addr))
	return sink.NewRedisPublisher(rdb, cfg.Prefix, logger)
}

func logStats(ctx context.Context, logger *zap.Logger, st *store.Store, gen *generator.Generator,
	hub *feed.Hub, publisher *sink.RedisPublisher, dbWriter *database.EventWriter) {
	ticker := time.NewTicker(*statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := st.StatsGlobal()
		fields := []zap.Field{
			zap.Bool("live", st.IsLive()),
			zap.Int("active", len(st.ActiveThreats())),
			zap.Int("total_attacks", stats.TotalAttacks),
			zap.Int("active_critical", stats.ActiveCritical),
			zap.Any("generator", gen.Stats()),
			zap.Any("feed", hub.Stats()),
		}
		if publisher != nil {
			fields = append(fields, zap.Any("redis", publisher.Stats()))
		}
		if dbWriter != nil {
			fields = append(fields, zap.Any("database", dbWriter.Stats()))
		}
		logger.Info("stats", fields...)
	}
}
