// Package config loads threat-radar configuration from file, environment
// and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. THREAT_RADAR_SERVER_PORT.
const EnvPrefix = "THREAT_RADAR"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Geo        GeoConfig        `mapstructure:"geo"`
	Logger     LoggerConfig     `mapstructure:"logger"`
}

// ServerConfig describes the HTTP server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SimulationConfig tunes the event generator.
type SimulationConfig struct {
	AutoStart     bool          `mapstructure:"auto_start"`
	MinInterval   time.Duration `mapstructure:"min_interval"`
	MaxInterval   time.Duration `mapstructure:"max_interval"`
	PruneInterval time.Duration `mapstructure:"prune_interval"`
	MinDuration   time.Duration `mapstructure:"min_duration"`
	MaxDuration   time.Duration `mapstructure:"max_duration"`
	SwarmChance   float64       `mapstructure:"swarm_chance"`
	Seed          int64         `mapstructure:"seed"`
}

// StoreConfig bounds the threat store.
type StoreConfig struct {
	ActiveCap int           `mapstructure:"active_cap"`
	LogCap    int           `mapstructure:"log_cap"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

// RedisConfig enables the Redis publisher when URL is set.
type RedisConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// DatabaseConfig enables the PostgreSQL archive when URL is set.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// GeoConfig selects the city catalog. An empty CitiesFile uses the builtin list.
type GeoConfig struct {
	CitiesFile string `mapstructure:"cities_file"`
}

// LoggerConfig configures zap.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// Load reads configuration. If path is empty, config.yaml is searched in
// "." and "./configs" and a missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the components cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Store.ActiveCap <= 0 || c.Store.LogCap <= 0 {
		return fmt.Errorf("store caps must be positive (active=%d, log=%d)", c.Store.ActiveCap, c.Store.LogCap)
	}
	if c.Store.Debounce <= 0 {
		return fmt.Errorf("store.debounce must be positive")
	}
	if c.Simulation.SwarmChance < 0 || c.Simulation.SwarmChance > 1 {
		return fmt.Errorf("simulation.swarm_chance %v not in [0, 1]", c.Simulation.SwarmChance)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("simulation.auto_start", false)
	v.SetDefault("simulation.min_interval", 400*time.Millisecond)
	v.SetDefault("simulation.max_interval", 1500*time.Millisecond)
	v.SetDefault("simulation.prune_interval", time.Second)
	v.SetDefault("simulation.min_duration", 3*time.Second)
	v.SetDefault("simulation.max_duration", 10*time.Second)
	v.SetDefault("simulation.swarm_chance", 0.1)
	v.SetDefault("simulation.seed", 0)

	v.SetDefault("store.active_cap", 30)
	v.SetDefault("store.log_cap", 100)
	v.SetDefault("store.debounce", 100*time.Millisecond)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.prefix", "threat-radar")
	v.SetDefault("database.url", "")
	v.SetDefault("geo.cities_file", "")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}
