// Package config holds djinn's configuration. Values are layered by viper:
// flags, then DJINN_* environment variables, then the config file, then the
// defaults below.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. DJINN_SERVER_PORT.
const EnvPrefix = "DJINN"

// Corpus sources.
const (
	SourceSQLite  = "sqlite"
	SourceParquet = "parquet"
	SourceMemory  = "memory"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Corpus    CorpusConfig    `mapstructure:"corpus" yaml:"corpus"`
	Fetch     FetchConfig     `mapstructure:"fetch" yaml:"fetch"`
	Poll      PollConfig      `mapstructure:"poll" yaml:"poll"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit" yaml:"ratelimit"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	IMDb      IMDbConfig      `mapstructure:"imdb" yaml:"imdb"`
}

type ServerConfig struct {
	Port int `mapstructure:"port" yaml:"port"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"`
}

type CorpusConfig struct {
	Source  string `mapstructure:"source" yaml:"source"`
	Parquet string `mapstructure:"parquet" yaml:"parquet"`
}

// FetchConfig bounds how many movies one request may draw.
type FetchConfig struct {
	DefaultCount int `mapstructure:"default_count" yaml:"default_count"`
	MaxCount     int `mapstructure:"max_count" yaml:"max_count"`
}

// PollConfig controls how long polls accept votes and how long they are
// kept afterwards.
type PollConfig struct {
	Duration  time.Duration `mapstructure:"duration" yaml:"duration"`
	Retention time.Duration `mapstructure:"retention" yaml:"retention"`
}

// RateLimitConfig is applied per client or websocket session.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type IMDbConfig struct {
	BasicsURL  string `mapstructure:"basics_url" yaml:"basics_url"`
	RatingsURL string `mapstructure:"ratings_url" yaml:"ratings_url"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:    ServerConfig{Port: 8080},
		Database:  DatabaseConfig{DSN: "file:movies.db?_pragma=busy_timeout(5000)"},
		Corpus:    CorpusConfig{Source: SourceSQLite},
		Fetch:     FetchConfig{DefaultCount: 3, MaxCount: 10},
		Poll:      PollConfig{Duration: 10 * time.Minute, Retention: time.Hour},
		RateLimit: RateLimitConfig{PerSecond: 1, Burst: 5},
		Log:       LogConfig{Level: "info", Format: "text"},
		IMDb: IMDbConfig{
			BasicsURL:  "https://datasets.imdbws.com/title.basics.tsv.gz",
			RatingsURL: "https://datasets.imdbws.com/title.ratings.tsv.gz",
		},
	}
}

// SetDefaults registers every default with v so that environment variables
// are picked up for keys missing from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("corpus.source", d.Corpus.Source)
	v.SetDefault("corpus.parquet", d.Corpus.Parquet)
	v.SetDefault("fetch.default_count", d.Fetch.DefaultCount)
	v.SetDefault("fetch.max_count", d.Fetch.MaxCount)
	v.SetDefault("poll.duration", d.Poll.Duration)
	v.SetDefault("poll.retention", d.Poll.Retention)
	v.SetDefault("ratelimit.per_second", d.RateLimit.PerSecond)
	v.SetDefault("ratelimit.burst", d.RateLimit.Burst)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("imdb.basics_url", d.IMDb.BasicsURL)
	v.SetDefault("imdb.ratings_url", d.IMDb.RatingsURL)
}

// BindEnv maps DJINN_SECTION_KEY environment variables onto section.key.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port: %d is not a valid port", c.Server.Port)
	case c.Fetch.DefaultCount <= 0:
		return fmt.Errorf("fetch.default_count must be positive, got %d", c.Fetch.DefaultCount)
	case c.Fetch.MaxCount < c.Fetch.DefaultCount:
		return fmt.Errorf("fetch.max_count (%d) is below fetch.default_count (%d)", c.Fetch.MaxCount, c.Fetch.DefaultCount)
	case c.Poll.Duration <= 0:
		return fmt.Errorf("poll.duration must be positive, got %s", c.Poll.Duration)
	case c.Poll.Retention < c.Poll.Duration:
		return fmt.Errorf("poll.retention (%s) is shorter than poll.duration (%s)", c.Poll.Retention, c.Poll.Duration)
	case c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0:
		return fmt.Errorf("ratelimit: per_second and burst must be positive")
	}

	switch c.Corpus.Source {
	case SourceSQLite, SourceMemory:
	case SourceParquet:
		if c.Corpus.Parquet == "" {
			return fmt.Errorf("corpus.parquet is required when corpus.source is %q", SourceParquet)
		}
	default:
		return fmt.Errorf("corpus.source: unknown source %q (want sqlite, parquet or memory)", c.Corpus.Source)
	}

	if _, err := c.Log.level(); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format)
	}
	return nil
}

func (c LogConfig) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// Logger builds the process logger writing to w.
func (c LogConfig) Logger(w io.Writer) *slog.Logger {
	level, err := c.level()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
