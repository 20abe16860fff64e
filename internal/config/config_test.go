package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
server:
  port: 9000
fetch:
  default_count: 2
  max_count: 5
poll:
  duration: 30s
corpus:
  source: parquet
  parquet: /tmp/movies.parquet
`)))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, FetchConfig{DefaultCount: 2, MaxCount: 5}, cfg.Fetch)
	assert.Equal(t, 30*time.Second, cfg.Poll.Duration)
	assert.Equal(t, time.Hour, cfg.Poll.Retention)
	assert.Equal(t, SourceParquet, cfg.Corpus.Source)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("DJINN_SERVER_PORT", "9191")
	t.Setenv("DJINN_FETCH_MAX_COUNT", "20")
	t.Setenv("DJINN_LOG_FORMAT", "json")

	v := viper.New()
	BindEnv(v)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Fetch.MaxCount)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"zero default", func(c *Config) { c.Fetch.DefaultCount = 0 }, "fetch.default_count"},
		{"max below default", func(c *Config) { c.Fetch.MaxCount = 2 }, "fetch.max_count"},
		{"zero duration", func(c *Config) { c.Poll.Duration = 0 }, "poll.duration"},
		{"short retention", func(c *Config) { c.Poll.Retention = time.Minute }, "poll.retention"},
		{"no rate", func(c *Config) { c.RateLimit.Burst = 0 }, "ratelimit"},
		{"unknown source", func(c *Config) { c.Corpus.Source = "csv" }, "corpus.source"},
		{"parquet without path", func(c *Config) { c.Corpus.Source = SourceParquet }, "corpus.parquet"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	LogConfig{Level: "warn", Format: "json"}.Logger(&buf).Info("hidden")
	assert.Empty(t, buf.String())

	LogConfig{Level: "debug", Format: "json"}.Logger(&buf).Debug("shown", "k", 1)
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestDefault_YAML(t *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "default_count: 3")
	assert.Contains(t, string(out), "duration: 10m0s")

	var back Config
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, Default(), back)
}
