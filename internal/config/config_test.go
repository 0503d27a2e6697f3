package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "fleet", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 300*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window())
	assert.Equal(t, 23, cfg.Heuristics.CurfewStartHour)
	assert.InDelta(t, 0.15, cfg.Heuristics.ReorderSavingsRatio, 1e-9)
	assert.Empty(t, cfg.Mongo.URI)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: "9090"
cache:
  ttl: 45s
heuristics:
  curfewPenalty: 7500
  minStopsForReorder: 5
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("HEURISTICS_MINUTES_PER_KM", "2.5")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 7500.0, cfg.Heuristics.CurfewPenalty)
	assert.Equal(t, 5, cfg.Heuristics.MinStopsForReorder)
	assert.Equal(t, 2.5, cfg.Heuristics.MinutesPerKm)
	assert.Equal(t, 0.1, cfg.Heuristics.FuelPerKm)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MQTT_TOPIC_PREFIX=delhi\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MQTT_TOPIC_PREFIX") })

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "delhi", cfg.MQTT.TopicPrefix)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("server: [unclosed"), 0o600))
	_, err := LoadConfig(dir)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Server.Port = "" }},
		{"mongo without db", func(c *Config) { c.Mongo.URI = "mongodb://localhost"; c.Mongo.DBName = "" }},
		{"bad qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }},
		{"zero rate", func(c *Config) { c.RateLimit.Requests = 0 }},
		{"curfew hour", func(c *Config) { c.Heuristics.CurfewEndHour = 24 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
