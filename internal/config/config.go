// Package config loads service configuration from a YAML file, a .env file
// and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ukydev/fleet-compliance/internal/route"
)

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// MongoConfig selects persistence. An empty URI keeps all state in memory.
type MongoConfig struct {
	URI    string `mapstructure:"uri"`
	DBName string `mapstructure:"dbName"`
}

// MQTTConfig selects event publishing. An empty broker disables it.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"clientID"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topicPrefix"`
	QoS         int    `mapstructure:"qos"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type RateLimitConfig struct {
	Requests      int `mapstructure:"requests"`
	WindowSeconds int `mapstructure:"windowSeconds"`
}

func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowSeconds) * time.Second
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Log        LogConfig        `mapstructure:"log"`
	Cache      CacheConfig      `mapstructure:"cache"`
	RateLimit  RateLimitConfig  `mapstructure:"rateLimit"`
	Heuristics route.Heuristics `mapstructure:"heuristics"`
}

var envBindings = map[string]string{
	"server.port":                        "SERVER_PORT",
	"mongo.uri":                          "MONGO_URI",
	"mongo.dbName":                       "MONGO_DBNAME",
	"mqtt.broker":                        "MQTT_BROKER",
	"mqtt.clientID":                      "MQTT_CLIENT_ID",
	"mqtt.username":                      "MQTT_USERNAME",
	"mqtt.password":                      "MQTT_PASSWORD",
	"mqtt.topicPrefix":                   "MQTT_TOPIC_PREFIX",
	"mqtt.qos":                           "MQTT_QOS",
	"log.level":                          "LOG_LEVEL",
	"log.format":                         "LOG_FORMAT",
	"cache.ttl":                          "CACHE_TTL",
	"rateLimit.requests":                 "RATE_LIMIT_REQUESTS",
	"rateLimit.windowSeconds":            "RATE_LIMIT_WINDOW_SECONDS",
	"heuristics.reorderSavingsRatio":     "HEURISTICS_REORDER_SAVINGS_RATIO",
	"heuristics.minutesPerKm":            "HEURISTICS_MINUTES_PER_KM",
	"heuristics.fuelPerKm":               "HEURISTICS_FUEL_PER_KM",
	"heuristics.minReorderSavingMinutes": "HEURISTICS_MIN_REORDER_SAVING_MINUTES",
	"heuristics.minStopsForReorder":      "HEURISTICS_MIN_STOPS_FOR_REORDER",
	"heuristics.trafficRecoveryRatio":    "HEURISTICS_TRAFFIC_RECOVERY_RATIO",
	"heuristics.altRouteFuelSaving":      "HEURISTICS_ALT_ROUTE_FUEL_SAVING",
	"heuristics.curfewStartHour":         "HEURISTICS_CURFEW_START_HOUR",
	"heuristics.curfewEndHour":           "HEURISTICS_CURFEW_END_HOUR",
	"heuristics.curfewPenalty":           "HEURISTICS_CURFEW_PENALTY",
	"heuristics.trafficProximityKm":      "HEURISTICS_TRAFFIC_PROXIMITY_KM",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("mongo.dbName", "fleet_compliance")
	v.SetDefault("mqtt.clientID", "fleet-compliance")
	v.SetDefault("mqtt.topicPrefix", "fleet")
	v.SetDefault("mqtt.qos", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cache.ttl", "300s")
	v.SetDefault("rateLimit.requests", 100)
	v.SetDefault("rateLimit.windowSeconds", 60)

	h := route.DefaultHeuristics()
	v.SetDefault("heuristics.reorderSavingsRatio", h.ReorderSavingsRatio)
	v.SetDefault("heuristics.minutesPerKm", h.MinutesPerKm)
	v.SetDefault("heuristics.fuelPerKm", h.FuelPerKm)
	v.SetDefault("heuristics.minReorderSavingMinutes", h.MinReorderSavingMinutes)
	v.SetDefault("heuristics.minStopsForReorder", h.MinStopsForReorder)
	v.SetDefault("heuristics.trafficRecoveryRatio", h.TrafficRecoveryRatio)
	v.SetDefault("heuristics.altRouteFuelSaving", h.AltRouteFuelSaving)
	v.SetDefault("heuristics.curfewStartHour", h.CurfewStartHour)
	v.SetDefault("heuristics.curfewEndHour", h.CurfewEndHour)
	v.SetDefault("heuristics.curfewPenalty", h.CurfewPenalty)
	v.SetDefault("heuristics.trafficProximityKm", h.TrafficProximityKm)
}

// LoadConfig reads config.yaml from path, then .env from path (if present),
// then the environment. A missing config file is not an error.
func LoadConfig(path string) (config Config, err error) {
	// Existing environment variables win over .env entries.
	if err = godotenv.Load(path + "/.env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("load .env: %w", err)
	}
	err = nil

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)
	for key, env := range envBindings {
		if err = v.BindEnv(key, env); err != nil {
			return config, err
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return config, fmt.Errorf("read config: %w", err)
		}
		err = nil
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("decode config: %w", err)
	}
	return config, config.Validate()
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Mongo.URI != "" && c.Mongo.DBName == "" {
		return fmt.Errorf("mongo.dbName is required when mongo.uri is set")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive")
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.WindowSeconds <= 0 {
		return fmt.Errorf("rateLimit.requests and rateLimit.windowSeconds must be positive")
	}
	if c.Heuristics.CurfewStartHour < 0 || c.Heuristics.CurfewStartHour > 23 ||
		c.Heuristics.CurfewEndHour < 0 || c.Heuristics.CurfewEndHour > 23 {
		return fmt.Errorf("heuristics curfew hours must be within 0-23")
	}
	return nil
}
