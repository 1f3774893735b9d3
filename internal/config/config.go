package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers supported by the registry.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	StoreDriver         string
	MongoURI            string
	MongoDatabase       string
	MongoTimeout        time.Duration
	MongoMaxPoolSize    uint64
	MongoIdleTimeout    time.Duration
	DatabaseURL         string
	SQLitePath          string
	RedisURL            string
	NATSURL             string
	ChannelBase         string
	SchemaVariant       string
	ListCacheTTL        time.Duration
	WriteRateLimit      int
	WriteRateLimitEvery time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RESPONDENT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Respondent Registry API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("store.driver", StoreMongo)
	v.SetDefault("mongo.database", "respondent_registry")
	v.SetDefault("mongo.timeout", "10s")
	v.SetDefault("mongo.max_pool_size", 20)
	v.SetDefault("mongo.idle_timeout", "45s")
	v.SetDefault("sqlite.path", "respondents.db")
	v.SetDefault("channel.base", "respondents")
	v.SetDefault("schema.variant", "base")
	v.SetDefault("list.cache_ttl", "2m")
	v.SetDefault("ratelimit.max", 30)
	v.SetDefault("ratelimit.window", "1m")

	mongoTimeout, err := parseDuration(v, "mongo.timeout")
	if err != nil {
		return Config{}, err
	}
	mongoIdle, err := parseDuration(v, "mongo.idle_timeout")
	if err != nil {
		return Config{}, err
	}
	cacheTTL, err := parseDuration(v, "list.cache_ttl")
	if err != nil {
		return Config{}, err
	}
	rateWindow, err := parseDuration(v, "ratelimit.window")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		StoreDriver:         strings.ToLower(strings.TrimSpace(v.GetString("store.driver"))),
		MongoURI:            v.GetString("mongo.uri"),
		MongoDatabase:       v.GetString("mongo.database"),
		MongoTimeout:        mongoTimeout,
		MongoMaxPoolSize:    v.GetUint64("mongo.max_pool_size"),
		MongoIdleTimeout:    mongoIdle,
		DatabaseURL:         v.GetString("database.url"),
		SQLitePath:          v.GetString("sqlite.path"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		ChannelBase:         v.GetString("channel.base"),
		SchemaVariant:       strings.ToLower(strings.TrimSpace(v.GetString("schema.variant"))),
		ListCacheTTL:        cacheTTL,
		WriteRateLimit:      v.GetInt("ratelimit.max"),
		WriteRateLimitEvery: rateWindow,
	}

	switch cfg.StoreDriver {
	case StoreMongo:
		if cfg.MongoURI == "" {
			return Config{}, fmt.Errorf("mongo uri must be provided when store driver is %q", StoreMongo)
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("database url must be provided when store driver is %q", StorePostgres)
		}
	case StoreSQLite:
	default:
		return Config{}, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if cfg.WriteRateLimit <= 0 {
		cfg.WriteRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
