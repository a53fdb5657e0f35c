package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"nourishnet-route-service/internal/services"

	"github.com/spf13/viper"
)

// Config holds every runtime setting of the route service.
// Values come from defaults, then an optional <path>/app.env file, then the environment.
type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	DBDriver    string `mapstructure:"DB_DRIVER"`
	DBPath      string `mapstructure:"DB_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	SeedPath    string `mapstructure:"SEED_PATH"`

	RedisURL      string        `mapstructure:"REDIS_URL"`
	RouteCacheTTL time.Duration `mapstructure:"ROUTE_CACHE_TTL"`

	KafkaBroker string `mapstructure:"KAFKA_BROKER"`
	KafkaTopic  string `mapstructure:"KAFKA_TOPIC"`

	AverageSpeedKmh     float64 `mapstructure:"AVERAGE_SPEED_KMH"`
	PerStopDwellMinutes float64 `mapstructure:"PER_STOP_DWELL_MINUTES"`
	ReturnToDepot       bool    `mapstructure:"RETURN_TO_DEPOT"`
	PlanConcurrency     int     `mapstructure:"PLAN_CONCURRENCY"`
	MaxStops            int     `mapstructure:"MAX_STOPS"`
}

var defaults = map[string]any{
	"PORT":                   "8080",
	"LOG_LEVEL":              "info",
	"DB_DRIVER":              "sqlite",
	"DB_PATH":                "data/app.db",
	"DATABASE_URL":           "",
	"SEED_PATH":              "data/seeds/nourishnet.json",
	"REDIS_URL":              "",
	"ROUTE_CACHE_TTL":        "10m",
	"KAFKA_BROKER":           "",
	"KAFKA_TOPIC":            "nourishnet.routes",
	"AVERAGE_SPEED_KMH":      services.DefaultAverageSpeedKmh,
	"PER_STOP_DWELL_MINUTES": services.DefaultPerStopDwellMinutes,
	"RETURN_TO_DEPOT":        false,
	"PLAN_CONCURRENCY":       5,
	"MAX_STOPS":              200,
}

// LoadConfig reads app.env from path when present and overlays environment variables.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read %s/app.env: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: decode: %w", err)
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(c.DBDriver) {
	case "sqlite":
		if strings.TrimSpace(c.DBPath) == "" {
			return errors.New("DB_PATH is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	if c.PlanConcurrency < 1 {
		return fmt.Errorf("PLAN_CONCURRENCY must be at least 1, got %d", c.PlanConcurrency)
	}

	if c.MaxStops < 1 {
		return fmt.Errorf("MAX_STOPS must be at least 1, got %d", c.MaxStops)
	}

	if err := c.SequencerOptions().Validate(); err != nil {
		return fmt.Errorf("AVERAGE_SPEED_KMH / PER_STOP_DWELL_MINUTES: %w", err)
	}

	return nil
}

func (c Config) SequencerOptions() services.SequencerOptions {
	return services.SequencerOptions{
		AverageSpeedKmh:     c.AverageSpeedKmh,
		PerStopDwellMinutes: c.PerStopDwellMinutes,
		ReturnToDepot:       c.ReturnToDepot,
	}
}

// Get returns an environment variable or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
