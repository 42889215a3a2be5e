package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/couchcryptid/restaurant-weather-etl/internal/domain"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	RestaurantPath string `envconfig:"RESTAURANT_PATH" default:"data/restaurant_csv" validate:"required"`
	WeatherPath    string `envconfig:"WEATHER_PATH" default:"data/weather" validate:"required"`
	OutputPath     string `envconfig:"OUTPUT_PATH" default:"data/output" validate:"required"`

	GeohashPrecision int `envconfig:"GEOHASH_PRECISION" default:"4" validate:"min=1,max=12"`
	Partitions       int `envconfig:"PARTITIONS" default:"8" validate:"min=1,max=256"`

	// OpenCage geocoding configuration.
	OpenCageAPIKey    string        `envconfig:"OPENCAGE_API_KEY"`
	OpenCageTimeout   time.Duration `envconfig:"OPENCAGE_TIMEOUT" default:"5s" validate:"gt=0"`
	OpenCageRateLimit float64       `envconfig:"OPENCAGE_RATE_LIMIT" default:"1" validate:"gt=0"`
	GeocodeCacheSize  int           `envconfig:"GEOCODE_CACHE_SIZE" default:"0" validate:"min=0"`
	GeocodeWorkers    int           `envconfig:"GEOCODE_WORKERS" default:"4" validate:"min=1,max=64"`

	// Optional Kafka sink; disabled when no brokers are set.
	KafkaBrokers   []string `envconfig:"KAFKA_BROKERS"`
	KafkaSinkTopic string   `envconfig:"KAFKA_SINK_TOPIC" default:"enriched-restaurants"`

	HTTPAddr        string        `envconfig:"HTTP_ADDR"`
	LogLevel        string        `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat       string        `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" validate:"gt=0"`
}

// KafkaEnabled reports whether the Kafka sink should be used.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// ErrorType classifies configuration failures.
type ErrorType string

const (
	ErrParsing           ErrorType = "PARSING"
	ErrValidation        ErrorType = "VALIDATION"
	ErrMissingCredential ErrorType = "MISSING_CREDENTIAL"
)

// Error is returned by Load. It wraps the underlying cause so callers can use
// errors.Is, e.g. against domain.ErrMissingCredential.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads configuration from a .env file (if present) and the environment,
// applying defaults where unset. A missing OPENCAGE_API_KEY is fatal.
func Load() (*Config, error) {
	// Does not override variables already set in the environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &Error{Type: ErrParsing, Message: "failed to process environment configuration", Err: err}
	}

	cfg.OpenCageAPIKey = strings.TrimSpace(cfg.OpenCageAPIKey)
	if cfg.OpenCageAPIKey == "" {
		return nil, &Error{Type: ErrMissingCredential, Message: "OPENCAGE_API_KEY is required", Err: domain.ErrMissingCredential}
	}
	cfg.KafkaBrokers = cleanList(cfg.KafkaBrokers)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &Error{Type: ErrValidation, Message: "configuration validation failed", Err: err}
	}

	return &cfg, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
