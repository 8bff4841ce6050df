package config

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Join strategies for pairing sensor features with incident labels.
const (
	JoinByKey      = "key"
	JoinByPosition = "position"
)

// Config holds all run settings, populated from environment variables.
// The env tag names the variable a field is read from and is used when
// reporting validation failures.
type Config struct {
	DBDriver      string        `env:"DB_DRIVER" validate:"oneof=sqlserver mysql pgx postgres sqlite3"`
	DBDSN         string        `env:"DB_DSN" validate:"required"`
	QueryTimeout  time.Duration `env:"DB_QUERY_TIMEOUT" validate:"gt=0s"`
	SensorQuery   string        `env:"SENSOR_QUERY" validate:"required"`
	IncidentQuery string        `env:"INCIDENT_QUERY" validate:"required"`

	JoinStrategy string `env:"JOIN_STRATEGY" validate:"oneof=key position"`
	JoinColumn   string `env:"JOIN_COLUMN" validate:"required_if=JoinStrategy key"`

	// Model settings.
	TestSize     float64 `env:"TEST_SIZE" validate:"gt=0,lt=1"`
	RandomSeed   uint64  `env:"RANDOM_SEED"`
	NumTrees     int     `env:"NUM_TREES" validate:"min=1,max=10000"`
	TrainWorkers int     `env:"TRAIN_WORKERS" validate:"min=1,max=256"`

	// Optional outputs. Empty values disable the stage.
	PlotDir             string   `env:"PLOT_DIR"`
	FeaturesParquetPath string   `env:"FEATURES_PARQUET_PATH"`
	KafkaBrokers        []string `env:"KAFKA_BROKERS" validate:"required_with=KafkaGuidanceTopic"`
	KafkaGuidanceTopic  string   `env:"KAFKA_GUIDANCE_TOPIC"`
	PushgatewayURL      string   `env:"PUSHGATEWAY_URL" validate:"omitempty,url"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=json text"`
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is read first; it never overrides
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	queryTimeout, err := parseDuration("DB_QUERY_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	testSize, err := parseFloat("TEST_SIZE", "0.3")
	if err != nil {
		return nil, err
	}
	seed, err := strconv.ParseUint(sharedcfg.EnvOrDefault("RANDOM_SEED", "42"), 10, 64)
	if err != nil {
		return nil, errors.New("invalid RANDOM_SEED")
	}
	numTrees, err := parseInt("NUM_TREES", "100")
	if err != nil {
		return nil, err
	}
	workers, err := parseInt("TRAIN_WORKERS", "4")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBDriver:      sharedcfg.EnvOrDefault("DB_DRIVER", "sqlserver"),
		DBDSN:         sharedcfg.EnvOrDefault("DB_DSN", ""),
		QueryTimeout:  queryTimeout,
		SensorQuery:   sharedcfg.EnvOrDefault("SENSOR_QUERY", "SELECT * FROM IoT_Sensor_Data;"),
		IncidentQuery: sharedcfg.EnvOrDefault("INCIDENT_QUERY", "SELECT * FROM Fire_Incident_Data;"),

		JoinStrategy: sharedcfg.EnvOrDefault("JOIN_STRATEGY", JoinByKey),
		JoinColumn:   sharedcfg.EnvOrDefault("JOIN_COLUMN", "IncidentID"),

		TestSize:     testSize,
		RandomSeed:   seed,
		NumTrees:     numTrees,
		TrainWorkers: workers,

		PlotDir:             sharedcfg.EnvOrDefault("PLOT_DIR", "plots"),
		FeaturesParquetPath: sharedcfg.EnvOrDefault("FEATURES_PARQUET_PATH", ""),
		KafkaBrokers:        sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaGuidanceTopic:  sharedcfg.EnvOrDefault("KAFKA_GUIDANCE_TOPIC", ""),
		PushgatewayURL:      sharedcfg.EnvOrDefault("PUSHGATEWAY_URL", ""),

		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports the first failure by
// environment variable name.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})

	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" || fe.Tag() == "required_if" || fe.Tag() == "required_with" {
			return fmt.Errorf("%s is required", fe.Field())
		}
		return fmt.Errorf("invalid %s: %v fails %q", fe.Field(), fe.Value(), fe.Tag())
	}
	return fmt.Errorf("validate config: %w", err)
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseInt(key, def string) (int, error) {
	n, err := strconv.Atoi(sharedcfg.EnvOrDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
