package config

import (
	"errors"
	"fmt"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// History source kinds.
const (
	HistoryXLSX     = "xlsx"
	HistoryPostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080" validate:"required"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn warning error"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json" validate:"oneof=json text"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`

	// Climate history.
	HistorySource    string `envconfig:"HISTORY_SOURCE" default:"xlsx" validate:"oneof=xlsx postgres"`
	HistoryXLSXPath  string `envconfig:"HISTORY_XLSX_PATH" default:"data/Vietnam_Climate_enhanced_features.xlsx" validate:"required_if=HistorySource xlsx"`
	HistoryXLSXSheet string `envconfig:"HISTORY_XLSX_SHEET"`
	DatabaseURL      string `envconfig:"DATABASE_URL" validate:"required_if=HistorySource postgres"`

	// Model artifacts.
	ScalerPath   string `envconfig:"SCALER_PATH" default:"model/scalers_by_city.json" validate:"required"`
	MetaInfoPath string `envconfig:"META_INFO_PATH" default:"model/meta_info.csv"`

	// Model server.
	ModelURL       string        `envconfig:"MODEL_URL" default:"http://localhost:8501" validate:"required,url"`
	ModelName      string        `envconfig:"MODEL_NAME" default:"transformer_multitask" validate:"required"`
	ModelTimeout   time.Duration `envconfig:"MODEL_TIMEOUT" default:"30s" validate:"gt=0"`
	ModelRPS       float64       `envconfig:"MODEL_RPS" default:"20" validate:"gt=0"`
	ModelBurst     int           `envconfig:"MODEL_BURST" default:"5" validate:"min=1"`
	ModelCacheSize int           `envconfig:"MODEL_CACHE_SIZE" default:"256" validate:"min=0"`

	// Kafka batch mode.
	KafkaEnabled      bool   `envconfig:"KAFKA_ENABLED" default:"false"`
	KafkaSourceTopic  string `envconfig:"KAFKA_SOURCE_TOPIC" default:"forecast-requests" validate:"required_if=KafkaEnabled true"`
	KafkaSinkTopic    string `envconfig:"KAFKA_SINK_TOPIC" default:"weather-outlooks" validate:"required_if=KafkaEnabled true"`
	KafkaGroupID      string `envconfig:"KAFKA_GROUP_ID" default:"weather-outlook"`
	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"4" validate:"min=1,max=64"`

	// Shared knobs parsed by storm-data-shared.
	KafkaBrokers       []string      `ignored:"true"`
	ShutdownTimeout    time.Duration `ignored:"true"`
	BatchSize          int           `ignored:"true"`
	BatchFlushInterval time.Duration `ignored:"true"`
}

// Load reads configuration from a .env file (if present) and environment
// variables, applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	cfg.KafkaBrokers = sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092"))
	cfg.ShutdownTimeout = shutdownTimeout
	cfg.BatchSize = batchSize
	cfg.BatchFlushInterval = flushInterval

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}

	return &cfg, nil
}
