package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/weather-outlook/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/weather-outlook/internal/adapter/kafka"
	"github.com/couchcryptid/weather-outlook/internal/adapter/metafile"
	"github.com/couchcryptid/weather-outlook/internal/adapter/modelserver"
	"github.com/couchcryptid/weather-outlook/internal/adapter/postgres"
	"github.com/couchcryptid/weather-outlook/internal/adapter/scalerstore"
	"github.com/couchcryptid/weather-outlook/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-outlook/internal/config"
	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/couchcryptid/weather-outlook/internal/observability"
	"github.com/couchcryptid/weather-outlook/internal/pipeline"
)

const startupTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	catalog, err := loadCatalog(cfg)
	if err != nil {
		logger.Error("failed to load city metadata", "error", err)
		os.Exit(1)
	}

	var ready readinessChecks

	scalers, err := scalerstore.Load(cfg.ScalerPath)
	if err != nil {
		logger.Error("failed to load scalers", "path", cfg.ScalerPath, "error", err)
		os.Exit(1)
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), startupTimeout)
	history, closeHistory, err := openHistory(startupCtx, cfg, &ready)
	cancelStartup()
	if err != nil {
		logger.Error("failed to open climate history", "source", cfg.HistorySource, "error", err)
		os.Exit(1)
	}
	defer closeHistory()
	logger.Info("artifacts loaded",
		"cities", len(catalog.Cities()),
		"scalers", len(scalers.Cities()),
		"history_source", cfg.HistorySource,
	)

	client := modelserver.NewClient(modelserver.Options{
		BaseURL:   cfg.ModelURL,
		ModelName: cfg.ModelName,
		Timeout:   cfg.ModelTimeout,
		RPS:       cfg.ModelRPS,
		Burst:     cfg.ModelBurst,
	}, logger, metrics)

	var model pipeline.Model = client
	if cfg.ModelCacheSize > 0 {
		model = modelserver.NewCachedModel(client, cfg.ModelCacheSize, metrics)
		logger.Info("model prediction cache enabled", "cache_size", cfg.ModelCacheSize)
	}

	forecaster := pipeline.NewForecaster(catalog, history, scalers, model, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reader *kafkaadapter.Reader
		writer *kafkaadapter.Writer
	)
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(forecaster, logger)
		p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize, cfg.WorkerConcurrency)
		ready = append(ready, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("kafka batch mode enabled", "source", cfg.KafkaSourceTopic, "sink", cfg.KafkaSinkTopic)
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	}, ready, forecaster, catalog, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// loadCatalog builds the city catalog from meta_info.csv, or from the
// built-in region table when no path is configured.
func loadCatalog(cfg *config.Config) (*domain.Catalog, error) {
	if cfg.MetaInfoPath == "" {
		return domain.DefaultCatalog(), nil
	}
	regions, err := metafile.Load(cfg.MetaInfoPath)
	if err != nil {
		return nil, err
	}
	return domain.NewCatalog(domain.CityAliases, domain.CityBias, regions), nil
}

func openHistory(ctx context.Context, cfg *config.Config, ready *readinessChecks) (pipeline.HistorySource, func(), error) {
	switch cfg.HistorySource {
	case config.HistoryPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		*ready = append(*ready, readinessFunc(pool.Ping))
		return postgres.NewHistoryStore(pool), pool.Close, nil
	case config.HistoryXLSX:
		store, err := xlsx.Open(cfg.HistoryXLSXPath, cfg.HistoryXLSXSheet)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported history source %q", cfg.HistorySource)
	}
}

// readinessChecks is ready when every member is.
type readinessChecks []sharedobs.ReadinessChecker

func (r readinessChecks) CheckReadiness(ctx context.Context) error {
	for _, c := range r {
		if err := c.CheckReadiness(ctx); err != nil {
			return err
		}
	}
	return nil
}

type readinessFunc func(ctx context.Context) error

func (f readinessFunc) CheckReadiness(ctx context.Context) error { return f(ctx) }
