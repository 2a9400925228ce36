package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/couchcryptid/weather-outlook/internal/observability"
)

// HistorySource returns a city's observed daily features. Implementations may
// return rows after end or more than limit rows; the window builder filters.
type HistorySource interface {
	History(ctx context.Context, city string, end domain.Date, limit int) ([]domain.HistoryRow, error)
}

// ScalerSource returns the fitted feature scaler for a canonical city name.
type ScalerSource interface {
	Scaler(city string) (*domain.MinMaxScaler, error)
}

// Model runs the multi-task network on one scaled window.
type Model interface {
	Predict(ctx context.Context, window [][]float64) (domain.ModelOutput, error)
}

// Forecaster turns a city and end date into a complete Outlook. It holds no
// per-request state and is safe for concurrent use.
type Forecaster struct {
	catalog  *domain.Catalog
	composer *domain.Composer
	history  HistorySource
	scalers  ScalerSource
	model    Model
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewForecaster wires the forecast steps to their collaborators.
func NewForecaster(catalog *domain.Catalog, history HistorySource, scalers ScalerSource, model Model, logger *slog.Logger, metrics *observability.Metrics) *Forecaster {
	return &Forecaster{
		catalog:  catalog,
		composer: domain.NewComposer(catalog),
		history:  history,
		scalers:  scalers,
		model:    model,
		logger:   logger,
		metrics:  metrics,
	}
}

// Forecast runs one request end to end. Either a complete Outlook or an
// error is returned, never a partial result.
func (f *Forecaster) Forecast(ctx context.Context, req domain.ForecastRequest) (outlook domain.Outlook, err error) {
	start := time.Now()
	defer func() {
		f.metrics.ForecastDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			f.metrics.ForecastsTotal.WithLabelValues(string(domain.KindOf(err))).Inc()
			return
		}
		f.metrics.ForecastsTotal.WithLabelValues("success").Inc()
		for _, kind := range outlook.Events.Detected() {
			f.metrics.EventsDetected.WithLabelValues(string(kind)).Inc()
		}
	}()

	end, err := resolveEndDate(req.EndDate)
	if err != nil {
		return domain.Outlook{}, err
	}

	profile, err := f.catalog.Resolve(req.City)
	if err != nil {
		return domain.Outlook{}, err
	}
	city := profile.Name

	scaler, err := f.scalers.Scaler(city)
	if err != nil {
		return domain.Outlook{}, classify(err, "load scaler for %s", city)
	}

	rows, err := f.history.History(ctx, city, end, domain.Window)
	if err != nil {
		return domain.Outlook{}, classify(err, "load history for %s", city)
	}

	window, err := domain.BuildWindow(city, rows, end, domain.Window, scaler.FeatureNames)
	if err != nil {
		return domain.Outlook{}, err
	}

	scaled, err := scaler.Transform(window)
	if err != nil {
		return domain.Outlook{}, domain.ErrUnclassified(err, "scale window for %s", city)
	}

	out, err := f.model.Predict(ctx, scaled)
	if err != nil {
		return domain.Outlook{}, classify(err, "predict %s", city)
	}

	series, err := domain.DecodeForecast(out, domain.FutureDates(end, domain.Horizon))
	if err != nil {
		return domain.Outlook{}, err
	}
	f.logger.Debug("decoded forecast levels",
		"city", city,
		"rain_levels", levels(series, func(d domain.ForecastDay) int { return d.RainLevel }),
		"wind_levels", levels(series, func(d domain.ForecastDay) int { return d.WindLevel }),
	)

	events := domain.DetectEvents(series)
	selected := end.String()

	return domain.Outlook{
		City:         city,
		Region:       profile.Region,
		SelectedDate: selected,
		HorizonDays:  len(series),
		Forecast:     series,
		Summary:      f.composer.Compose(city, selected, series, events),
		Events:       events,
	}, nil
}

func resolveEndDate(s string) (domain.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.Today(), nil
	}
	end, err := domain.ParseDate(s)
	if err != nil {
		return domain.Date{}, domain.ErrInvalidRequest(err, "invalid end_date %q, expected YYYY-MM-DD", s)
	}
	return end, nil
}

// classify passes classified errors through and wraps everything else as
// unclassified.
func classify(err error, format string, args ...any) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrUnclassified(err, format, args...)
}

func levels(series domain.ForecastSeries, pick func(domain.ForecastDay) int) []int {
	out := make([]int, len(series))
	for i, d := range series {
		out[i] = pick(d)
	}
	return out
}
