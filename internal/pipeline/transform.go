package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-outlook/internal/domain"
)

// OutlookForecaster produces an outlook for one request.
type OutlookForecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (domain.Outlook, error)
}

// OutlookTransformer implements Transformer by running each Kafka request
// through the forecaster and serializing the result.
type OutlookTransformer struct {
	forecaster OutlookForecaster
	logger     *slog.Logger
}

// NewTransformer creates an OutlookTransformer.
func NewTransformer(forecaster OutlookForecaster, logger *slog.Logger) *OutlookTransformer {
	return &OutlookTransformer{
		forecaster: forecaster,
		logger:     logger,
	}
}

func (t *OutlookTransformer) Transform(ctx context.Context, raw domain.RawRequest) (domain.OutputMessage, error) {
	req, err := domain.ParseForecastRequest(raw)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	outlook, err := t.forecaster.Forecast(ctx, req)
	if err != nil {
		return domain.OutputMessage{}, err
	}
	t.logger.Debug("outlook produced",
		"city", outlook.City,
		"selected_date", outlook.SelectedDate,
		"events", outlook.Events.Detected(),
	)

	return domain.SerializeOutlook(outlook)
}
