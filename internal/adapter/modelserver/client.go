// Package modelserver calls a TensorFlow Serving compatible REST endpoint to
// run the multi-task forecast network.
package modelserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/couchcryptid/weather-outlook/internal/observability"
)

// maxErrorBody bounds how much of a failed response is copied into the error.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL   string
	ModelName string
	Timeout   time.Duration
	RPS       float64
	Burst     int
}

// Client implements pipeline.Model against the ":predict" endpoint. Calls are
// rate limited and guarded by a circuit breaker that trips on 5xx and 429.
type Client struct {
	endpoint   string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a model server client.
func NewClient(opts Options, logger *slog.Logger, metrics *observability.Metrics) *Client {
	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "model-server",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		endpoint: fmt.Sprintf("%s/v1/models/%s:predict",
			strings.TrimRight(opts.BaseURL, "/"), url.PathEscape(opts.ModelName)),
		httpClient: &http.Client{Timeout: opts.Timeout},
		breaker:    breaker,
		limiter:    rate.NewLimiter(rate.Limit(opts.RPS), opts.Burst),
		logger:     logger,
		metrics:    metrics,
	}
}

type predictRequest struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResponse struct {
	Predictions []domain.ModelOutput `json:"predictions"`
	Error       string               `json:"error,omitempty"`
}

// Predict sends one window and returns the model's four output heads with
// the batch dimension removed.
func (c *Client) Predict(ctx context.Context, window [][]float64) (out domain.ModelOutput, err error) {
	start := time.Now()
	defer func() {
		c.metrics.ModelDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ModelRequests.WithLabelValues(outcome).Inc()
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return domain.ModelOutput{}, fmt.Errorf("wait for model rate limit: %w", err)
	}

	body, err := json.Marshal(predictRequest{Instances: [][][]float64{window}})
	if err != nil {
		return domain.ModelOutput{}, fmt.Errorf("encode predict request: %w", err)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		r, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if r.StatusCode >= 500 || r.StatusCode == http.StatusTooManyRequests {
			return r, fmt.Errorf("model server returned %d", r.StatusCode)
		}
		return r, nil
	})
	if resp != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.ModelOutput{}, fmt.Errorf("model server unavailable: %w", err)
		}
		return domain.ModelOutput{}, fmt.Errorf("predict request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.ModelOutput{}, fmt.Errorf("model server error: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return domain.ModelOutput{}, fmt.Errorf("decode predict response: %w", err)
	}
	if pr.Error != "" {
		return domain.ModelOutput{}, fmt.Errorf("model server error: %s", pr.Error)
	}
	if len(pr.Predictions) != 1 {
		return domain.ModelOutput{}, fmt.Errorf("expected 1 prediction, got %d", len(pr.Predictions))
	}

	c.logger.Debug("model prediction received", "rows", len(window), "elapsed", time.Since(start))
	return pr.Predictions[0], nil
}
