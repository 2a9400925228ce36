//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/xuri/excelize/v2"

	"github.com/couchcryptid/weather-outlook/internal/adapter/kafka"
	"github.com/couchcryptid/weather-outlook/internal/adapter/modelserver"
	"github.com/couchcryptid/weather-outlook/internal/adapter/scalerstore"
	"github.com/couchcryptid/weather-outlook/internal/adapter/xlsx"
	"github.com/couchcryptid/weather-outlook/internal/config"
	"github.com/couchcryptid/weather-outlook/internal/domain"
	"github.com/couchcryptid/weather-outlook/internal/observability"
	"github.com/couchcryptid/weather-outlook/internal/pipeline"
)

const (
	testSourceTopic = "test-source"
	testSinkTopic   = "test-sink"
	testEndDate     = "2024-04-28"
)

var testCities = []string{"Hanoi", "Da Nang", "Can Tho"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("test-cluster"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// newForecaster wires the real history, scaler, and model adapters against a
// generated workbook and a stub model server that forecasts a hot, dry week.
func newForecaster(t *testing.T) *pipeline.Forecaster {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Date", "City", "temperature_average_c", "PRCP"}))
	row := 2
	end := time.Date(2024, 4, 28, 0, 0, 0, 0, time.UTC)
	for _, city := range testCities {
		for d := 59; d >= 0; d-- {
			cell, err := excelize.CoordinatesToCellName(1, row)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow("Sheet1", cell, &[]any{
				end.AddDate(0, 0, -d).Format(domain.DateLayout), city, 30.0, 0.0,
			}))
			row++
		}
	}
	path := filepath.Join(t.TempDir(), "history.xlsx")
	require.NoError(t, f.SaveAs(path))

	history, err := xlsx.Open(path, "")
	require.NoError(t, err)

	scalerJSON := `{
		"Hanoi": {"feature_names": ["temperature_average_c", "PRCP"], "data_min": [0, 0], "data_max": [40, 100]},
		"Da Nang": {"feature_names": ["temperature_average_c", "PRCP"], "data_min": [0, 0], "data_max": [40, 100]},
		"Can Tho": {"feature_names": ["temperature_average_c", "PRCP"], "data_min": [0, 0], "data_max": [40, 100]}
	}`
	scalers, err := scalerstore.Parse([]byte(scalerJSON))
	require.NoError(t, err)

	out := domain.ModelOutput{}
	for i := 0; i < domain.Horizon; i++ {
		out.Temperature = append(out.Temperature, 36)
		out.WindSpeed = append(out.WindSpeed, 10)
		out.RainProbs = append(out.RainProbs, []float64{0.9, 0.1, 0, 0, 0})
		out.WindProbs = append(out.WindProbs, []float64{0.2, 0.8, 0, 0, 0})
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"predictions": []domain.ModelOutput{out}})
	}))
	t.Cleanup(srv.Close)

	metrics := observability.NewMetricsForTesting()
	client := modelserver.NewClient(modelserver.Options{
		BaseURL:   srv.URL,
		ModelName: "transformer_multitask",
		Timeout:   5 * time.Second,
		RPS:       100,
		Burst:     10,
	}, discardLogger(), metrics)

	return pipeline.NewForecaster(domain.DefaultCatalog(), history, scalers, client, discardLogger(), metrics)
}

func requestPayload(t *testing.T, city string) []byte {
	t.Helper()
	b, err := json.Marshal(domain.ForecastRequest{City: city, EndDate: testEndDate})
	require.NoError(t, err)
	return b
}

// outlookMessage holds a deserialized message read from the sink topic.
type outlookMessage struct {
	Outlook domain.Outlook
	Key     string
	Headers map[string]string
}

func readOutlook(ctx context.Context, t *testing.T, consumer *kafkago.Reader) outlookMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var outlook domain.Outlook
	require.NoError(t, json.Unmarshal(msg.Value, &outlook), "unmarshal sink message")

	return outlookMessage{Outlook: outlook, Key: string(msg.Key), Headers: headers}
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

// TestKafkaReaderWriter round-trips one request through the reader, the
// transformer, and the writer.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	payload := requestPayload(t, "hanoi")
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{Key: []byte("hanoi"), Value: payload}))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawRequest
	for len(batch) == 0 {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit, "commit callback should be set")
	require.NoError(t, raw.Commit(ctx))

	transformer := pipeline.NewTransformer(newForecaster(t), discardLogger())
	msg, err := transformer.Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputMessage{msg}))

	om := readOutlook(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "Hanoi|"+testEndDate, om.Key)
	assert.Equal(t, "Hanoi", om.Headers["city"])
	assert.Equal(t, domain.RegionNorth, om.Headers["region"])
	_, err = time.Parse(time.RFC3339, om.Headers["generated_at"])
	assert.NoError(t, err, "generated_at should be valid RFC3339")

	assert.Equal(t, "Hanoi", om.Outlook.City)
	assert.Equal(t, testEndDate, om.Outlook.SelectedDate)
	require.Len(t, om.Outlook.Forecast, domain.Horizon)
	assert.Equal(t, "2024-04-29", om.Outlook.Forecast[0].Date.String())
	assert.True(t, om.Outlook.Events.Has(domain.EventHeatwave))
	assert.True(t, om.Outlook.Events.Has(domain.EventHotDry))
	assert.NotEmpty(t, om.Outlook.Summary)
}

// TestPipelineEndToEnd runs the batch loop against real Kafka.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	msgs := make([]kafkago.Message, 0, len(testCities))
	for _, city := range testCities {
		msgs = append(msgs, kafkago.Message{Key: []byte(city), Value: requestPayload(t, city)})
	}
	require.NoError(t, producer.WriteMessages(ctx, msgs...))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(newForecaster(t), discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), observability.NewMetricsForTesting(), 50, 4)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	got := map[string]outlookMessage{}
	for len(got) < len(testCities) {
		om := readOutlook(ctx, t, consumer)
		got[om.Outlook.City] = om
	}

	require.NoError(t, p.CheckReadiness(ctx))
	pipelineCancel()
	require.NoError(t, <-errCh)

	for _, city := range testCities {
		om, ok := got[city]
		require.True(t, ok, "missing outlook for %s", city)
		assert.Equal(t, city+"|"+testEndDate, om.Key)
		assert.Equal(t, domain.RegionOf(city), om.Outlook.Region)
	}
}

// TestPipelineTransformError verifies that a malformed payload and an unknown
// city are skipped while valid requests still flow through.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })

	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not-json{{{")},
		kafkago.Message{Key: []byte("atlantis"), Value: requestPayload(t, "atlantis")},
		kafkago.Message{Key: []byte("cantho"), Value: requestPayload(t, "cantho")},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	transformer := pipeline.NewTransformer(newForecaster(t), discardLogger())
	p := pipeline.New(reader, transformer, writer, discardLogger(), observability.NewMetricsForTesting(), 50, 2)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	om := readOutlook(ctx, t, consumer)
	assert.Equal(t, "Can Tho", om.Outlook.City)

	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
