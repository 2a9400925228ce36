package domain

import (
	"context"
	"fmt"
	"time"
)

const (
	// Horizon is the number of future days forecast per request.
	Horizon = 7

	// Window is the number of trailing history days fed to the model.
	Window = 60

	// LevelClasses is the number of ordinal classes (0–4) produced by the
	// rain-level and wind-level classification heads.
	LevelClasses = 5

	// DateLayout is the calendar date format used on every boundary.
	DateLayout = "2006-01-02"
)

// ForecastDay is one decoded day of the 7-day horizon.
type ForecastDay struct {
	Date      Date    `json:"date"`
	DayName   string  `json:"day_name"`
	HeatIndex float64 `json:"heat_index"` // °C
	TempAvg   float64 `json:"temp_avg"`   // °C
	WindSpeed float64 `json:"wind_speed"` // km/h
	RainLevel int     `json:"rain_level"` // 0–4
	WindLevel int     `json:"wind_level"` // 0–4
}

// ForecastSeries holds exactly Horizon days; index 0 is the first day after
// the request's end date.
type ForecastSeries []ForecastDay

// Date is a calendar day that encodes as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the embedded time.Time encoder.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a JSON string, got %s", s)
	}
	return d.UnmarshalText([]byte(s[1 : len(s)-1]))
}

// AddDays returns the date n calendar days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// ModelOutput is the four aligned arrays produced by the predictive model for
// one city, with the leading batch dimension already removed.
type ModelOutput struct {
	Temperature []float64   `json:"temp_out"`
	WindSpeed   []float64   `json:"wind_out"`
	RainProbs   [][]float64 `json:"rain_level_out"`
	WindProbs   [][]float64 `json:"wind_level_out"`
}

// Outlook is the structured result of one forecast request.
type Outlook struct {
	City         string         `json:"city"`
	Region       string         `json:"region"`
	SelectedDate string         `json:"selected_date"`
	HorizonDays  int            `json:"horizon_days"`
	Forecast     ForecastSeries `json:"forecast"`
	Summary      string         `json:"summary"`
	Events       EventReport    `json:"events"`
}

// ForecastRequest identifies a city and the last day of observed history.
// An empty EndDate means "today".
type ForecastRequest struct {
	City    string `json:"city" validate:"required"`
	EndDate string `json:"end_date,omitempty"`

	// Accepted for compatibility with existing clients; the horizon is fixed.
	TimeOption string `json:"time_option,omitempty"`
	Timeframe  *int   `json:"timeframe,omitempty"`
}

// RawRequest is an unprocessed forecast request read from the source topic.
type RawRequest struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputMessage is the serialized outlook destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
