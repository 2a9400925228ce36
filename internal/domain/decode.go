package domain

import (
	"fmt"
	"time"
)

// dayNames is the weekday label cycle with Monday at index 0.
var dayNames = [7]string{"T2", "T3", "T4", "T5", "T6", "T7", "CN"}

// DayName returns the label for a Monday-based weekday index, or "" when idx
// is outside 0–6.
func DayName(idx int) string {
	if idx < 0 || idx >= len(dayNames) {
		return ""
	}
	return dayNames[idx]
}

// WeekdayIndex converts a time.Weekday (Sunday = 0) to a Monday-based index.
func WeekdayIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

// FutureDates returns the n calendar days following end.
func FutureDates(end Date, n int) []Date {
	dates := make([]Date, n)
	for i := range dates {
		dates[i] = end.AddDays(i + 1)
	}
	return dates
}

// DecodeForecast converts the model's four aligned outputs into a
// ForecastSeries. Rain and wind levels are the argmax of each day's class
// distribution; ties resolve to the lowest class index. The single
// temperature head fills both HeatIndex and TempAvg.
func DecodeForecast(out ModelOutput, dates []Date) (ForecastSeries, error) {
	if err := validateOutput(out, dates); err != nil {
		return nil, ErrUnclassified(err, "decode model output")
	}

	series := make(ForecastSeries, Horizon)
	for i := range series {
		d := dates[i]
		series[i] = ForecastDay{
			Date:      d,
			DayName:   DayName(WeekdayIndex(d.Weekday())),
			HeatIndex: out.Temperature[i],
			TempAvg:   out.Temperature[i],
			WindSpeed: out.WindSpeed[i],
			RainLevel: Argmax(out.RainProbs[i]),
			WindLevel: Argmax(out.WindProbs[i]),
		}
	}
	return series, nil
}

// Argmax returns the index of the largest value; the lowest index wins ties.
// Returns -1 for an empty slice.
func Argmax(values []float64) int {
	if len(values) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

func validateOutput(out ModelOutput, dates []Date) error {
	switch {
	case len(dates) != Horizon:
		return fmt.Errorf("expected %d dates, got %d", Horizon, len(dates))
	case len(out.Temperature) != Horizon:
		return fmt.Errorf("temperature: expected %d values, got %d", Horizon, len(out.Temperature))
	case len(out.WindSpeed) != Horizon:
		return fmt.Errorf("wind speed: expected %d values, got %d", Horizon, len(out.WindSpeed))
	case len(out.RainProbs) != Horizon:
		return fmt.Errorf("rain levels: expected %d rows, got %d", Horizon, len(out.RainProbs))
	case len(out.WindProbs) != Horizon:
		return fmt.Errorf("wind levels: expected %d rows, got %d", Horizon, len(out.WindProbs))
	}
	for i := 0; i < Horizon; i++ {
		if len(out.RainProbs[i]) != LevelClasses {
			return fmt.Errorf("rain levels day %d: expected %d classes, got %d", i, LevelClasses, len(out.RainProbs[i]))
		}
		if len(out.WindProbs[i]) != LevelClasses {
			return fmt.Errorf("wind levels day %d: expected %d classes, got %d", i, LevelClasses, len(out.WindProbs[i]))
		}
	}
	return nil
}
