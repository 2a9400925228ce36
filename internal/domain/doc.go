// Package domain models the 7-day city weather outlook: the model input
// window, decoding of the model's multi-task output, event detection and the
// summary paragraph.
//
// # Request Flow
//
//	city code + end date
//	  → Catalog.Resolve            canonical name, region, feel-like bias
//	  → BuildWindow                trailing 60 days of features, source units
//	  → (scaler, model)            external collaborators, see package pipeline
//	  → DecodeForecast             ForecastSeries of exactly 7 days
//	  → DetectEvents               EventReport, one record per event kind
//	  → Composer.Compose           Vietnamese summary paragraph
//
// Every function here is pure apart from the package clock, which only
// supplies "today" when a request omits its end date.
//
// # Window Assembly
//
// History rows after the end date are ignored. When fewer than [Window] rows
// remain, the earliest row is repeated at the front:
//
//	rows:    d1 d2 … d10                 (10 real rows, W = 60)
//	window:  d1 ×50, d1 d2 … d10         (rows 0–49 pad, 50–59 real)
//
// Padding happens before scaling. A per-row min-max scaler makes this
// equivalent to padding the scaled rows.
//
// # Model Output
//
// The model has four heads: temperature and wind speed regressions of shape
// [7], and rain-level and wind-level softmax distributions of shape [7, 5].
// Levels are the argmax of each distribution with ties resolved to the lowest
// class, so two implementations decode identical probabilities identically.
// The temperature head fills both heat_index and temp_avg.
//
// Day labels follow the Vietnamese week, Monday first:
//
//	index: 0  1  2  3  4  5  6
//	label: T2 T3 T4 T5 T6 T7 CN
//
// # Event Thresholds
//
//	heatwave          ≥3 consecutive days with temp_avg ≥ 35 °C
//	hot_dry           mean temp_avg ≥ 33 °C and max rain_level ≤ 1
//	comfortable       mean temp_avg in [22, 28] °C and max rain_level ≤ 1
//	long_rain         ≥3 consecutive days with rain_level ≥ 2
//	heavy_rain        any day with rain_level ≥ 3
//	showers           max rain_level == 1, no heavy_rain, no long_rain
//	strong_wind       any day with wind_level ≥ 2
//	thunderstorm      any day with rain_level ≥ 2 and wind_level ≥ 2
//	storm_risk        any day with rain_level ≥ 3 and wind_level ≥ 2
//	urban_flood_risk  long_rain, or at least two heavy_rain days
//
// Runs are found by [LongestRun]; when two runs share the maximum length the
// earlier one is reported.
//
// # Summary Precedence
//
// The paragraph is a base sentence with the three horizon means, one impact
// tier chosen from the mean feel-like temperature (≥35, [30,35), [24,30), <24),
// then at most one rain fragment in the order
//
//	storm_risk > urban_flood_risk > long_rain > heavy_rain > showers
//
// followed by independent thunderstorm and strong-wind fragments, both
// suppressed by storm_risk. When no rain, thunder or wind fragment applies a
// fixed "no notable event" sentence closes the paragraph.
package domain
