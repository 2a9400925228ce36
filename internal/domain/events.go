package domain

// EventKind names one of the ten fixed event patterns.
type EventKind string

const (
	EventHeatwave       EventKind = "heatwave"
	EventHotDry         EventKind = "hot_dry"
	EventComfortable    EventKind = "comfortable"
	EventLongRain       EventKind = "long_rain"
	EventHeavyRain      EventKind = "heavy_rain"
	EventShowers        EventKind = "showers"
	EventUrbanFloodRisk EventKind = "urban_flood_risk"
	EventStrongWind     EventKind = "strong_wind"
	EventThunderstorm   EventKind = "thunderstorm"
	EventStormRisk      EventKind = "storm_risk"
)

// EventKinds lists every event kind in report order.
var EventKinds = []EventKind{
	EventHeatwave,
	EventHotDry,
	EventComfortable,
	EventLongRain,
	EventHeavyRain,
	EventShowers,
	EventUrbanFloodRisk,
	EventStrongWind,
	EventThunderstorm,
	EventStormRisk,
}

// Detection thresholds.
const (
	heatwaveTemp    = 35.0
	heatwaveMinDays = 3

	hotDryTemp    = 33.0
	hotDryMaxRain = 1

	comfortMinTemp = 22.0
	comfortMaxTemp = 28.0
	comfortMaxRain = 1

	longRainMinLevel = 2
	longRainMinLen   = 3

	heavyRainLevel   = 3
	strongWindLevel  = 2
	thunderRainLevel = 2

	floodMinHeavyDays = 2
)

// RunEvent is a pattern detected from the longest run of qualifying days.
// StartIdx and EndIdx are -1 when no day qualifies.
type RunEvent struct {
	HasEvent bool `json:"has_event"`
	StartIdx int  `json:"start_idx"`
	EndIdx   int  `json:"end_idx"`
}

// DaysEvent is a pattern detected on individual days.
type DaysEvent struct {
	HasEvent bool  `json:"has_event"`
	Days     []int `json:"days"`
}

// FlagEvent is a pattern derived from horizon-wide aggregates.
type FlagEvent struct {
	HasEvent bool `json:"has_event"`
}

// EventReport holds one record per event kind. The struct is closed: every
// kind is always present.
type EventReport struct {
	Heatwave       RunEvent  `json:"heatwave"`
	HotDry         FlagEvent `json:"hot_dry"`
	Comfortable    FlagEvent `json:"comfortable"`
	LongRain       RunEvent  `json:"long_rain"`
	HeavyRain      DaysEvent `json:"heavy_rain"`
	Showers        FlagEvent `json:"showers"`
	UrbanFloodRisk FlagEvent `json:"urban_flood_risk"`
	StrongWind     DaysEvent `json:"strong_wind"`
	Thunderstorm   DaysEvent `json:"thunderstorm"`
	StormRisk      DaysEvent `json:"storm_risk"`
}

// Has reports whether the event of the given kind was detected.
func (r EventReport) Has(kind EventKind) bool {
	switch kind {
	case EventHeatwave:
		return r.Heatwave.HasEvent
	case EventHotDry:
		return r.HotDry.HasEvent
	case EventComfortable:
		return r.Comfortable.HasEvent
	case EventLongRain:
		return r.LongRain.HasEvent
	case EventHeavyRain:
		return r.HeavyRain.HasEvent
	case EventShowers:
		return r.Showers.HasEvent
	case EventUrbanFloodRisk:
		return r.UrbanFloodRisk.HasEvent
	case EventStrongWind:
		return r.StrongWind.HasEvent
	case EventThunderstorm:
		return r.Thunderstorm.HasEvent
	case EventStormRisk:
		return r.StormRisk.HasEvent
	default:
		return false
	}
}

// Detected returns the kinds that fired, in report order.
func (r EventReport) Detected() []EventKind {
	var kinds []EventKind
	for _, k := range EventKinds {
		if r.Has(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// LongestRun finds the longest block of consecutive values in a sorted index
// list and returns its length and inclusive bounds. The first maximal block
// wins ties. An empty list yields (0, -1, -1).
func LongestRun(indices []int) (length, start, end int) {
	if len(indices) == 0 {
		return 0, -1, -1
	}

	length, start, end = 1, indices[0], indices[0]
	curStart, curLen := indices[0], 1
	for i := 1; i < len(indices); i++ {
		if indices[i] == indices[i-1]+1 {
			curLen++
		} else {
			curStart, curLen = indices[i], 1
		}
		if curLen > length {
			length, start, end = curLen, curStart, indices[i]
		}
	}
	return length, start, end
}

// DetectEvents evaluates every event predicate over a well-formed series.
// The predicates are independent; precedence between them is a presentation
// concern handled by the Composer.
func DetectEvents(series ForecastSeries) EventReport {
	var (
		hot, wet, heavy, windy, thunder, storm []int
		sumTemp                                float64
		maxRain                                int
	)
	heavy, windy, thunder, storm = []int{}, []int{}, []int{}, []int{}

	for i, d := range series {
		sumTemp += d.TempAvg
		if d.RainLevel > maxRain {
			maxRain = d.RainLevel
		}
		if d.TempAvg >= heatwaveTemp {
			hot = append(hot, i)
		}
		if d.RainLevel >= longRainMinLevel {
			wet = append(wet, i)
		}
		if d.RainLevel >= heavyRainLevel {
			heavy = append(heavy, i)
		}
		if d.WindLevel >= strongWindLevel {
			windy = append(windy, i)
		}
		if d.RainLevel >= thunderRainLevel && d.WindLevel >= strongWindLevel {
			thunder = append(thunder, i)
		}
		if d.RainLevel >= heavyRainLevel && d.WindLevel >= strongWindLevel {
			storm = append(storm, i)
		}
	}

	avgTemp := 0.0
	if len(series) > 0 {
		avgTemp = sumTemp / float64(len(series))
	}

	hwLen, hwStart, hwEnd := LongestRun(hot)
	lrLen, lrStart, lrEnd := LongestRun(wet)
	hasLongRain := lrLen >= longRainMinLen
	hasHeavyRain := len(heavy) > 0

	return EventReport{
		Heatwave: RunEvent{HasEvent: hwLen >= heatwaveMinDays, StartIdx: hwStart, EndIdx: hwEnd},
		HotDry:   FlagEvent{HasEvent: avgTemp >= hotDryTemp && maxRain <= hotDryMaxRain},
		Comfortable: FlagEvent{
			HasEvent: avgTemp >= comfortMinTemp && avgTemp <= comfortMaxTemp && maxRain <= comfortMaxRain,
		},
		LongRain:       RunEvent{HasEvent: hasLongRain, StartIdx: lrStart, EndIdx: lrEnd},
		HeavyRain:      DaysEvent{HasEvent: hasHeavyRain, Days: heavy},
		Showers:        FlagEvent{HasEvent: maxRain == 1 && !hasHeavyRain && !hasLongRain},
		UrbanFloodRisk: FlagEvent{HasEvent: hasLongRain || len(heavy) >= floodMinHeavyDays},
		StrongWind:     DaysEvent{HasEvent: len(windy) > 0, Days: windy},
		Thunderstorm:   DaysEvent{HasEvent: len(thunder) > 0, Days: thunder},
		StormRisk:      DaysEvent{HasEvent: len(storm) > 0, Days: storm},
	}
}
