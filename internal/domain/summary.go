package domain

import (
	"fmt"
	"strings"
)

// Impact tiers keyed on the mean feel-like temperature.
const (
	tierExtremeFeel = 35.0
	tierHotFeel     = 30.0
	tierMildFeel    = 24.0
)

const (
	fragTierExtreme = "Nhiệt độ cảm nhận rất cao, nguy cơ sốc nhiệt khi ở ngoài trời lâu, cần uống đủ nước và tránh nắng vào buổi trưa."
	fragTierHot     = "Thời tiết oi nóng, cảm giác khá bức bối vào ban ngày, nên hạn chế hoạt động ngoài trời vào giữa trưa."
	fragTierMild    = "Nhiệt độ cảm nhận ở mức dễ chịu, thuận lợi cho sinh hoạt và các hoạt động ngoài trời."
	fragTierCool    = "Thời tiết mát đến se lạnh, nên chuẩn bị thêm áo ấm khi ra ngoài vào sáng sớm và ban đêm."

	fragStormRisk      = "Có khả năng xảy ra mưa to kèm gió mạnh (giông bão cục bộ) vào khoảng ngày %s, khuyến cáo nên hạn chế di chuyển ngoài trời và chú ý an toàn."
	fragFloodLongRain  = "Có một đợt mưa vừa đến to kéo dài từ khoảng ngày %s đến %s, nguy cơ gây ngập úng tại các khu vực trũng thấp."
	fragFloodGeneric   = "Lượng mưa dự báo khá lớn trong nhiều ngày, có thể gây ngập úng ở đô thị."
	fragLongRain       = "Dự báo có một đợt mưa kéo dài (mưa vừa trở lên) từ khoảng ngày %s đến %s, khuyến cáo hạn chế các hoạt động ngoài trời."
	fragHeavyRain      = "Một vài thời điểm xuất hiện mưa to đến rất to, đáng chú ý vào khoảng ngày %s."
	fragShowers        = "Thời tiết có khả năng xuất hiện mưa rào, mưa vừa rải rác nhưng không kéo dài."
	fragThunderstorm   = "Có khả năng xảy ra giông kèm gió giật, đặc biệt vào khoảng ngày %s, cần chú ý sấm sét và đảm bảo an toàn."
	fragStrongWind     = "Gió có lúc mạnh, đặc biệt vào khoảng ngày %s, cần nâng cao cảnh giác khi lưu thông trên đường và đi tàu thuyền nhỏ."
	fragNoNotableEvent = "Thời tiết nhìn chung ổn định, không có dấu hiệu rõ rệt của các hiện tượng cực đoan trong 7 ngày tới."
)

// Composer renders the outlook summary paragraph. It reads only the
// immutable Catalog, so one Composer can serve concurrent requests.
type Composer struct {
	catalog *Catalog
}

// NewComposer creates a Composer that looks up feel-like bias in catalog.
func NewComposer(catalog *Catalog) *Composer {
	return &Composer{catalog: catalog}
}

// Compose renders one paragraph for a well-formed series and its report.
// Identical inputs always produce identical output.
func (c *Composer) Compose(city string, endDate string, series ForecastSeries, events EventReport) string {
	avgTemp, avgFeel, avgWind := c.aggregates(city, series)

	parts := []string{
		fmt.Sprintf("Dự đoán cho %d ngày sau %s, %s có nhiệt độ trung bình khoảng %.1f°C, nhiệt độ cảm nhận khoảng %.1f°C, sức gió trung bình %.1f km/h.",
			len(series), endDate, city, avgTemp, avgFeel, avgWind),
		impactTier(avgFeel),
	}

	var notable []string
	if frag := rainFragment(series, events); frag != "" {
		notable = append(notable, frag)
	}
	if events.Thunderstorm.HasEvent && !events.StormRisk.HasEvent {
		notable = append(notable, fmt.Sprintf(fragThunderstorm, dayAt(series, events.Thunderstorm.Days[0])))
	}
	if events.StrongWind.HasEvent && !events.StormRisk.HasEvent {
		notable = append(notable, fmt.Sprintf(fragStrongWind, dayAt(series, events.StrongWind.Days[0])))
	}
	if len(notable) == 0 {
		notable = append(notable, fragNoNotableEvent)
	}

	return strings.Join(append(parts, notable...), " ")
}

func (c *Composer) aggregates(city string, series ForecastSeries) (avgTemp, avgFeel, avgWind float64) {
	if len(series) == 0 {
		return 0, 0, 0
	}
	bias := c.catalog.Bias(city)
	for _, d := range series {
		avgTemp += d.TempAvg
		avgFeel += d.HeatIndex + bias
		avgWind += d.WindSpeed
	}
	n := float64(len(series))
	return avgTemp / n, avgFeel / n, avgWind / n
}

func impactTier(avgFeel float64) string {
	switch {
	case avgFeel >= tierExtremeFeel:
		return fragTierExtreme
	case avgFeel >= tierHotFeel:
		return fragTierHot
	case avgFeel >= tierMildFeel:
		return fragTierMild
	default:
		return fragTierCool
	}
}

// rainFragment picks at most one rain fragment in strict precedence order.
func rainFragment(series ForecastSeries, events EventReport) string {
	switch {
	case events.StormRisk.HasEvent:
		return fmt.Sprintf(fragStormRisk, dayAt(series, events.StormRisk.Days[0]))
	case events.UrbanFloodRisk.HasEvent:
		if events.LongRain.HasEvent {
			return fmt.Sprintf(fragFloodLongRain, dayAt(series, events.LongRain.StartIdx), dayAt(series, events.LongRain.EndIdx))
		}
		return fragFloodGeneric
	case events.LongRain.HasEvent:
		return fmt.Sprintf(fragLongRain, dayAt(series, events.LongRain.StartIdx), dayAt(series, events.LongRain.EndIdx))
	case events.HeavyRain.HasEvent:
		return fmt.Sprintf(fragHeavyRain, dayAt(series, events.HeavyRain.Days[0]))
	case events.Showers.HasEvent:
		return fragShowers
	default:
		return ""
	}
}

func dayAt(series ForecastSeries, idx int) string {
	return series[idx].Date.String()
}
