package inference

import (
	"time"

	"app/models"
)

// Season names used as keys of BaselinePattern.SeasonalFactors.
const (
	SeasonSpring = "spring"
	SeasonSummer = "summer"
	SeasonAutumn = "autumn"
	SeasonWinter = "winter"
)

// velocityWindow is the number of days compared at each end of the series
// when computing the sales velocity trend.
const velocityWindow = 30

// seasonOf maps a calendar month to its season. Fixed three-month buckets:
// spring=Mar-May, summer=Jun-Aug, autumn=Sep-Nov, winter=Dec-Feb.
func seasonOf(m time.Month) string {
	switch {
	case m >= time.March && m <= time.May:
		return SeasonSpring
	case m >= time.June && m <= time.August:
		return SeasonSummer
	case m >= time.September && m <= time.November:
		return SeasonAutumn
	default:
		return SeasonWinter
	}
}

// EstimateBaseline derives the expected sales pattern from a dense daily
// series: overall averages, a day-of-week profile, seasonal multipliers and
// a coarse trend. An empty series yields the all-zero baseline.
func EstimateBaseline(series []models.SalesDataPoint) models.BaselinePattern {
	baseline := models.BaselinePattern{
		SeasonalFactors: map[string]float64{},
		WeeklyPattern:   map[time.Weekday]float64{},
	}
	if len(series) == 0 {
		return baseline
	}

	total := 0
	for _, p := range series {
		total += p.Quantity
	}
	baseline.AvgDailySales = float64(total) / float64(len(series))
	baseline.AvgWeeklySales = baseline.AvgDailySales * 7
	baseline.AvgMonthlySales = baseline.AvgDailySales * 30

	baseline.WeeklyPattern = weeklyPattern(series)
	baseline.SeasonalFactors = seasonalFactors(series)
	baseline.SalesVelocity = salesVelocity(series)

	return baseline
}

func weeklyPattern(series []models.SalesDataPoint) map[time.Weekday]float64 {
	sums := map[time.Weekday]int{}
	counts := map[time.Weekday]int{}
	for _, p := range series {
		wd := p.Date.Weekday()
		sums[wd] += p.Quantity
		counts[wd]++
	}

	pattern := make(map[time.Weekday]float64, len(sums))
	for wd, count := range counts {
		pattern[wd] = float64(sums[wd]) / float64(count)
	}
	return pattern
}

func seasonalFactors(series []models.SalesDataPoint) map[string]float64 {
	monthSums := map[time.Month]int{}
	monthCounts := map[time.Month]int{}
	for _, p := range series {
		m := p.Date.Month()
		monthSums[m] += p.Quantity
		monthCounts[m]++
	}

	// Mean of the twelve per-month daily averages; months with no data
	// contribute zero.
	var yearlyMean float64
	for m := time.January; m <= time.December; m++ {
		if monthCounts[m] > 0 {
			yearlyMean += float64(monthSums[m]) / float64(monthCounts[m])
		}
	}
	yearlyMean /= 12

	seasonSums := map[string]int{}
	seasonCounts := map[string]int{}
	for _, p := range series {
		s := seasonOf(p.Date.Month())
		seasonSums[s] += p.Quantity
		seasonCounts[s]++
	}

	factors := make(map[string]float64, len(seasonCounts))
	for season, count := range seasonCounts {
		if yearlyMean == 0 {
			// No signal to normalize against; a neutral multiplier keeps
			// downstream math finite.
			factors[season] = 1.0
			continue
		}
		factors[season] = (float64(seasonSums[season]) / float64(count)) / yearlyMean
	}
	return factors
}

// salesVelocity compares the average of the last 30 days with the average of
// the first 30. Series shorter than the window have no meaningful trend.
func salesVelocity(series []models.SalesDataPoint) float64 {
	if len(series) < velocityWindow {
		return 0
	}

	var first, last int
	for _, p := range series[:velocityWindow] {
		first += p.Quantity
	}
	for _, p := range series[len(series)-velocityWindow:] {
		last += p.Quantity
	}
	return float64(last)/velocityWindow - float64(first)/velocityWindow
}

// seasonalFactor returns a season's multiplier, defaulting to 1.0 when the
// baseline carries no factor for it.
func seasonalFactor(baseline models.BaselinePattern, day time.Time) float64 {
	if f, ok := baseline.SeasonalFactors[seasonOf(day.Month())]; ok {
		return f
	}
	return 1.0
}
