package inference

import (
	"fmt"
	"time"

	"app/models"
)

const (
	// MinGapDays is the shortest zero-sales run ever considered a candidate
	// stock-out. Shorter runs are discarded regardless of how they score.
	MinGapDays = 7
	// ConfidenceThreshold is the minimum score a gap must reach to be
	// reported.
	ConfidenceThreshold = 0.6
)

// GapDetector scans a dense daily series for runs of consecutive zero-sales
// days and scores each qualifying run against the product's baseline.
type GapDetector struct {
	MinGapDays          int
	ConfidenceThreshold float64
}

func NewGapDetector() *GapDetector {
	return &GapDetector{
		MinGapDays:          MinGapDays,
		ConfidenceThreshold: ConfidenceThreshold,
	}
}

// Detect returns the inferred stock-out periods of a series. A product that
// never sold in the whole range has no baseline to compare against, so a
// zero average yields no periods: "never sold" and "stocked out" are
// indistinguishable there.
func (d *GapDetector) Detect(series []models.SalesDataPoint, baseline models.BaselinePattern) []models.InferredStockOutPeriod {
	periods := []models.InferredStockOutPeriod{}
	if baseline.AvgDailySales == 0 {
		return periods
	}

	gapStart := -1
	for i, p := range series {
		if p.Quantity == 0 {
			if gapStart < 0 {
				gapStart = i
			}
			continue
		}
		if gapStart >= 0 {
			if length := i - gapStart; length >= d.MinGapDays {
				if period := d.evaluateGap(series[gapStart].Date, length, false, baseline); period != nil {
					periods = append(periods, *period)
				}
			}
			gapStart = -1
		}
	}

	// A gap still open at the end of the data is reported as ongoing.
	if gapStart >= 0 {
		if length := len(series) - gapStart; length >= d.MinGapDays {
			if period := d.evaluateGap(series[gapStart].Date, length, true, baseline); period != nil {
				periods = append(periods, *period)
			}
		}
	}

	return periods
}

// evaluateGap scores one zero-sales run and builds its period when the score
// clears the threshold. The score is purely additive and clamped to [0,1];
// the weights are part of the detector's contract and must not be tuned.
func (d *GapDetector) evaluateGap(start time.Time, lengthDays int, ongoing bool, baseline models.BaselinePattern) *models.InferredStockOutPeriod {
	expectedDaily := baseline.AvgDailySales * seasonalFactor(baseline, start)

	var confidence float64

	switch {
	case lengthDays >= 30:
		confidence += 0.4
	case lengthDays >= 14:
		confidence += 0.3
	case lengthDays >= d.MinGapDays:
		confidence += 0.2
	}

	switch {
	case expectedDaily > 1.0:
		confidence += 0.3
	case expectedDaily > 0.5:
		confidence += 0.2
	case expectedDaily > 0.1:
		confidence += 0.1
	}

	switch {
	case baseline.AvgDailySales > 0.5:
		confidence += 0.2
	case baseline.AvgDailySales > 0.1:
		confidence += 0.1
	}

	if baseline.AvgDailySales < 0.05 {
		// More likely an unpopular product than a stock-out.
		confidence -= 0.3
	}

	if gapTouchesHolidayWindow(start, lengthDays) {
		confidence -= 0.2
	}

	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	if confidence < d.ConfidenceThreshold {
		return nil
	}

	period := &models.InferredStockOutPeriod{
		StartDate:          start,
		Confidence:         confidence,
		DetectionMethod:    models.DetectionCompleteSalesDrop,
		Reason:             fmt.Sprintf("No sales for %d consecutive days while %.2f sales per day were expected", lengthDays, expectedDaily),
		ExpectedSales:      expectedDaily * float64(lengthDays),
		ActualSales:        0,
		SalesGapPercentage: 100,
	}
	if ongoing {
		period.DetectionMethod = models.DetectionOngoingSalesDrop
	} else {
		end := start.AddDate(0, 0, lengthDays-1)
		duration := lengthDays
		period.EndDate = &end
		period.DurationDays = &duration
	}

	return period
}

// gapTouchesHolidayWindow reports whether any day of the gap falls inside a
// known UK holiday lull: Dec 20 - Jan 5, a rough Easter window
// (Mar 25 - Apr 15) and all of August.
func gapTouchesHolidayWindow(start time.Time, lengthDays int) bool {
	for i := 0; i < lengthDays; i++ {
		if isHolidayLull(start.AddDate(0, 0, i)) {
			return true
		}
	}
	return false
}

func isHolidayLull(day time.Time) bool {
	m, d := day.Month(), day.Day()
	switch m {
	case time.December:
		return d >= 20
	case time.January:
		return d <= 5
	case time.August:
		return true
	case time.March:
		return d >= 25
	case time.April:
		return d <= 15
	}
	return false
}
