package inference

import (
	"time"

	"app/models"
)

// FillDateSeries expands a sparse list of sales points into a dense daily
// series covering every calendar day of [startDate, endDate] inclusive.
// Days without a matching sparse point get a zero-quantity entry.
func FillDateSeries(sparse []models.SalesDataPoint, startDate, endDate time.Time) []models.SalesDataPoint {
	byDay := make(map[time.Time]models.SalesDataPoint, len(sparse))
	for _, p := range sparse {
		byDay[calendarDay(p.Date)] = p
	}

	var series []models.SalesDataPoint
	last := calendarDay(endDate)
	for day := calendarDay(startDate); !day.After(last); day = day.AddDate(0, 0, 1) {
		if p, ok := byDay[day]; ok {
			p.Date = day
			series = append(series, p)
		} else {
			series = append(series, models.SalesDataPoint{Date: day})
		}
	}

	return series
}
