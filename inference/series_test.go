package inference

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFillDateSeriesCoversRangeInclusive(t *testing.T) {
	series := FillDateSeries(nil, day("2024-06-01"), day("2024-06-14"))

	require.Len(t, series, 14)
	for i, p := range series {
		assert.Equal(t, day("2024-06-01").AddDate(0, 0, i), p.Date)
		assert.Zero(t, p.Quantity)
		assert.Zero(t, p.DistinctOrderCount)
	}
}

func TestFillDateSeriesSingleDay(t *testing.T) {
	series := FillDateSeries(nil, day("2024-06-01"), day("2024-06-01"))
	require.Len(t, series, 1)
	assert.Equal(t, day("2024-06-01"), series[0].Date)
}

func TestFillDateSeriesMergesSparsePoints(t *testing.T) {
	sparse := []models.SalesDataPoint{
		{Date: day("2024-06-03"), Quantity: 4, DistinctOrderCount: 2},
		{Date: day("2024-06-05"), Quantity: 1, DistinctOrderCount: 1},
	}

	series := FillDateSeries(sparse, day("2024-06-01"), day("2024-06-07"))

	require.Len(t, series, 7)
	assert.Equal(t, 4, series[2].Quantity)
	assert.Equal(t, 2, series[2].DistinctOrderCount)
	assert.Equal(t, 1, series[4].Quantity)
	for _, i := range []int{0, 1, 3, 5, 6} {
		assert.Zero(t, series[i].Quantity, "day %d should be zero-filled", i)
	}
}

func TestFillDateSeriesDatesAreContiguousAndUnique(t *testing.T) {
	series := FillDateSeries(nil, day("2023-01-01"), day("2024-12-31"))

	// 2024 is a leap year: 365 + 366 days.
	require.Len(t, series, 731)
	for i := 1; i < len(series); i++ {
		assert.Equal(t, series[i-1].Date.AddDate(0, 0, 1), series[i].Date)
	}
}

func TestFillDateSeriesNormalizesTimestampsToUTCDays(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*3600)
	sparse := []models.SalesDataPoint{
		{Date: time.Date(2024, 6, 3, 8, 30, 0, 0, loc), Quantity: 2, DistinctOrderCount: 1},
	}

	series := FillDateSeries(sparse, day("2024-06-01"), day("2024-06-05"))

	require.Len(t, series, 5)
	// 08:30 at UTC+10 is 22:30 the previous day in UTC.
	assert.Equal(t, 2, series[1].Quantity)
	assert.Equal(t, day("2024-06-02"), series[1].Date)
}
