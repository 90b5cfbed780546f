package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescast/salescast-api/internal/utils"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		_, err := Build(nil, Monthly)
		assert.ErrorIs(t, err, utils.ErrNoData)
	})

	t.Run("too few periods", func(t *testing.T) {
		rows := []Row{
			{Timestamp: day(2024, time.January, 5), Amount: 10},
			{Timestamp: day(2024, time.January, 20), Amount: 5},
			{Timestamp: day(2024, time.February, 2), Amount: 7},
		}
		// two distinct months after aggregation
		_, err := Build(rows, Monthly)
		assert.ErrorIs(t, err, utils.ErrInsufficientHistory)
	})
}

func TestBuild_AggregatesAndSorts(t *testing.T) {
	rows := []Row{
		{Timestamp: day(2024, time.March, 10), Amount: 30},
		{Timestamp: day(2024, time.January, 5), Amount: 10},
		{Timestamp: day(2024, time.January, 20), Amount: 15},
		{Timestamp: day(2024, time.February, 2), Amount: 20},
	}

	s, err := Build(rows, Monthly)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, day(2024, time.January, 1), s.At(0).Period)
	assert.Equal(t, 25.0, s.At(0).Value)
	assert.Equal(t, 20.0, s.At(1).Value)
	assert.Equal(t, 30.0, s.At(2).Value)
	assert.Equal(t, day(2024, time.March, 1), s.Last().Period)
}

func TestBuild_ZeroFillsInteriorGaps(t *testing.T) {
	rows := []Row{
		{Timestamp: day(2024, time.January, 15), Amount: 100},
		{Timestamp: day(2024, time.February, 15), Amount: 50},
		{Timestamp: day(2024, time.May, 15), Amount: 75},
	}

	s, err := Build(rows, Monthly)
	require.NoError(t, err)
	require.Equal(t, 5, s.Len())

	assert.Equal(t, []float64{100, 50, 0, 0, 75}, s.Values())
	assert.Equal(t, day(2024, time.March, 1), s.At(2).Period)
	assert.Equal(t, day(2024, time.April, 1), s.At(3).Period)
}

func TestBuild_WeeklyTruncation(t *testing.T) {
	// Wednesday, Friday and Sunday of the same ISO week collapse into one
	// Monday-keyed period.
	rows := []Row{
		{Timestamp: day(2024, time.March, 13), Amount: 1},
		{Timestamp: day(2024, time.March, 15), Amount: 2},
		{Timestamp: day(2024, time.March, 17), Amount: 3},
		{Timestamp: day(2024, time.March, 19), Amount: 4},
		{Timestamp: day(2024, time.March, 26), Amount: 5},
	}

	s, err := Build(rows, Weekly)
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	assert.Equal(t, day(2024, time.March, 11), s.At(0).Period)
	assert.Equal(t, 6.0, s.At(0).Value)
	assert.Equal(t, day(2024, time.March, 18), s.At(1).Period)
	assert.Equal(t, 4.0, s.At(1).Value)
}

func TestSeries_FuturePeriods(t *testing.T) {
	rows := []Row{
		{Timestamp: day(2024, time.January, 1), Amount: 1},
		{Timestamp: day(2024, time.February, 1), Amount: 2},
		{Timestamp: day(2024, time.March, 1), Amount: 3},
		{Timestamp: day(2024, time.April, 1), Amount: 4},
	}

	s, err := Build(rows, Monthly)
	require.NoError(t, err)

	future := s.FuturePeriods(2)
	require.Len(t, future, 2)
	assert.Equal(t, day(2024, time.May, 1), future[0])
	assert.Equal(t, day(2024, time.June, 1), future[1])
}

func TestSeries_ValuesIsACopy(t *testing.T) {
	rows := []Row{
		{Timestamp: day(2024, time.January, 1), Amount: 1},
		{Timestamp: day(2024, time.February, 1), Amount: 2},
		{Timestamp: day(2024, time.March, 1), Amount: 3},
	}

	s, err := Build(rows, Monthly)
	require.NoError(t, err)

	values := s.Values()
	values[0] = 999
	assert.Equal(t, 1.0, s.At(0).Value)
}
