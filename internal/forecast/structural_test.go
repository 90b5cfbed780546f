package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescast/salescast-api/internal/timeseries"
)

func TestForecastStructural(t *testing.T) {
	series := monthlySeries(t, 100, 108, 116, 124, 132, 140, 148, 156)

	result, err := forecastStructural(series, 4)
	require.NoError(t, err)
	require.Len(t, result.Rows, 4)

	for _, row := range result.Rows {
		require.NotNil(t, row.Lower)
		require.NotNil(t, row.Upper)
		assert.LessOrEqual(t, *row.Lower, row.Value)
		assert.GreaterOrEqual(t, *row.Upper, row.Value)
	}

	require.NotNil(t, result.Evaluation)
	assert.Equal(t, 8, result.Evaluation.DataPoints)
	// this family carries no information criteria, absent rather than zero
	assert.Nil(t, result.Evaluation.AIC)
	assert.Nil(t, result.Evaluation.BIC)

	assert.Equal(t, "StructuralTimeSeries", result.Info["model_type"])
	assert.Equal(t, "95%", result.Info["interval_confidence"])
}

func TestForecastStructural_TrendFollows(t *testing.T) {
	// Two full years of steady growth: with repeated cycles the rise is
	// attributable to trend, so the forecast stays above the sample mean.
	values := make([]float64, 24)
	for i := range values {
		values[i] = float64(10 * (i + 1))
	}
	series := monthlySeries(t, values...)

	result, err := forecastStructural(series, 2)
	require.NoError(t, err)
	for _, row := range result.Rows {
		assert.Greater(t, row.Value, 125.0)
	}
}

func TestStructuralFeatures(t *testing.T) {
	p := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	monthly := structuralFeatures(p, 0.5, timeseries.Monthly)
	// intercept + trend + 3 yearly sin/cos pairs
	assert.Len(t, monthly, 2+2*yearlyFourierOrder)
	assert.Equal(t, 1.0, monthly[0])
	assert.Equal(t, 0.5, monthly[1])

	daily := structuralFeatures(p, 0.5, timeseries.Daily)
	// daily cadence adds the weekly sin/cos pairs
	assert.Len(t, daily, 2+2*yearlyFourierOrder+2*weeklyFourierOrder)
}

func TestTrendIndex(t *testing.T) {
	assert.Equal(t, 0.0, trendIndex(0, 10))
	assert.Equal(t, 1.0, trendIndex(9, 10))
	// future positions extrapolate past the training window
	assert.Greater(t, trendIndex(12, 10), 1.0)
	assert.Equal(t, 0.0, trendIndex(0, 1))
}
