package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescast/salescast-api/internal/forecast"
	"github.com/salescast/salescast-api/internal/models"
	"github.com/salescast/salescast-api/internal/timeseries"
	"github.com/salescast/salescast-api/internal/utils"
)

// fakeSalesRepo serves canned aggregation rows without a database.
type fakeSalesRepo struct {
	product         []models.SalesRow
	customer        []models.SalesRow
	customerProduct []models.SalesRow
	city            []models.SalesRow
	err             error
}

func (f *fakeSalesRepo) ProductSales(_ context.Context, _ timeseries.Frequency) ([]models.SalesRow, error) {
	return f.product, f.err
}

func (f *fakeSalesRepo) CustomerSales(_ context.Context, _ timeseries.Frequency) ([]models.SalesRow, error) {
	return f.customer, f.err
}

func (f *fakeSalesRepo) CustomerProductSales(_ context.Context, _ timeseries.Frequency) ([]models.SalesRow, error) {
	return f.customerProduct, f.err
}

func (f *fakeSalesRepo) CitySales(_ context.Context, _ timeseries.Frequency) ([]models.SalesRow, error) {
	return f.city, f.err
}

func monthlyRow(name, secondary string, year int, month time.Month, amount float64) models.SalesRow {
	return models.SalesRow{
		Name:          name,
		SecondaryName: secondary,
		Period:        time.Date(year, month, 1, 0, 0, 0, 0, time.UTC),
		TotalSales:    decimal.NewFromFloat(amount),
	}
}

func monthlyRequest(horizon int, model forecast.Model) ForecastRequest {
	return ForecastRequest{Horizon: horizon, Model: model, Frequency: timeseries.Monthly}
}

func TestForecastService_ProductForecast_Autoregressive(t *testing.T) {
	repo := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Chai", "", 2024, time.February, 110),
		monthlyRow("Chai", "", 2024, time.March, 120),
		monthlyRow("Chai", "", 2024, time.April, 130),
		monthlyRow("Ikura", "", 2024, time.January, 999),
	}}
	svc := NewForecastService(repo)

	resp, err := svc.ProductForecast(context.Background(), "Chai", monthlyRequest(2, forecast.ModelAutoregressive))
	require.NoError(t, err)

	assert.Equal(t, "Chai", resp["product_name"])
	assert.Equal(t, "monthly", resp["frequency"])
	assert.Equal(t, "Apr-2024", resp["last_known_month"])

	history, ok := resp["history"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, history, 4)
	assert.Equal(t, "Jan-2024", history[0]["month"])
	assert.Equal(t, 100.0, history[0]["actual_sales"])

	fc, ok := resp["forecast"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, fc, 2)
	assert.Equal(t, "May-2024", fc[0]["month"])
	assert.Equal(t, "Jun-2024", fc[1]["month"])
	// the autoregressive strategy carries no native bounds
	assert.NotContains(t, fc[0], "lower_bound")
	assert.NotContains(t, fc[0], "upper_bound")

	eval, ok := resp["evaluation_metrics"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4, eval["data_points"])
	assert.Contains(t, eval, "aic")
	assert.Contains(t, eval, "bic")
	assert.Contains(t, eval, "in_sample_mape")

	info, ok := resp["model_info"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ARIMA", info["model_type"])
}

func TestForecastService_ProductForecast_TreeFallback(t *testing.T) {
	// Four monthly points cannot support lag/rolling features, so the tree
	// strategy must fall back to calendar-only features and still answer.
	repo := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Chai", "", 2024, time.February, 90),
		monthlyRow("Chai", "", 2024, time.March, 120),
		monthlyRow("Chai", "", 2024, time.April, 105),
	}}
	svc := NewForecastService(repo)

	resp, err := svc.ProductForecast(context.Background(), "Chai", monthlyRequest(3, forecast.ModelTree))
	require.NoError(t, err)

	fc := resp["forecast"].([]map[string]interface{})
	require.Len(t, fc, 3)
	assert.Equal(t, "May-2024", fc[0]["month"])
	assert.Equal(t, "Jul-2024", fc[2]["month"])

	info := resp["model_info"].(map[string]interface{})
	assert.Equal(t, "GradientBoostedTrees", info["model_type"])
	top, ok := info["top_features"].(forecast.TopFeatures)
	require.True(t, ok)
	for _, fw := range top {
		assert.NotContains(t, fw.Name, "lag_")
		assert.NotContains(t, fw.Name, "rolling_")
	}
}

func TestForecastService_DimensionNormalization(t *testing.T) {
	repo := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("  Acme  ", "", 2024, time.January, 10),
		monthlyRow("  Acme  ", "", 2024, time.February, 12),
		monthlyRow("  Acme  ", "", 2024, time.March, 14),
	}}
	svc := NewForecastService(repo)

	resp, err := svc.ProductForecast(context.Background(), "acme", monthlyRequest(1, forecast.ModelStructural))
	require.NoError(t, err)
	assert.Equal(t, "acme", resp["product_name"])

	_, err = svc.ProductForecast(context.Background(), "acme inc", monthlyRequest(1, forecast.ModelStructural))
	assert.ErrorIs(t, err, utils.ErrNoData)
}

func TestForecastService_CustomerForecast_ProductFilter(t *testing.T) {
	repo := &fakeSalesRepo{
		customer: []models.SalesRow{
			monthlyRow("Alfreds Futterkiste", "", 2024, time.January, 500),
		},
		customerProduct: []models.SalesRow{
			monthlyRow("Alfreds Futterkiste", "Chai", 2024, time.January, 50),
			monthlyRow("Alfreds Futterkiste", "Chai", 2024, time.February, 55),
			monthlyRow("Alfreds Futterkiste", "Chai", 2024, time.March, 60),
			monthlyRow("Alfreds Futterkiste", "Chang", 2024, time.January, 450),
		},
	}
	svc := NewForecastService(repo)

	resp, err := svc.CustomerForecast(context.Background(), "alfreds futterkiste", "chai", monthlyRequest(1, forecast.ModelStructural))
	require.NoError(t, err)
	assert.Equal(t, "alfreds futterkiste", resp["customer_name"])
	assert.Equal(t, "chai", resp["product_name"])

	history := resp["history"].([]map[string]interface{})
	require.Len(t, history, 3)
	assert.Equal(t, 50.0, history[0]["actual_sales"])
}

func TestForecastService_CityForecast_StructuralBounds(t *testing.T) {
	repo := &fakeSalesRepo{city: []models.SalesRow{
		monthlyRow("Berlin", "", 2024, time.January, 80),
		monthlyRow("Berlin", "", 2024, time.February, 95),
		monthlyRow("Berlin", "", 2024, time.March, 88),
		monthlyRow("Berlin", "", 2024, time.April, 102),
	}}
	svc := NewForecastService(repo)

	resp, err := svc.CityForecast(context.Background(), "Berlin", monthlyRequest(2, forecast.ModelStructural))
	require.NoError(t, err)
	assert.Equal(t, "Berlin", resp["city_name"])

	fc := resp["forecast"].([]map[string]interface{})
	require.Len(t, fc, 2)
	assert.Contains(t, fc[0], "lower_bound")
	assert.Contains(t, fc[0], "upper_bound")
}

func TestForecastService_Errors(t *testing.T) {
	base := []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Chai", "", 2024, time.February, 110),
		monthlyRow("Chai", "", 2024, time.March, 120),
	}

	tests := []struct {
		name    string
		repo    *fakeSalesRepo
		product string
		req     ForecastRequest
		want    error
	}{
		{
			name:    "no matching rows",
			repo:    &fakeSalesRepo{product: base},
			product: "Nonexistent",
			req:     monthlyRequest(3, forecast.ModelAutoregressive),
			want:    utils.ErrNoData,
		},
		{
			name:    "insufficient history",
			repo:    &fakeSalesRepo{product: base[:2]},
			product: "Chai",
			req:     monthlyRequest(3, forecast.ModelAutoregressive),
			want:    utils.ErrInsufficientHistory,
		},
		{
			name:    "unknown model",
			repo:    &fakeSalesRepo{product: base},
			product: "Chai",
			req:     monthlyRequest(3, forecast.Model("prophet")),
			want:    utils.ErrUnknownModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewForecastService(tt.repo).ProductForecast(context.Background(), tt.product, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("repository failure propagates", func(t *testing.T) {
		repo := &fakeSalesRepo{err: errors.New("connection refused")}
		_, err := NewForecastService(repo).ProductForecast(context.Background(), "Chai", monthlyRequest(3, forecast.ModelAutoregressive))
		require.Error(t, err)
		assert.False(t, utils.IsValidationError(err))
	})
}

func TestForecastService_InvalidHorizon(t *testing.T) {
	repo := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Chai", "", 2024, time.February, 110),
		monthlyRow("Chai", "", 2024, time.March, 120),
	}}
	svc := NewForecastService(repo)

	_, err := svc.ProductForecast(context.Background(), "Chai", monthlyRequest(0, forecast.ModelAutoregressive))
	assert.True(t, utils.IsValidationError(err))
}
