package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/forecast"
	"github.com/salescast/salescast-api/internal/models"
	"github.com/salescast/salescast-api/internal/timeseries"
	"github.com/salescast/salescast-api/internal/utils"
)

// SalesRepository is the aggregation-query surface the forecast service
// consumes. *repository.SalesRepository satisfies it.
type SalesRepository interface {
	ProductSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error)
	CustomerSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error)
	CustomerProductSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error)
	CitySales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error)
}

// ForecastRequest carries the validated forecasting options shared by every
// dimension endpoint.
type ForecastRequest struct {
	Horizon   int
	Model     forecast.Model
	Frequency timeseries.Frequency
}

// ForecastService turns aggregated sales rows for one dimension value into a
// fully assembled, sanitized forecast response.
type ForecastService struct {
	repo       SalesRepository
	forecaster *forecast.Forecaster
}

// NewForecastService creates a new forecast service.
func NewForecastService(repo SalesRepository) *ForecastService {
	return &ForecastService{
		repo:       repo,
		forecaster: forecast.NewForecaster(),
	}
}

// ProductForecast forecasts total sales of a single product.
func (s *ForecastService) ProductForecast(ctx context.Context, productName string, req ForecastRequest) (map[string]interface{}, error) {
	rows, err := s.repo.ProductSales(ctx, req.Frequency)
	if err != nil {
		return nil, err
	}

	matched := filterRows(rows, productName, "")
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w for product %q", utils.ErrNoData, strings.TrimSpace(productName))
	}

	echo := map[string]interface{}{"product_name": strings.TrimSpace(productName)}
	return s.assemble(matched, req, echo)
}

// CustomerForecast forecasts total sales of a single customer, optionally
// narrowed to one of their products.
func (s *ForecastService) CustomerForecast(ctx context.Context, customerName, productName string, req ForecastRequest) (map[string]interface{}, error) {
	var (
		rows []models.SalesRow
		err  error
	)
	if strings.TrimSpace(productName) == "" {
		rows, err = s.repo.CustomerSales(ctx, req.Frequency)
	} else {
		rows, err = s.repo.CustomerProductSales(ctx, req.Frequency)
	}
	if err != nil {
		return nil, err
	}

	matched := filterRows(rows, customerName, productName)
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w for customer %q", utils.ErrNoData, strings.TrimSpace(customerName))
	}

	echo := map[string]interface{}{"customer_name": strings.TrimSpace(customerName)}
	if strings.TrimSpace(productName) != "" {
		echo["product_name"] = strings.TrimSpace(productName)
	}
	return s.assemble(matched, req, echo)
}

// CityForecast forecasts total sales shipped to customers of a single city.
func (s *ForecastService) CityForecast(ctx context.Context, cityName string, req ForecastRequest) (map[string]interface{}, error) {
	rows, err := s.repo.CitySales(ctx, req.Frequency)
	if err != nil {
		return nil, err
	}

	matched := filterRows(rows, cityName, "")
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w for city %q", utils.ErrNoData, strings.TrimSpace(cityName))
	}

	echo := map[string]interface{}{"city_name": strings.TrimSpace(cityName)}
	return s.assemble(matched, req, echo)
}

// assemble builds the series, runs the selected strategy and shapes the
// response. The whole structure passes through numeric sanitation before it
// is returned, so NaN or infinite values can never reach serialization.
func (s *ForecastService) assemble(matched []models.SalesRow, req ForecastRequest, echo map[string]interface{}) (map[string]interface{}, error) {
	raw := make([]timeseries.Row, len(matched))
	for i, r := range matched {
		raw[i] = timeseries.Row{Timestamp: r.Period, Amount: r.TotalSales.InexactFloat64()}
	}

	series, err := timeseries.Build(raw, req.Frequency)
	if err != nil {
		return nil, err
	}

	result, err := s.forecaster.Forecast(series, req.Horizon, req.Model)
	if err != nil {
		return nil, err
	}

	labelKey := req.Frequency.LabelKey()

	history := make([]map[string]interface{}, series.Len())
	for i := 0; i < series.Len(); i++ {
		p := series.At(i)
		history[i] = map[string]interface{}{
			labelKey:       req.Frequency.FormatLabel(p.Period),
			"actual_sales": round2(p.Value),
		}
	}

	forecastRows := make([]map[string]interface{}, len(result.Rows))
	for i, row := range result.Rows {
		entry := map[string]interface{}{
			labelKey:           row.Label,
			"forecasted_sales": row.Value,
		}
		if row.Lower != nil {
			entry["lower_bound"] = *row.Lower
		}
		if row.Upper != nil {
			entry["upper_bound"] = *row.Upper
		}
		forecastRows[i] = entry
	}

	resp := map[string]interface{}{
		"frequency":             string(req.Frequency),
		"last_known_" + labelKey: req.Frequency.FormatLabel(series.Last().Period),
		"history":               history,
		"forecast":              forecastRows,
		"evaluation_metrics":    result.Evaluation.Map(),
		"model_info":            result.Info,
	}
	for k, v := range echo {
		resp[k] = v
	}

	logrus.WithFields(logrus.Fields{
		"model":     string(req.Model),
		"frequency": string(req.Frequency),
		"horizon":   req.Horizon,
		"periods":   series.Len(),
	}).Debug("Forecast assembled")

	return forecast.Sanitize(resp).(map[string]interface{}), nil
}

// filterRows keeps the rows whose dimension value matches the requested one
// after normalization on both sides. secondary is matched against
// SecondaryName when non-empty.
func filterRows(rows []models.SalesRow, name, secondary string) []models.SalesRow {
	wantName := normalize(name)
	wantSecondary := normalize(secondary)

	var out []models.SalesRow
	for _, r := range rows {
		if normalize(r.Name) != wantName {
			continue
		}
		if wantSecondary != "" && normalize(r.SecondaryName) != wantSecondary {
			continue
		}
		out = append(out, r)
	}
	return out
}

// normalize is the shared dimension-matching rule: surrounding whitespace is
// insignificant and matching is case-insensitive.
func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
