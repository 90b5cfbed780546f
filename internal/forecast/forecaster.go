package forecast

import (
	"fmt"

	"github.com/salescast/salescast-api/internal/timeseries"
	"github.com/salescast/salescast-api/internal/utils"
)

// Forecaster dispatches a prepared series to the strategy selected by the
// caller and returns the harmonized result. Every fit is request-scoped; no
// model state survives between calls.
type Forecaster struct{}

func NewForecaster() *Forecaster {
	return &Forecaster{}
}

// Forecast runs the selected strategy for horizon future periods.
// An unrecognized selector fails with utils.ErrUnknownModel; a series
// shorter than the design minimum fails with utils.ErrInsufficientHistory.
func (f *Forecaster) Forecast(series *timeseries.Series, horizon int, model Model) (*Result, error) {
	if series == nil || series.Len() < timeseries.MinPeriods {
		return nil, utils.ErrInsufficientHistory
	}
	if horizon < 1 {
		return nil, utils.NewValidationErrorf("horizon must be positive, got %d", horizon)
	}

	switch model {
	case ModelAutoregressive:
		return forecastARIMA(series, horizon)
	case ModelStructural:
		return forecastStructural(series, horizon)
	case ModelTree:
		return forecastTree(series, horizon)
	default:
		return nil, fmt.Errorf("%w: %q", utils.ErrUnknownModel, model)
	}
}

// buildRows labels the forecast values with the periods strictly continuing
// the series at its own cadence. Monetary values round to two decimals at
// this output boundary.
func buildRows(series *timeseries.Series, horizon int, values, lower, upper []float64) []Row {
	freq := series.Frequency()
	future := series.FuturePeriods(horizon)

	rows := make([]Row, horizon)
	for i, period := range future {
		rows[i] = Row{
			Label: freq.FormatLabel(period),
			Value: round2(values[i]),
		}
		if lower != nil {
			rows[i].Lower = float64Ptr(round2(lower[i]))
		}
		if upper != nil {
			rows[i].Upper = float64Ptr(round2(upper[i]))
		}
	}
	return rows
}

// Map converts the metrics bundle to the generic key/value shape used at the
// response boundary. MAPE stays present-but-null when absent; the
// model-specific criteria appear only for the families that expose them.
func (m *Metrics) Map() map[string]interface{} {
	if m == nil {
		return nil
	}
	out := map[string]interface{}{
		"in_sample_mae":  m.MAE,
		"in_sample_rmse": m.RMSE,
		"in_sample_mape": ptrValue(m.MAPE),
		"residual_mean":  m.ResidualMean,
		"residual_std":   m.ResidualStd,
		"data_points":    m.DataPoints,
	}
	if m.AIC != nil {
		out["aic"] = *m.AIC
	}
	if m.BIC != nil {
		out["bic"] = *m.BIC
	}
	if m.RSquared != nil {
		out["r_squared"] = *m.RSquared
	}
	if m.LjungBoxPval != nil {
		out["ljung_box_pval"] = *m.LjungBoxPval
	}
	return out
}

func ptrValue(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
