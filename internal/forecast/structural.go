package forecast

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/timeseries"
)

const (
	yearlyFourierOrder = 3
	weeklyFourierOrder = 2
	// Gaussian prior precision on the non-intercept coefficients; the MAP
	// estimate is the ridge-penalized least squares solution.
	structuralPriorPrecision = 1.0
	structuralInterval       = 1.96 // 95% band
)

// forecastStructural decomposes the series into trend plus yearly Fourier
// seasonality (plus a weekly cycle for daily data), fits the components by
// maximum a posteriori and produces point forecasts with a native 95%
// uncertainty band.
func forecastStructural(series *timeseries.Series, horizon int) (*Result, error) {
	freq := series.Frequency()
	logrus.Infof("Structural model selected for frequency %s", freq)

	y := series.Values()
	periods := series.Periods()
	n := len(y)

	x := make([][]float64, n)
	for i, p := range periods {
		x[i] = structuralFeatures(p, trendIndex(i, n), freq)
	}

	beta, err := mapFit(x, y)
	if err != nil {
		return nil, err
	}

	fitted := make([]float64, n)
	for i := range x {
		fitted[i] = dot(x[i], beta)
	}

	residuals := make([]float64, n)
	for i := range y {
		residuals[i] = y[i] - fitted[i]
	}
	scale := sampleStd(residuals)

	evaluation := safeEvaluate("structural", func() *Metrics {
		// Retrodicted in-sample curve against the original series. This
		// model family has no information criteria; those fields stay
		// absent rather than defaulting to zero.
		return newMetrics(insamplePair{actual: y, fitted: fitted}, n)
	})

	future := series.FuturePeriods(horizon)
	values := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for k, p := range future {
		v := dot(structuralFeatures(p, trendIndex(n+k, n), freq), beta)
		values[k] = v
		lower[k] = v - structuralInterval*scale
		upper[k] = v + structuralInterval*scale
	}

	rows := buildRows(series, horizon, values, lower, upper)

	info := map[string]interface{}{
		"model_type":          "StructuralTimeSeries",
		"interval_confidence": "95%",
		"frequency":           string(freq),
		"data_points":         n,
	}

	return &Result{Rows: rows, Evaluation: evaluation, Info: info}, nil
}

// trendIndex maps position i onto the [0, 1] training window; future
// positions extrapolate beyond 1.
func trendIndex(i, n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// structuralFeatures builds one design row: intercept, linear trend, yearly
// Fourier terms and, for daily cadence, day-of-week Fourier terms.
func structuralFeatures(period time.Time, trend float64, freq timeseries.Frequency) []float64 {
	row := []float64{1, trend}

	doy := float64(period.YearDay())
	for k := 1; k <= yearlyFourierOrder; k++ {
		arg := 2 * math.Pi * float64(k) * doy / 365.25
		row = append(row, math.Sin(arg), math.Cos(arg))
	}

	if freq == timeseries.Daily {
		dow := float64(int(period.Weekday()))
		for k := 1; k <= weeklyFourierOrder; k++ {
			arg := 2 * math.Pi * float64(k) * dow / 7
			row = append(row, math.Sin(arg), math.Cos(arg))
		}
	}

	return row
}

// mapFit solves the penalized normal equations. The intercept carries a flat
// prior; every other coefficient gets the shared Gaussian prior.
func mapFit(x [][]float64, y []float64) ([]float64, error) {
	k := len(x[0])
	xtx := make([][]float64, k)
	for i := range xtx {
		xtx[i] = make([]float64, k)
	}
	xty := make([]float64, k)

	for r := range x {
		for i := 0; i < k; i++ {
			xty[i] += x[r][i] * y[r]
			for j := 0; j < k; j++ {
				xtx[i][j] += x[r][i] * x[r][j]
			}
		}
	}
	for i := 1; i < k; i++ {
		xtx[i][i] += structuralPriorPrecision
	}

	return solveLinearSystem(xtx, xty)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
