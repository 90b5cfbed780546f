package forecast

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/timeseries"
)

// arimaOrder is the fixed (p, d, q) order of the autoregressive strategy.
var arimaOrder = [3]int{1, 1, 1}

// arimaFit holds the estimated ARIMA(1,1,1) model: the series is differenced
// once and the differenced values follow w_t = c + phi*w_{t-1} + theta*e_{t-1} + e_t.
type arimaFit struct {
	c, phi, theta float64
	diffed        []float64 // w, length n-1
	residuals     []float64 // e on the differenced scale, length n-1
	fitted        []float64 // one-step-ahead predictions of y[1:], length n-1
}

// forecastARIMA fits a fixed-order ARIMA(1,1,1) on the raw series and
// produces point forecasts without native uncertainty bounds.
func forecastARIMA(series *timeseries.Series, horizon int) (*Result, error) {
	freq := series.Frequency()
	logrus.Infof("ARIMA model selected for frequency %s", freq)

	y := series.Values()
	fit := fitARIMA(y)

	evaluation := safeEvaluate("arima", func() *Metrics {
		// The fitted window is shorter than the series by the differencing
		// order, so alignment takes the last len(fitted) actuals.
		actual := y[len(y)-len(fit.fitted):]
		m := newMetrics(insamplePair{actual: actual, fitted: fit.fitted}, series.Len())
		m.AIC, m.BIC = fit.informationCriteria()
		m.LjungBoxPval = fit.ljungBoxPval()
		return m
	})

	values := fit.forecast(y[len(y)-1], horizon)
	rows := buildRows(series, horizon, values, nil, nil)

	info := map[string]interface{}{
		"model_type":          "ARIMA",
		"model_order":         arimaOrder,
		"interval_confidence": nil,
		"frequency":           string(freq),
		"data_points":         series.Len(),
	}

	return &Result{Rows: rows, Evaluation: evaluation, Info: info}, nil
}

// fitARIMA estimates the ARMA(1,1) coefficients of the once-differenced
// series with the Hannan-Rissanen two-stage regression: a long
// autoregression supplies residual proxies, then the differenced series is
// regressed on its own lag and the lagged residual.
func fitARIMA(y []float64) *arimaFit {
	w := difference(y)
	c, phi, theta := hannanRissanen(w)

	// Stability clamp; estimates outside the invertible region make the
	// recursive forecast explode.
	phi = clamp(phi, -0.99, 0.99)
	theta = clamp(theta, -0.99, 0.99)

	fit := &arimaFit{c: c, phi: phi, theta: theta, diffed: w}

	// One-step-ahead predictions on the differenced scale, with residuals
	// accumulated sequentially.
	e := make([]float64, len(w))
	what := make([]float64, len(w))
	for j := range w {
		if j == 0 {
			what[j] = c
		} else {
			what[j] = c + phi*w[j-1] + theta*e[j-1]
		}
		e[j] = w[j] - what[j]
	}
	fit.residuals = e

	// Integrate back to the original scale: each prediction of w[j]
	// continues from the actual y[j].
	fitted := make([]float64, len(w))
	for j := range w {
		fitted[j] = y[j] + what[j]
	}
	fit.fitted = fitted

	return fit
}

// forecast produces horizon recursive point forecasts, integrating the
// differenced predictions onto the last observed level.
func (f *arimaFit) forecast(lastLevel float64, horizon int) []float64 {
	lastW := f.diffed[len(f.diffed)-1]
	lastE := f.residuals[len(f.residuals)-1]

	out := make([]float64, 0, horizon)
	level := lastLevel
	for k := 0; k < horizon; k++ {
		var wn float64
		if k == 0 {
			wn = f.c + f.phi*lastW + f.theta*lastE
		} else {
			// future shocks have zero expectation
			wn = f.c + f.phi*lastW
		}
		lastW = wn
		level += wn
		out = append(out, level)
	}
	return out
}

// informationCriteria derives AIC and BIC from the Gaussian residual
// likelihood with three estimated parameters (constant, AR, MA).
func (f *arimaFit) informationCriteria() (aic, bic *float64) {
	m := len(f.residuals)
	if m == 0 {
		return nil, nil
	}
	var sse float64
	for _, e := range f.residuals {
		sse += e * e
	}
	sigma2 := sse / float64(m)
	if sigma2 <= 0 {
		sigma2 = 1e-12
	}
	const k = 3
	loglik := -0.5 * float64(m) * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
	return float64Ptr(round2(2*k - 2*loglik)),
		float64Ptr(round2(math.Log(float64(m))*k - 2*loglik))
}

// ljungBoxPval computes the residual-whiteness test p-value over
// min(10, m/5) lags. Best effort: any failure returns nil and is never
// propagated as an error.
func (f *arimaFit) ljungBoxPval() *float64 {
	m := len(f.residuals)
	lags := 10
	if m/5 < lags {
		lags = m / 5
	}
	if lags < 1 {
		return nil
	}

	mu := mean(f.residuals)
	var denom float64
	for _, e := range f.residuals {
		d := e - mu
		denom += d * d
	}
	if denom == 0 {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		var num float64
		for t := k; t < m; t++ {
			num += (f.residuals[t] - mu) * (f.residuals[t-k] - mu)
		}
		rho := num / denom
		q += rho * rho / float64(m-k)
	}
	q *= float64(m) * float64(m+2)

	pval, err := chiSquareSF(q, lags)
	if err != nil || math.IsNaN(pval) {
		return nil
	}
	return float64Ptr(round4(pval))
}

// hannanRissanen returns (c, phi, theta) for an ARMA(1,1) with constant.
// Degenerate inputs fall back to a mean-only model.
func hannanRissanen(w []float64) (c, phi, theta float64) {
	if len(w) < 3 {
		return mean(w), 0, 0
	}

	// Stage 1: long AR by least squares to obtain residual proxies.
	p := len(w) / 2
	if p > 10 {
		p = 10
	}
	if p < 1 {
		p = 1
	}
	proxies := longARResiduals(w, p)

	// Stage 2: w_t ~ 1 + w_{t-1} + e_{t-1}.
	var x [][]float64
	var target []float64
	for t := 1; t < len(w); t++ {
		x = append(x, []float64{1, w[t-1], proxies[t-1]})
		target = append(target, w[t])
	}
	beta, err := ordinaryLeastSquares(x, target, 0)
	if err != nil {
		return mean(w), 0, 0
	}
	return beta[0], beta[1], beta[2]
}

// longARResiduals fits AR(p) by OLS and returns its residuals, zero-padded
// over the first p positions where no prediction exists.
func longARResiduals(w []float64, p int) []float64 {
	res := make([]float64, len(w))
	if len(w) <= p+1 {
		// Not enough rows for the regression; residuals around the mean
		// serve as the proxy.
		mu := mean(w)
		for i, v := range w {
			res[i] = v - mu
		}
		return res
	}

	var x [][]float64
	var target []float64
	for t := p; t < len(w); t++ {
		row := make([]float64, p+1)
		row[0] = 1
		for j := 1; j <= p; j++ {
			row[j] = w[t-j]
		}
		x = append(x, row)
		target = append(target, w[t])
	}

	beta, err := ordinaryLeastSquares(x, target, 1e-8)
	if err != nil {
		mu := mean(w)
		for i, v := range w {
			res[i] = v - mu
		}
		return res
	}

	for t := p; t < len(w); t++ {
		pred := beta[0]
		for j := 1; j <= p; j++ {
			pred += beta[j] * w[t-j]
		}
		res[t] = w[t] - pred
	}
	return res
}

// ordinaryLeastSquares solves min ||X b - y||^2 (+ ridge penalty) via the
// normal equations.
func ordinaryLeastSquares(x [][]float64, y []float64, ridge float64) ([]float64, error) {
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
	for i := 0; i < k; i++ {
		xtx[i][i] += ridge
	}
	return solveLinearSystem(xtx, xty)
}

func difference(y []float64) []float64 {
	out := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		out[i-1] = y[i] - y[i-1]
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
