package forecast

import (
	"math"

	"github.com/sirupsen/logrus"
)

// Metrics is the uniform in-sample evaluation bundle shared by all model
// families. Pointer fields are absent when the family does not expose the
// underlying quantity: MAPE when every actual is zero, information criteria
// for the structural model, R-squared outside the tree model and the
// Ljung-Box p-value when it cannot be computed.
type Metrics struct {
	MAE          float64  `json:"in_sample_mae"`
	RMSE         float64  `json:"in_sample_rmse"`
	MAPE         *float64 `json:"in_sample_mape"`
	AIC          *float64 `json:"aic,omitempty"`
	BIC          *float64 `json:"bic,omitempty"`
	RSquared     *float64 `json:"r_squared,omitempty"`
	LjungBoxPval *float64 `json:"ljung_box_pval,omitempty"`
	ResidualMean float64  `json:"residual_mean"`
	ResidualStd  float64  `json:"residual_std"`
	DataPoints   int      `json:"data_points"`
}

// insamplePair is the capability every model family adapts to: an aligned
// (actual, fitted) pair over the historical window. One shared metric routine
// consumes it regardless of what the model natively exposes.
type insamplePair struct {
	actual []float64
	fitted []float64
}

// newMetrics computes the shared metric bundle from an aligned in-sample
// pair. dataPoints is the full series length reported to the caller, which
// can exceed len(actual) when differencing shortens the fitted window.
// Rounding happens here, at the output boundary; intermediate computation
// stays at full precision.
func newMetrics(pair insamplePair, dataPoints int) *Metrics {
	mae := meanAbsoluteError(pair.actual, pair.fitted)
	rmse := math.Sqrt(meanSquaredError(pair.actual, pair.fitted))

	residuals := make([]float64, len(pair.actual))
	for i := range pair.actual {
		residuals[i] = pair.actual[i] - pair.fitted[i]
	}

	m := &Metrics{
		MAE:          round2(mae),
		RMSE:         round2(rmse),
		MAPE:         roundPtr(meanAbsolutePercentageError(pair.actual, pair.fitted), 2),
		ResidualMean: round4(mean(residuals)),
		ResidualStd:  round2(sampleStd(residuals)),
		DataPoints:   dataPoints,
	}
	return m
}

// safeEvaluate shields the forecast from evaluation faults: a panic or any
// malformed model internals degrade to absent metrics, never a failed
// request.
func safeEvaluate(model string, eval func() *Metrics) (m *Metrics) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("model", model).Warnf("Could not evaluate model: %v", r)
			m = nil
		}
	}()
	return eval()
}

func meanAbsoluteError(actual, fitted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		sum += math.Abs(actual[i] - fitted[i])
	}
	return sum / float64(len(actual))
}

func meanSquaredError(actual, fitted []float64) float64 {
	if len(actual) == 0 {
		return math.NaN()
	}
	var sum float64
	for i := range actual {
		d := actual[i] - fitted[i]
		sum += d * d
	}
	return sum / float64(len(actual))
}

// meanAbsolutePercentageError is computed only over periods with a nonzero
// actual, expressed in percent. It returns nil when every actual is zero;
// division by zero is never attempted and the absence is explicit.
func meanAbsolutePercentageError(actual, fitted []float64) *float64 {
	var sum float64
	count := 0
	for i := range actual {
		if actual[i] == 0 {
			continue
		}
		sum += math.Abs((actual[i] - fitted[i]) / actual[i])
		count++
	}
	if count == 0 {
		return nil
	}
	mape := sum / float64(count) * 100
	return &mape
}

// rSquared is the coefficient of determination of fitted against actual.
func rSquared(actual, fitted []float64) float64 {
	var ssRes, ssTot float64
	m := mean(actual)
	for i := range actual {
		dr := actual[i] - fitted[i]
		dt := actual[i] - m
		ssRes += dr * dr
		ssTot += dt * dt
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

func round2(v float64) float64 { return roundTo(v, 2) }
func round4(v float64) float64 { return roundTo(v, 4) }

func roundTo(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	shift := math.Pow(10, float64(places))
	return math.Round(v*shift) / shift
}

func roundPtr(v *float64, places int) *float64 {
	if v == nil {
		return nil
	}
	r := roundTo(*v, places)
	return &r
}

func float64Ptr(v float64) *float64 { return &v }
