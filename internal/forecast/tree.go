package forecast

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/timeseries"
)

const topFeatureCount = 5

// forecastTree trains a gradient-boosted tree ensemble over engineered
// lag/rolling/calendar features and predicts future periods one step at a
// time, feeding each prediction back into the feature buffer.
func forecastTree(series *timeseries.Series, horizon int) (*Result, error) {
	freq := series.Frequency()
	logrus.Infof("Gradient-boosted tree model selected for frequency %s", freq)

	params := treeParamsFor(freq)
	fs := newFeatureSet(params, false)
	x, target, ok := fs.buildTrainingMatrix(series, params.minTrain)
	if !ok {
		logrus.Warnf("Not enough data after feature engineering, need at least %d rows; falling back to calendar-only features", params.minTrain)
		fs = newFeatureSet(params, true)
		x, target, _ = fs.buildTrainingMatrix(series, params.minTrain)
	}

	model := trainGBT(x, target, defaultGBTConfig)

	evaluation := safeEvaluate("tree", func() *Metrics {
		fitted := model.predictAll(x)
		m := newMetrics(insamplePair{actual: target, fitted: fitted}, len(target))
		m.RSquared = float64Ptr(round4(rSquared(target, fitted)))
		return m
	})

	// Forecasting beyond the training window is necessarily autoregressive:
	// lag and rolling features of later future periods see previously
	// predicted, not actual, values.
	buffer := series.Values()
	future := series.FuturePeriods(horizon)
	values := make([]float64, 0, horizon)
	for _, period := range future {
		pred := model.predict(fs.futureRow(period, buffer))
		values = append(values, pred)
		buffer = append(buffer, pred)
	}

	// Normal-approximation band from the in-sample residual spread, not a
	// native prediction interval. Sales cannot go negative, so the lower
	// bound clips at zero.
	var lower, upper []float64
	if evaluation != nil && evaluation.ResidualStd != 0 {
		sigma := evaluation.ResidualStd
		lower = make([]float64, horizon)
		upper = make([]float64, horizon)
		for i, v := range values {
			lo := v - 1.96*sigma
			if lo < 0 {
				lo = 0
			}
			lower[i] = lo
			upper[i] = v + 1.96*sigma
		}
	}

	rows := buildRows(series, horizon, values, lower, upper)

	info := map[string]interface{}{
		"model_type":          "GradientBoostedTrees",
		"interval_confidence": "95%",
		"frequency":           string(freq),
		"data_points":         series.Len(),
		"n_estimators":        defaultGBTConfig.nEstimators,
		"max_depth":           defaultGBTConfig.maxDepth,
		"top_features":        topFeatures(fs.names, model.featureImportances()),
	}

	return &Result{Rows: rows, Evaluation: evaluation, Info: info}, nil
}

// topFeatures ranks features by importance descending and keeps the top
// five. The stable sort breaks ties by feature-definition order.
func topFeatures(names []string, importances []float64) TopFeatures {
	ranked := make(TopFeatures, len(names))
	for i, name := range names {
		ranked[i] = FeatureWeight{Name: name, Weight: importances[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Weight > ranked[j].Weight })

	if len(ranked) > topFeatureCount {
		ranked = ranked[:topFeatureCount]
	}
	for i := range ranked {
		ranked[i].Weight = round4(ranked[i].Weight)
	}
	return ranked
}
