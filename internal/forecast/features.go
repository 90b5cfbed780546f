package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/salescast/salescast-api/internal/timeseries"
)

// treeParams are the frequency-specific hyperparameters of the tree
// strategy: how far back lag features reach, the rolling window widths and
// the minimum number of surviving training rows before the strategy falls
// back to calendar-only features.
type treeParams struct {
	lags     []int
	windows  []int
	minTrain int
}

func treeParamsFor(freq timeseries.Frequency) treeParams {
	switch freq {
	case timeseries.Daily:
		return treeParams{lags: []int{1, 2, 3, 7, 14, 30}, windows: []int{7, 14, 30}, minTrain: 60}
	case timeseries.Weekly:
		return treeParams{lags: []int{1, 2, 4, 8, 12}, windows: []int{4, 8, 12}, minTrain: 20}
	default:
		return treeParams{lags: []int{1, 2, 3, 6, 12}, windows: []int{3, 6, 12}, minTrain: 12}
	}
}

var calendarFeatureNames = []string{"year", "month", "day", "dayofweek", "quarter", "dayofyear", "weekofyear"}

// featureSet fixes the engineered feature columns and their definition
// order: calendar features first, then lags, then the rolling statistics per
// window. The order is the deterministic tie-breaker for importance
// rankings.
type featureSet struct {
	names        []string
	lags         []int
	windows      []int
	calendarOnly bool
}

func newFeatureSet(params treeParams, calendarOnly bool) *featureSet {
	fs := &featureSet{calendarOnly: calendarOnly}
	fs.names = append(fs.names, calendarFeatureNames...)
	if calendarOnly {
		return fs
	}
	fs.lags = params.lags
	fs.windows = params.windows
	for _, lag := range params.lags {
		fs.names = append(fs.names, fmt.Sprintf("lag_%d", lag))
	}
	for _, w := range params.windows {
		fs.names = append(fs.names,
			fmt.Sprintf("rolling_mean_%d", w),
			fmt.Sprintf("rolling_std_%d", w),
			fmt.Sprintf("rolling_min_%d", w),
			fmt.Sprintf("rolling_max_%d", w),
		)
	}
	return fs
}

// calendarFeatures extracts the date components of a period. Day-of-week is
// Monday-based (0..6) and week-of-year follows the ISO calendar.
func calendarFeatures(t time.Time) []float64 {
	_, isoWeek := t.ISOWeek()
	return []float64{
		float64(t.Year()),
		float64(int(t.Month())),
		float64(t.Day()),
		float64((int(t.Weekday()) + 6) % 7),
		float64((int(t.Month())-1)/3 + 1),
		float64(t.YearDay()),
		float64(isoWeek),
	}
}

// trainingRow engineers the features of the i-th historical point. Lag and
// rolling values that reach before the start of the series are NaN; rolling
// windows are shifted by one period so a row never sees its own value.
func (fs *featureSet) trainingRow(period time.Time, y []float64, i int) []float64 {
	row := calendarFeatures(period)
	if fs.calendarOnly {
		return row
	}

	for _, lag := range fs.lags {
		if i >= lag {
			row = append(row, y[i-lag])
		} else {
			row = append(row, math.NaN())
		}
	}

	for _, w := range fs.windows {
		if i >= w {
			window := y[i-w : i]
			row = append(row, mean(window), sampleStd(window), minFloat(window), maxFloat(window))
		} else {
			row = append(row, math.NaN(), math.NaN(), math.NaN(), math.NaN())
		}
	}
	return row
}

// futureRow engineers the features of one future period from the trailing
// buffer of actual plus already-predicted values. Where the buffer is too
// short for a lag or window, whole-buffer statistics stand in, matching the
// documented degradation rather than failing.
func (fs *featureSet) futureRow(period time.Time, buffer []float64) []float64 {
	row := calendarFeatures(period)
	if fs.calendarOnly {
		return row
	}

	for _, lag := range fs.lags {
		if len(buffer) >= lag {
			row = append(row, buffer[len(buffer)-lag])
		} else {
			row = append(row, mean(buffer))
		}
	}

	for _, w := range fs.windows {
		if len(buffer) >= w {
			window := buffer[len(buffer)-w:]
			row = append(row, mean(window), sampleStd(window), minFloat(window), maxFloat(window))
		} else {
			row = append(row, mean(buffer), sampleStd(buffer), minFloat(buffer), maxFloat(buffer))
		}
	}
	return row
}

// buildTrainingMatrix engineers the full feature matrix and drops rows whose
// lag or rolling features are undefined. ok is false when fewer than the
// frequency minimum survive and the caller must fall back.
func (fs *featureSet) buildTrainingMatrix(series *timeseries.Series, minTrain int) (x [][]float64, target []float64, ok bool) {
	y := series.Values()
	periods := series.Periods()

	for i := range y {
		row := fs.trainingRow(periods[i], y, i)
		if hasNaN(row) {
			continue
		}
		x = append(x, row)
		target = append(target, y[i])
	}
	if fs.calendarOnly {
		return x, target, true
	}
	return x, target, len(x) >= minTrain
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
