package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/salescast/salescast-api/internal/utils"
)

// Model selects which forecasting strategy to run.
type Model string

const (
	// ModelAutoregressive is the classical ARIMA(1,1,1) strategy.
	ModelAutoregressive Model = "autoregressive"
	// ModelStructural is the Bayesian trend + seasonality strategy.
	ModelStructural Model = "structural"
	// ModelTree is the gradient-boosted-tree strategy over engineered features.
	ModelTree Model = "tree"
)

// ParseModel validates a model selector from a request.
func ParseModel(s string) (Model, error) {
	switch Model(strings.ToLower(strings.TrimSpace(s))) {
	case ModelAutoregressive:
		return ModelAutoregressive, nil
	case ModelStructural:
		return ModelStructural, nil
	case ModelTree:
		return ModelTree, nil
	default:
		return "", fmt.Errorf("%w: %q", utils.ErrUnknownModel, s)
	}
}

// Row is a single forecasted future period. Bounds are nil when the strategy
// produces no uncertainty band.
type Row struct {
	Label string
	Value float64
	Lower *float64
	Upper *float64
}

// Result is the harmonized output of any strategy: one row per future
// period, an optional evaluation bundle and free-form model metadata.
type Result struct {
	Rows       []Row
	Evaluation *Metrics
	Info       map[string]interface{}
}

// FeatureWeight is one entry of a ranked feature-importance listing.
type FeatureWeight struct {
	Name   string
	Weight float64
}

// TopFeatures is an importance ranking sorted descending by weight. It
// marshals as a JSON object whose keys keep the ranking order.
type TopFeatures []FeatureWeight

func (tf TopFeatures) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fw := range tf {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fw.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if math.IsNaN(fw.Weight) || math.IsInf(fw.Weight, 0) {
			buf.WriteString("null")
		} else {
			val, err := json.Marshal(fw.Weight)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
