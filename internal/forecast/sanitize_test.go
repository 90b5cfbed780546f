package forecast

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	resp := map[string]interface{}{
		"ok":       12.5,
		"bad_nan":  math.NaN(),
		"bad_inf":  math.Inf(1),
		"bad_ninf": math.Inf(-1),
		"nested": map[string]interface{}{
			"value": math.NaN(),
			"kept":  "text",
		},
		"list": []interface{}{1.0, math.NaN(), "x"},
		"rows": []map[string]interface{}{
			{"v": math.Inf(1)},
			{"v": 3.25},
		},
		"ptr_bad":  ptrNaN(),
		"ptr_good": float64Ptr(7.5),
		"count":    4,
	}

	got := Sanitize(resp).(map[string]interface{})

	assert.Equal(t, 12.5, got["ok"])
	assert.Nil(t, got["bad_nan"])
	assert.Nil(t, got["bad_inf"])
	assert.Nil(t, got["bad_ninf"])

	nested := got["nested"].(map[string]interface{})
	assert.Nil(t, nested["value"])
	assert.Equal(t, "text", nested["kept"])

	list := got["list"].([]interface{})
	assert.Equal(t, 1.0, list[0])
	assert.Nil(t, list[1])
	assert.Equal(t, "x", list[2])

	rows := got["rows"].([]map[string]interface{})
	assert.Nil(t, rows[0]["v"])
	assert.Equal(t, 3.25, rows[1]["v"])

	assert.Nil(t, got["ptr_bad"])
	assert.Equal(t, 7.5, got["ptr_good"])
	assert.Equal(t, 4, got["count"])

	// the sanitized structure must serialize cleanly
	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestTopFeaturesMarshalJSON(t *testing.T) {
	tf := TopFeatures{
		{Name: "lag_1", Weight: 0.5},
		{Name: "rolling_mean_3", Weight: 0.3},
		{Name: "year", Weight: math.NaN()},
	}

	data, err := json.Marshal(tf)
	require.NoError(t, err)

	// key order preserves the ranking; NaN serializes as an explicit null
	assert.JSONEq(t, `{"lag_1":0.5,"rolling_mean_3":0.3,"year":null}`, string(data))
	assert.Equal(t, `{"lag_1":0.5,"rolling_mean_3":0.3,"year":null}`, string(data))
}

func ptrNaN() *float64 {
	v := math.NaN()
	return &v
}
