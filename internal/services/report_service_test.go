package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salescast/salescast-api/internal/models"
	"github.com/salescast/salescast-api/internal/repository"
	"github.com/salescast/salescast-api/internal/utils"
)

type fakeInspector struct {
	columns []repository.ColumnInfo
	rows    int64
	stats   map[string]*repository.NumericStats
	nulls   map[string]int64
	samples []map[string]interface{}
}

func (f *fakeInspector) TableColumns(_ context.Context, _ string) ([]repository.ColumnInfo, error) {
	return f.columns, nil
}

func (f *fakeInspector) RowCount(_ context.Context, _ string) (int64, error) {
	return f.rows, nil
}

func (f *fakeInspector) NumericColumnStats(_ context.Context, _, column string) (*repository.NumericStats, error) {
	return f.stats[column], nil
}

func (f *fakeInspector) NullCount(_ context.Context, _, column string) (int64, error) {
	return f.nulls[column], nil
}

func (f *fakeInspector) SampleRows(_ context.Context, _ string, _ int) ([]map[string]interface{}, error) {
	return f.samples, nil
}

func TestReportService_MonthlyProductReport(t *testing.T) {
	sales := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Chai", "", 2024, time.March, 50),
		monthlyRow("Ikura", "", 2024, time.January, 20),
		monthlyRow("Ikura", "", 2024, time.February, 30),
	}}
	svc := NewReportService(sales, &fakeInspector{})

	report, err := svc.MonthlyProductReport(context.Background(), "")
	require.NoError(t, err)

	months, ok := report["months"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"Jan-2024", "Feb-2024", "Mar-2024"}, months)

	rows, ok := report["rows"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rows, 3)

	assert.Equal(t, "Chai", rows[0]["product_name"])
	assert.Equal(t, 100.0, rows[0]["Jan-2024"])
	assert.Equal(t, 0.0, rows[0]["Feb-2024"])
	assert.Equal(t, 150.0, rows[0]["Total"])

	assert.Equal(t, "Ikura", rows[1]["product_name"])
	assert.Equal(t, 50.0, rows[1]["Total"])

	rollup := rows[2]
	assert.Equal(t, "All Products", rollup["product_name"])
	assert.Equal(t, 120.0, rollup["Jan-2024"])
	assert.Equal(t, 200.0, rollup["Total"])
}

func TestReportService_MonthlyProductReport_Filtered(t *testing.T) {
	sales := &fakeSalesRepo{product: []models.SalesRow{
		monthlyRow("Chai", "", 2024, time.January, 100),
		monthlyRow("Ikura", "", 2024, time.January, 20),
	}}
	svc := NewReportService(sales, &fakeInspector{})

	report, err := svc.MonthlyProductReport(context.Background(), "  CHAI ")
	require.NoError(t, err)

	rows := report["rows"].([]map[string]interface{})
	require.Len(t, rows, 1)
	assert.Equal(t, "Chai", rows[0]["product_name"])

	_, err = svc.MonthlyProductReport(context.Background(), "nope")
	assert.ErrorIs(t, err, utils.ErrNoData)
}

func TestReportService_TableStats(t *testing.T) {
	mean := 26.22
	std := 29.83
	min := 2.0
	max := 263.5

	inspector := &fakeInspector{
		columns: []repository.ColumnInfo{
			{Name: "order_id", DataType: "smallint"},
			{Name: "unit_price", DataType: "real"},
			{Name: "notes", DataType: "text"},
		},
		rows: 2155,
		stats: map[string]*repository.NumericStats{
			"order_id":   {Count: 2155, Mean: &mean, Std: &std, Min: &min, Max: &max},
			"unit_price": {Count: 2155, Mean: &mean, Std: &std, Min: &min, Max: &max},
		},
		nulls: map[string]int64{"order_id": 0, "unit_price": 0, "notes": 12},
		samples: []map[string]interface{}{
			{"order_id": int64(10248), "unit_price": 14.0, "notes": nil},
			{"order_id": int64(10249), "unit_price": math.NaN(), "notes": "x"},
		},
	}
	svc := NewReportService(&fakeSalesRepo{}, inspector)

	stats, err := svc.TableStats(context.Background(), " Order_Details ")
	require.NoError(t, err)

	assert.Equal(t, "order_details", stats["table_name"])
	assert.Equal(t, int64(2155), stats["row_count"])
	assert.Equal(t, 3, stats["column_count"])

	summary := stats["numeric_summary"].(map[string]interface{})
	require.Contains(t, summary, "unit_price")
	assert.NotContains(t, summary, "notes")
	unitPrice := summary["unit_price"].(map[string]interface{})
	assert.Equal(t, 26.22, unitPrice["mean"])

	nulls := stats["null_counts"].(map[string]interface{})
	assert.Equal(t, int64(12), nulls["notes"])

	// NaN sample values must leave as explicit nulls
	samples := stats["sample_rows"].([]map[string]interface{})
	require.Len(t, samples, 2)
	assert.Nil(t, samples[1]["unit_price"])
}

func TestReportService_TableStats_NoColumns(t *testing.T) {
	svc := NewReportService(&fakeSalesRepo{}, &fakeInspector{})
	_, err := svc.TableStats(context.Background(), "orders")
	assert.ErrorIs(t, err, utils.ErrNoData)
}

// compile-time interface checks against the real repository
var (
	_ SalesRepository    = (*repository.SalesRepository)(nil)
	_ TableInspector     = (*repository.SalesRepository)(nil)
	_ ProductSalesReader = (*repository.SalesRepository)(nil)
)
