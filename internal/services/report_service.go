package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/salescast/salescast-api/internal/forecast"
	"github.com/salescast/salescast-api/internal/models"
	"github.com/salescast/salescast-api/internal/repository"
	"github.com/salescast/salescast-api/internal/timeseries"
	"github.com/salescast/salescast-api/internal/utils"
)

const sampleRowLimit = 10

// TableInspector is the schema-introspection surface the report service
// consumes for table statistics. *repository.SalesRepository satisfies it.
type TableInspector interface {
	TableColumns(ctx context.Context, table string) ([]repository.ColumnInfo, error)
	RowCount(ctx context.Context, table string) (int64, error)
	NumericColumnStats(ctx context.Context, table, column string) (*repository.NumericStats, error)
	NullCount(ctx context.Context, table, column string) (int64, error)
	SampleRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error)
}

// ProductSalesReader is the single aggregation query the pivot report needs.
type ProductSalesReader interface {
	ProductSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error)
}

// ReportService produces the aggregated sales report and the table
// statistics summaries.
type ReportService struct {
	sales     ProductSalesReader
	inspector TableInspector
}

// NewReportService creates a new report service.
func NewReportService(sales ProductSalesReader, inspector TableInspector) *ReportService {
	return &ReportService{sales: sales, inspector: inspector}
}

// MonthlyProductReport pivots monthly revenue into one row per product with
// month columns and a per-row total. Without a product filter an
// "All Products" roll-up row is appended.
func (s *ReportService) MonthlyProductReport(ctx context.Context, productFilter string) (map[string]interface{}, error) {
	rows, err := s.sales.ProductSales(ctx, timeseries.Monthly)
	if err != nil {
		return nil, err
	}

	filter := normalize(productFilter)
	if filter != "" {
		rows = filterRows(rows, productFilter, "")
	}
	if len(rows) == 0 {
		if filter != "" {
			return nil, fmt.Errorf("%w for product %q", utils.ErrNoData, strings.TrimSpace(productFilter))
		}
		return nil, utils.ErrNoData
	}

	// Collect the distinct months spanning the data; they become the pivot
	// columns in chronological order.
	monthSet := make(map[time.Time]bool)
	perProduct := make(map[string]map[time.Time]float64)
	var productOrder []string
	for _, r := range rows {
		period := timeseries.Monthly.Truncate(r.Period)
		monthSet[period] = true
		if _, ok := perProduct[r.Name]; !ok {
			perProduct[r.Name] = make(map[time.Time]float64)
			productOrder = append(productOrder, r.Name)
		}
		perProduct[r.Name][period] += r.TotalSales.InexactFloat64()
	}

	months := make([]time.Time, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	sort.Strings(productOrder)

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = timeseries.Monthly.FormatLabel(m)
	}

	columnTotals := make(map[time.Time]float64)
	reportRows := make([]map[string]interface{}, 0, len(productOrder)+1)
	for _, product := range productOrder {
		row := map[string]interface{}{"product_name": product}
		var total float64
		for i, m := range months {
			v := perProduct[product][m]
			row[labels[i]] = round2(v)
			total += v
			columnTotals[m] += v
		}
		row["Total"] = round2(total)
		reportRows = append(reportRows, row)
	}

	if filter == "" {
		rollup := map[string]interface{}{"product_name": "All Products"}
		var grand float64
		for i, m := range months {
			rollup[labels[i]] = round2(columnTotals[m])
			grand += columnTotals[m]
		}
		rollup["Total"] = round2(grand)
		reportRows = append(reportRows, rollup)
	}

	return map[string]interface{}{
		"months": labels,
		"rows":   reportRows,
	}, nil
}

// TableStats summarizes a whitelisted table: row and column counts, numeric
// column statistics, per-column null counts and a small row sample.
func (s *ReportService) TableStats(ctx context.Context, table string) (map[string]interface{}, error) {
	table = normalize(table)

	cols, err := s.inspector.TableColumns(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: table %q has no columns", utils.ErrNoData, table)
	}

	rowCount, err := s.inspector.RowCount(ctx, table)
	if err != nil {
		return nil, err
	}

	columns := make([]map[string]interface{}, len(cols))
	numericSummary := make(map[string]interface{})
	nullCounts := make(map[string]interface{})
	for i, col := range cols {
		columns[i] = map[string]interface{}{
			"name":      col.Name,
			"data_type": col.DataType,
		}

		nulls, err := s.inspector.NullCount(ctx, table, col.Name)
		if err != nil {
			return nil, err
		}
		nullCounts[col.Name] = nulls

		if !col.IsNumeric() {
			continue
		}
		stats, err := s.inspector.NumericColumnStats(ctx, table, col.Name)
		if err != nil {
			return nil, err
		}
		numericSummary[col.Name] = map[string]interface{}{
			"count": stats.Count,
			"mean":  ptrOrNil(stats.Mean),
			"std":   ptrOrNil(stats.Std),
			"min":   ptrOrNil(stats.Min),
			"max":   ptrOrNil(stats.Max),
		}
	}

	samples, err := s.inspector.SampleRows(ctx, table, sampleRowLimit)
	if err != nil {
		return nil, err
	}

	resp := map[string]interface{}{
		"table_name":      table,
		"row_count":       rowCount,
		"column_count":    len(cols),
		"columns":         columns,
		"numeric_summary": numericSummary,
		"null_counts":     nullCounts,
		"sample_rows":     samples,
	}
	return forecast.Sanitize(resp).(map[string]interface{}), nil
}

func ptrOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
