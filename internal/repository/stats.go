package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/salescast/salescast-api/internal/utils"
)

// statsTables is the closed set of tables the statistics endpoint may touch.
// Identifiers are only ever taken from this map, never from raw input.
var statsTables = map[string]bool{
	"customers":     true,
	"orders":        true,
	"order_details": true,
	"products":      true,
}

// numericTypes are the information_schema data types treated as numeric for
// summary statistics.
var numericTypes = map[string]bool{
	"smallint":         true,
	"integer":          true,
	"bigint":           true,
	"real":             true,
	"double precision": true,
	"numeric":          true,
}

// ColumnInfo describes one column of an inspected table.
type ColumnInfo struct {
	Name     string
	DataType string
}

// IsNumeric reports whether the column carries a numeric data type.
func (c ColumnInfo) IsNumeric() bool {
	return numericTypes[c.DataType]
}

// NumericStats is the summary bundle for one numeric column. Mean, Std, Min
// and Max are nil when the column has no non-null values; Std is also nil for
// a single observation.
type NumericStats struct {
	Count int64
	Mean  *float64
	Std   *float64
	Min   *float64
	Max   *float64
}

// AllowedTable reports whether table statistics may be computed for name.
func AllowedTable(name string) bool {
	return statsTables[name]
}

// checkTable validates the table name against the whitelist before any
// identifier interpolation.
func checkTable(table string) error {
	if !statsTables[table] {
		return utils.NewValidationErrorf("table %q is not available for analysis", table)
	}
	return nil
}

// TableColumns lists the columns of a whitelisted table in definition order.
func (r *SalesRepository) TableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query := `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := r.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		if err := rows.Scan(&col.Name, &col.DataType); err != nil {
			return nil, fmt.Errorf("failed to scan column info: %w", err)
		}
		out = append(out, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column info: %w", err)
	}

	return out, nil
}

// RowCount returns the total row count of a whitelisted table.
func (r *SalesRepository) RowCount(ctx context.Context, table string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", pgx.Identifier{table}.Sanitize())
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", table, err)
	}
	return count, nil
}

// NumericColumnStats computes count, mean, std, min and max for one numeric
// column of a whitelisted table.
func (r *SalesRepository) NumericColumnStats(ctx context.Context, table, column string) (*NumericStats, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	col := pgx.Identifier{column}.Sanitize()
	query := fmt.Sprintf(`
		SELECT COUNT(%s),
		       AVG(%s)::float8,
		       STDDEV(%s)::float8,
		       MIN(%s)::float8,
		       MAX(%s)::float8
		FROM %s
	`, col, col, col, col, col, pgx.Identifier{table}.Sanitize())

	var stats NumericStats
	err := r.pool.QueryRow(ctx, query).Scan(&stats.Count, &stats.Mean, &stats.Std, &stats.Min, &stats.Max)
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats for %s.%s: %w", table, column, err)
	}
	return &stats, nil
}

// NullCount returns the number of NULL values in one column of a whitelisted
// table.
func (r *SalesRepository) NullCount(ctx context.Context, table, column string) (int64, error) {
	if err := checkTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT COUNT(*) - COUNT(%s) FROM %s",
		pgx.Identifier{column}.Sanitize(), pgx.Identifier{table}.Sanitize())

	var count int64
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count nulls of %s.%s: %w", table, column, err)
	}
	return count, nil
}

// SampleRows returns up to limit rows of a whitelisted table as generic
// column/value maps, preserving whatever types the driver yields.
func (r *SalesRepository) SampleRows(ctx context.Context, table string, limit int) ([]map[string]interface{}, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT $1", pgx.Identifier{table}.Sanitize())
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to sample rows of %s: %w", table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []map[string]interface{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read sample row of %s: %w", table, err)
		}
		row := make(map[string]interface{}, len(fields))
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample rows: %w", err)
	}

	return out, nil
}
