package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/salescast/salescast-api/internal/models"
	"github.com/salescast/salescast-api/internal/timeseries"
)

// DBPool defines the database pool operations the repository needs.
// This interface allows for both real pool and mock pool implementations.
type DBPool interface {
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	// Query executes a query that returns rows.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	// Exec executes a query without returning any rows.
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// SalesRepository runs the aggregation queries over the sales schema
// (customers, orders, order_details, products). Revenue is always the sum of
// unit_price * quantity * (1 - discount) per order line; the period is
// date_trunc at the requested frequency.
type SalesRepository struct {
	pool DBPool
}

// NewSalesRepository creates a new sales repository.
func NewSalesRepository(pool DBPool) *SalesRepository {
	return &SalesRepository{pool: pool}
}

// ProductSales returns per-product revenue aggregated at the given frequency,
// ordered by product and period.
func (r *SalesRepository) ProductSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error) {
	query := `
		SELECT p.product_name,
		       date_trunc($1, o.order_date) AS period,
		       SUM(od.unit_price * od.quantity * (1 - od.discount)) AS total_sales
		FROM order_details od
		JOIN orders o ON o.order_id = od.order_id
		JOIN products p ON p.product_id = od.product_id
		GROUP BY p.product_name, period
		ORDER BY p.product_name, period
	`
	return r.querySales(ctx, query, false, freq.DateTruncField())
}

// CustomerSales returns per-customer revenue aggregated at the given
// frequency, keyed by the customer company name.
func (r *SalesRepository) CustomerSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error) {
	query := `
		SELECT c.company_name,
		       date_trunc($1, o.order_date) AS period,
		       SUM(od.unit_price * od.quantity * (1 - od.discount)) AS total_sales
		FROM order_details od
		JOIN orders o ON o.order_id = od.order_id
		JOIN customers c ON c.customer_id = o.customer_id
		GROUP BY c.company_name, period
		ORDER BY c.company_name, period
	`
	return r.querySales(ctx, query, false, freq.DateTruncField())
}

// CustomerProductSales returns revenue per (customer, product) pair
// aggregated at the given frequency. The customer company name lands in Name
// and the product name in SecondaryName.
func (r *SalesRepository) CustomerProductSales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error) {
	query := `
		SELECT c.company_name,
		       p.product_name,
		       date_trunc($1, o.order_date) AS period,
		       SUM(od.unit_price * od.quantity * (1 - od.discount)) AS total_sales
		FROM order_details od
		JOIN orders o ON o.order_id = od.order_id
		JOIN customers c ON c.customer_id = o.customer_id
		JOIN products p ON p.product_id = od.product_id
		GROUP BY c.company_name, p.product_name, period
		ORDER BY c.company_name, p.product_name, period
	`
	return r.querySales(ctx, query, true, freq.DateTruncField())
}

// CitySales returns per-city revenue aggregated at the given frequency,
// keyed by the customer city.
func (r *SalesRepository) CitySales(ctx context.Context, freq timeseries.Frequency) ([]models.SalesRow, error) {
	query := `
		SELECT c.city,
		       date_trunc($1, o.order_date) AS period,
		       SUM(od.unit_price * od.quantity * (1 - od.discount)) AS total_sales
		FROM order_details od
		JOIN orders o ON o.order_id = od.order_id
		JOIN customers c ON c.customer_id = o.customer_id
		WHERE c.city IS NOT NULL
		GROUP BY c.city, period
		ORDER BY c.city, period
	`
	return r.querySales(ctx, query, false, freq.DateTruncField())
}

// querySales runs one of the aggregation queries and scans the rows. The
// twoDims flag selects the (name, secondary, period, total) column layout.
func (r *SalesRepository) querySales(ctx context.Context, query string, twoDims bool, args ...interface{}) ([]models.SalesRow, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales aggregation: %w", err)
	}
	defer rows.Close()

	var out []models.SalesRow
	for rows.Next() {
		var row models.SalesRow
		if twoDims {
			err = rows.Scan(&row.Name, &row.SecondaryName, &row.Period, &row.TotalSales)
		} else {
			err = rows.Scan(&row.Name, &row.Period, &row.TotalSales)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sales rows: %w", err)
	}

	return out, nil
}
