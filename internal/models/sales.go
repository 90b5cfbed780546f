package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SalesRow is one aggregated revenue observation for a single dimension
// value and calendar period, as returned by the repository queries.
type SalesRow struct {
	// Name is the primary dimension value (product name, customer company
	// name or city, depending on the query).
	Name string `json:"name" db:"name"`
	// SecondaryName is the secondary dimension value for two-dimensional
	// aggregations (the product name of a customer+product query); empty
	// otherwise.
	SecondaryName string `json:"secondary_name,omitempty" db:"secondary_name"`
	// Period is the truncated period start (UTC).
	Period time.Time `json:"period" db:"period"`
	// TotalSales is the summed revenue for the period:
	// unit_price * quantity * (1 - discount) over the matching order lines.
	TotalSales decimal.Decimal `json:"total_sales" db:"total_sales"`
}
