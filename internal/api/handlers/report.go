package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/repository"
)

// ReportService is the reporting surface the handler consumes.
// *services.ReportService satisfies it.
type ReportService interface {
	MonthlyProductReport(ctx context.Context, productFilter string) (map[string]interface{}, error)
	TableStats(ctx context.Context, table string) (map[string]interface{}, error)
}

// ReportHandler serves the aggregated report and table statistics endpoints.
type ReportHandler struct {
	service ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// MonthlyProductSales handles GET /data_agg/monthly_sales/product_wise.
// Without a product_name filter the report covers every product plus an
// "All Products" roll-up row.
func (h *ReportHandler) MonthlyProductSales(c *gin.Context) {
	filter := c.Query("product_name")

	report, err := h.service.MonthlyProductReport(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"report":     "monthly_product_sales",
			"filter":     filter,
		})
		return
	}
	c.JSON(http.StatusOK, report)
}

// TableStats handles GET /data_analysis/table_stats. The table name is
// checked against the whitelist before any query runs.
func (h *ReportHandler) TableStats(c *gin.Context) {
	table, ok := requiredQuery(c, "table_name")
	if !ok {
		return
	}
	table = strings.ToLower(table)
	if !repository.AllowedTable(table) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table " + table + " is not available for analysis"})
		return
	}

	stats, err := h.service.TableStats(c.Request.Context(), table)
	if err != nil {
		respondError(c, err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"table":      table,
		})
		return
	}
	c.JSON(http.StatusOK, stats)
}
