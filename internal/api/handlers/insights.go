package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/insights"
)

// ForecastAnalyzer is the analysis surface the handler consumes.
// *insights.Analyzer satisfies it.
type ForecastAnalyzer interface {
	Analyze(ctx context.Context, payload map[string]interface{}) (*insights.Analysis, bool, error)
}

// InsightsHandler serves the LLM forecast-analysis endpoint.
type InsightsHandler struct {
	analyzer ForecastAnalyzer
}

// NewInsightsHandler creates a new insights handler. analyzer may be nil when
// no API key is configured; the endpoint then answers 503.
func NewInsightsHandler(analyzer ForecastAnalyzer) *InsightsHandler {
	return &InsightsHandler{analyzer: analyzer}
}

// ForecastAnalysis handles POST /insights/forecast_analysis. The request body
// is a forecast response as produced by the forecasting endpoints.
func (h *InsightsHandler) ForecastAnalysis(c *gin.Context) {
	if h.analyzer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insights are not configured"})
		return
	}

	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must not be empty"})
		return
	}

	analysis, cached, err := h.analyzer.Analyze(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err, logrus.Fields{
			"request_id": c.GetString("request_id"),
			"endpoint":   "forecast_analysis",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"cached":   cached,
	})
}
