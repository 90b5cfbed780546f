package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/insights"
	"github.com/salescast/salescast-api/internal/utils"
)

// respondError maps service errors onto HTTP status codes. Client-caused
// conditions echo the sentinel message; internal faults are logged with
// request context and answered with a generic body.
func respondError(c *gin.Context, err error, fields logrus.Fields) {
	switch {
	case errors.Is(err, utils.ErrNoData):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrInsufficientHistory),
		errors.Is(err, utils.ErrUnknownModel),
		utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, insights.ErrUnavailable):
		logrus.WithFields(fields).WithError(err).Warn("Upstream analysis failure")
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis service unavailable"})
	default:
		logrus.WithFields(fields).WithError(err).Error("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
