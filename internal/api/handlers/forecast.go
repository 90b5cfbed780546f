package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/config"
	"github.com/salescast/salescast-api/internal/forecast"
	"github.com/salescast/salescast-api/internal/services"
	"github.com/salescast/salescast-api/internal/timeseries"
	"github.com/salescast/salescast-api/internal/utils"
)

// ForecastService is the forecasting surface the handler consumes.
// *services.ForecastService satisfies it.
type ForecastService interface {
	ProductForecast(ctx context.Context, productName string, req services.ForecastRequest) (map[string]interface{}, error)
	CustomerForecast(ctx context.Context, customerName, productName string, req services.ForecastRequest) (map[string]interface{}, error)
	CityForecast(ctx context.Context, cityName string, req services.ForecastRequest) (map[string]interface{}, error)
}

// ForecastHandler serves the per-dimension sales forecast endpoints.
type ForecastHandler struct {
	service  ForecastService
	defaults config.ForecastConfig
}

// NewForecastHandler creates a new forecast handler.
func NewForecastHandler(service ForecastService, defaults config.ForecastConfig) *ForecastHandler {
	return &ForecastHandler{service: service, defaults: defaults}
}

// ProductSalesForecast handles GET /data_forecast/sales/product_sales_forecast.
func (h *ForecastHandler) ProductSalesForecast(c *gin.Context) {
	name, ok := requiredQuery(c, "product_name")
	if !ok {
		return
	}
	req, err := h.parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.ProductForecast(c.Request.Context(), name, req)
	if err != nil {
		respondError(c, err, forecastFields(c, req, "product", name))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CustomerSalesForecast handles GET /data_forecast/sales/customer_sales_forecast.
// product_name optionally narrows the series to one product of the customer.
func (h *ForecastHandler) CustomerSalesForecast(c *gin.Context) {
	name, ok := requiredQuery(c, "customer_name")
	if !ok {
		return
	}
	req, err := h.parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.CustomerForecast(c.Request.Context(), name, c.Query("product_name"), req)
	if err != nil {
		respondError(c, err, forecastFields(c, req, "customer", name))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CityWiseForecast handles GET /data_forecast/sales/city_wise_forecast.
func (h *ForecastHandler) CityWiseForecast(c *gin.Context) {
	name, ok := requiredQuery(c, "city_name")
	if !ok {
		return
	}
	req, err := h.parseOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.CityForecast(c.Request.Context(), name, req)
	if err != nil {
		respondError(c, err, forecastFields(c, req, "city", name))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// parseOptions validates the forecasting query parameters shared by every
// dimension endpoint, applying configured defaults.
func (h *ForecastHandler) parseOptions(c *gin.Context) (services.ForecastRequest, error) {
	req := services.ForecastRequest{Horizon: h.defaults.DefaultHorizon}

	if raw := strings.TrimSpace(c.Query("periods_ahead")); raw != "" {
		horizon, err := strconv.Atoi(raw)
		if err != nil {
			return req, utils.NewValidationErrorf("periods_ahead must be an integer, got %q", raw)
		}
		req.Horizon = horizon
	}
	if req.Horizon < 1 {
		return req, utils.NewValidationErrorf("periods_ahead must be positive, got %d", req.Horizon)
	}
	if req.Horizon > h.defaults.MaxHorizon {
		return req, utils.NewValidationErrorf("periods_ahead must not exceed %d, got %d", h.defaults.MaxHorizon, req.Horizon)
	}

	model, err := forecast.ParseModel(c.DefaultQuery("model", string(forecast.ModelAutoregressive)))
	if err != nil {
		return req, err
	}
	req.Model = model

	freq, err := timeseries.ParseFrequency(c.DefaultQuery("frequency", string(timeseries.Monthly)))
	if err != nil {
		return req, utils.NewValidationError(err.Error())
	}
	req.Frequency = freq

	return req, nil
}

// requiredQuery fetches a mandatory query parameter, answering 400 itself
// when the parameter is missing or blank.
func requiredQuery(c *gin.Context, name string) (string, bool) {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " query parameter is required"})
		return "", false
	}
	return value, true
}

func forecastFields(c *gin.Context, req services.ForecastRequest, dimension, name string) logrus.Fields {
	return logrus.Fields{
		"request_id": c.GetString("request_id"),
		"dimension":  dimension,
		"name":       name,
		"model":      string(req.Model),
		"frequency":  string(req.Frequency),
		"horizon":    req.Horizon,
	}
}
