package api

import (
	"github.com/gin-gonic/gin"

	"github.com/salescast/salescast-api/internal/api/handlers"
	"github.com/salescast/salescast-api/internal/config"
	"github.com/salescast/salescast-api/internal/middleware"
)

// Dependencies bundles everything the route tree needs.
type Dependencies struct {
	Config   *config.Config
	DB       handlers.Pinger
	Redis    handlers.Pinger
	Forecast handlers.ForecastService
	Report   handlers.ReportService
	Analyzer handlers.ForecastAnalyzer
}

// SetupRoutes registers the middleware chain and the full route tree.
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(deps.Config.Server.AllowedOrigins))

	health := handlers.NewHealthHandler(deps.DB, deps.Redis)
	router.GET("/health", health.Check)

	forecastHandler := handlers.NewForecastHandler(deps.Forecast, deps.Config.Forecast)
	reportHandler := handlers.NewReportHandler(deps.Report)
	insightsHandler := handlers.NewInsightsHandler(deps.Analyzer)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireAPIKey(deps.Config.Server.APIKey))
	{
		sales := v1.Group("/data_forecast/sales")
		{
			sales.GET("/product_sales_forecast", forecastHandler.ProductSalesForecast)
			sales.GET("/customer_sales_forecast", forecastHandler.CustomerSalesForecast)
			sales.GET("/city_wise_forecast", forecastHandler.CityWiseForecast)
		}

		agg := v1.Group("/data_agg")
		{
			agg.GET("/monthly_sales/product_wise", reportHandler.MonthlyProductSales)
		}

		analysis := v1.Group("/data_analysis")
		{
			analysis.GET("/table_stats", reportHandler.TableStats)
		}

		insightsGroup := v1.Group("/insights")
		{
			insightsGroup.POST("/forecast_analysis", insightsHandler.ForecastAnalysis)
		}
	}
}
