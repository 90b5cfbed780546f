package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/salescast/salescast-api/internal/api"
	"github.com/salescast/salescast-api/internal/api/handlers"
	"github.com/salescast/salescast-api/internal/config"
	"github.com/salescast/salescast-api/internal/database"
	"github.com/salescast/salescast-api/internal/insights"
	"github.com/salescast/salescast-api/internal/logging"
	"github.com/salescast/salescast-api/internal/repository"
	"github.com/salescast/salescast-api/internal/services"
)

func main() {
	// .env files are optional; real environments set variables directly
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logging.Setup(cfg.LogLevel, cfg.Environment)

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redis.Close()

	repo := repository.NewSalesRepository(db.Pool)
	forecastService := services.NewForecastService(repo)
	reportService := services.NewReportService(repo, repo)
	analyzer := newAnalyzer(cfg, redis)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, api.Dependencies{
		Config:   cfg,
		DB:       db,
		Redis:    redis,
		Forecast: forecastService,
		Report:   reportService,
		Analyzer: analyzer,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("Server starting on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

// newAnalyzer wires the LLM analyzer when an API key is configured; without
// one the insights endpoint reports itself unavailable.
func newAnalyzer(cfg *config.Config, redis *database.RedisClient) handlers.ForecastAnalyzer {
	if cfg.Insights.APIKey == "" {
		logrus.Warn("Insights disabled: no API key configured")
		return nil
	}

	ttl, err := time.ParseDuration(cfg.Insights.CacheTTL)
	if err != nil {
		logrus.Warnf("Invalid insights cache_ttl %q, using 1h", cfg.Insights.CacheTTL)
		ttl = time.Hour
	}

	client := openai.NewClient(cfg.Insights.APIKey)
	return insights.NewAnalyzer(client, redis, cfg.Insights.Model, ttl)
}
