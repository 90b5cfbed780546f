package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string         `mapstructure:"environment"`
	LogLevel    string         `mapstructure:"log_level"`
	Server      ServerConfig   `mapstructure:"server"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
	Forecast    ForecastConfig `mapstructure:"forecast"`
	Insights    InsightsConfig `mapstructure:"insights"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	APIKey         string   `mapstructure:"api_key" json:"-" yaml:"-"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ForecastConfig holds request-level defaults for the forecasting endpoints.
type ForecastConfig struct {
	DefaultHorizon int `mapstructure:"default_horizon"`
	MaxHorizon     int `mapstructure:"max_horizon"`
}

// InsightsConfig holds settings for the LLM forecast analyzer.
type InsightsConfig struct {
	APIKey   string `mapstructure:"api_key" json:"-" yaml:"-"`
	Model    string `mapstructure:"model"`
	CacheTTL string `mapstructure:"cache_ttl"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("insights.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := viper.BindEnv("server.api_key", "API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind API_KEY environment variable: %w", err)
	}

	// Read config file; missing files fall back to defaults and env vars
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)

	if config.Forecast.DefaultHorizon < 1 {
		return nil, fmt.Errorf("forecast default_horizon must be positive, got %d", config.Forecast.DefaultHorizon)
	}
	if config.Forecast.MaxHorizon < config.Forecast.DefaultHorizon {
		return nil, fmt.Errorf("forecast max_horizon (%d) must be >= default_horizon (%d)",
			config.Forecast.MaxHorizon, config.Forecast.DefaultHorizon)
	}

	return &config, nil
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.api_key", "")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.dbname", "northwind")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.database_url", "")

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Forecast
	viper.SetDefault("forecast.default_horizon", 3)
	viper.SetDefault("forecast.max_horizon", 36)

	// Insights
	viper.SetDefault("insights.api_key", "")
	viper.SetDefault("insights.model", "gpt-4o-mini")
	viper.SetDefault("insights.cache_ttl", "1h")
}
