package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendSharePoint = "sharepoint"
	BackendPostgres   = "postgres"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	SharePoint SharePointConfig
	Dashboard  DashboardConfig
	Reminder   ReminderConfig
	App        AppConfig
	Schema     ListSchema
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	DraftTTL time.Duration
}

type SharePointConfig struct {
	SiteURL      string
	TenantID     string
	ClientID     string
	ClientSecret string
	TokenURL     string
	RatePerSec   int
	Burst        int
	Timeout      time.Duration
}

type DashboardConfig struct {
	FeedSize      int
	AllocationTop int
}

type ReminderConfig struct {
	Enabled        bool
	Cron           string
	StaleAfterDays int
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
	Backend     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "projectstatus"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			DraftTTL: time.Duration(getEnvAsInt("DRAFT_TTL_HOURS", 24)) * time.Hour,
		},
		SharePoint: SharePointConfig{
			SiteURL:      strings.TrimRight(getEnv("SP_SITE_URL", ""), "/"),
			TenantID:     getEnv("SP_TENANT_ID", ""),
			ClientID:     getEnv("SP_CLIENT_ID", ""),
			ClientSecret: getEnv("SP_CLIENT_SECRET", ""),
			TokenURL:     getEnv("SP_TOKEN_URL", ""),
			RatePerSec:   getEnvAsInt("SP_RATE_PER_SEC", 10),
			Burst:        getEnvAsInt("SP_RATE_BURST", 20),
			Timeout:      time.Duration(getEnvAsInt("SP_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Dashboard: DashboardConfig{
			FeedSize:      getEnvAsInt("DASHBOARD_FEED_SIZE", 8),
			AllocationTop: getEnvAsInt("DASHBOARD_ALLOCATION_TOP", 5),
		},
		Reminder: ReminderConfig{
			Enabled:        getEnvAsBool("REMINDER_ENABLED", false),
			Cron:           getEnv("REMINDER_CRON", "0 0 8 * * MON"),
			StaleAfterDays: getEnvAsInt("STALE_AFTER_DAYS", 14),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Backend:     strings.ToLower(getEnv("LIST_BACKEND", BackendSharePoint)),
		},
		Schema: DefaultListSchema(),
	}

	if path := getEnv("LIST_SCHEMA_PATH", ""); path != "" {
		if err := loadSchemaFile(path, &cfg.Schema); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.App.Backend {
	case BackendSharePoint:
		if c.SharePoint.SiteURL == "" {
			return fmt.Errorf("SP_SITE_URL is required for the sharepoint backend")
		}
		if c.SharePoint.ClientID != "" && (c.SharePoint.TenantID == "" && c.SharePoint.TokenURL == "" || c.SharePoint.ClientSecret == "") {
			return fmt.Errorf("SP_TENANT_ID (or SP_TOKEN_URL) and SP_CLIENT_SECRET are required when SP_CLIENT_ID is set")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("DB_HOST is required")
		}
	default:
		return fmt.Errorf("LIST_BACKEND must be %q or %q, got %q", BackendSharePoint, BackendPostgres, c.App.Backend)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("REDIS_ADDR is required")
	}

	return c.Schema.Validate()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean for %s, using default: %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
