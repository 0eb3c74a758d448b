package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"
)

type Config struct {
	ServiceName string
	Environment string
	HTTPPort    int

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBTimezone string

	JWTSecret string
	JWTExpiry time.Duration

	LogFile       string
	LogLevel      string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	LogStdout     bool

	CORSOrigins []string

	// MaintenanceDueWindow is how far ahead a scheduled service counts as due.
	MaintenanceDueWindow time.Duration
	// TrackLimit caps the number of points returned for a driver trail.
	TrackLimit int
}

// Load reads configuration from the environment, after loading .env if one
// exists in the working directory.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, relying on environment variables")
	}

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getEnv("SERVICE_NAME", "fleet_dispatch"))
	cfg.Environment = cast.ToString(getEnv("ENVIRONMENT", "development"))
	cfg.HTTPPort = cast.ToInt(getEnv("HTTP_PORT", 8080))

	cfg.DBHost = cast.ToString(getEnv("DB_HOST", "localhost"))
	cfg.DBPort = cast.ToString(getEnv("DB_PORT", "5432"))
	cfg.DBUser = cast.ToString(getEnv("DB_USER", "postgres"))
	cfg.DBPassword = cast.ToString(getEnv("DB_PASSWORD", "password"))
	cfg.DBName = cast.ToString(getEnv("DB_NAME", "fleet"))
	cfg.DBSSLMode = cast.ToString(getEnv("DB_SSLMODE", "disable"))
	cfg.DBTimezone = cast.ToString(getEnv("DB_TIMEZONE", "UTC"))

	cfg.JWTSecret = cast.ToString(getEnv("JWT_SECRET", "supersecret"))
	cfg.JWTExpiry = cast.ToDuration(getEnv("JWT_EXPIRY", "72h"))

	cfg.LogFile = cast.ToString(getEnv("LOG_FILE", "./logs/app.log"))
	cfg.LogLevel = cast.ToString(getEnv("LOG_LEVEL", "debug"))
	cfg.LogMaxSizeMB = cast.ToInt(getEnv("LOG_MAX_SIZE_MB", 10))
	cfg.LogMaxBackups = cast.ToInt(getEnv("LOG_MAX_BACKUPS", 7))
	cfg.LogMaxAgeDays = cast.ToInt(getEnv("LOG_MAX_AGE_DAYS", 7))
	cfg.LogCompress = cast.ToBool(getEnv("LOG_COMPRESS", true))
	cfg.LogStdout = cast.ToBool(getEnv("LOG_STDOUT", false))

	cfg.CORSOrigins = splitList(cast.ToString(getEnv("CORS_ORIGINS", "*")))

	cfg.MaintenanceDueWindow = cast.ToDuration(getEnv("MAINTENANCE_DUE_WINDOW", "168h"))
	cfg.TrackLimit = cast.ToInt(getEnv("TRACK_LIMIT", 500))

	return cfg
}

// DSN builds the PostgreSQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimezone,
	)
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key string, defaultValue interface{}) interface{} {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
