package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the API reads from the environment.
type Config struct {
	AppName     string
	Port        string
	Environment string
	LogLevel    string

	DatabaseURL string
	DBHost      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBPort      string
	DBTimeZone  string

	JWTSecret   string
	JWTTTLHours int

	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	DashboardCacheTTL time.Duration

	DefaultLocale  string
	SessionSecret  string // base64 AES key for cookie encryption; empty disables it
	AllowedOrigins string
	CompanySIREN   string

	AdminEmail    string
	AdminPassword string
}

// Load reads the configuration. Callers are expected to have run godotenv.Load first.
func Load() Config {
	jwtTTL, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || jwtTTL < 1 {
		jwtTTL = 24
	}
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	cacheTTL, err := strconv.Atoi(getEnv("DASHBOARD_CACHE_TTL_SECONDS", "60"))
	if err != nil || cacheTTL < 0 {
		cacheTTL = 60
	}

	return Config{
		AppName:     getEnv("APP_NAME", "ERP Backend v1.0"),
		Port:        getEnv("PORT", "3000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnv("DB_NAME", "erp"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBTimeZone:  getEnv("DB_TIMEZONE", "UTC"),

		JWTSecret:   getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		JWTTTLHours: jwtTTL,

		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		DashboardCacheTTL: time.Duration(cacheTTL) * time.Second,

		DefaultLocale:  getEnv("DEFAULT_LOCALE", "en"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),
		CompanySIREN:   getEnv("COMPANY_SIREN", "000000000"),

		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@example.com"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

// DSN returns DATABASE_URL when set, otherwise a postgres keyword DSN built from the DB_* parts.
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBTimeZone,
	)
}

func (c Config) Address() string {
	return ":" + c.Port
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
