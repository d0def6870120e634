package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Property sources the batch run can read from.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceListing  = "listing"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PropertySource    string
	PropertiesCSVPath string
	ListingURLs       []string
	PricingTablesPath string
	// PropertyID restricts a postgres run to a single property.
	PropertyID        string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	LogLevel       string

	ChromeBin string
}

// Load reads the .env file if present and returns a populated Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() *Config {
	return &Config{
		PropertySource:    strings.ToLower(getEnv("PROPERTY_SOURCE", SourceCSV)),
		PropertiesCSVPath: getEnv("PROPERTIES_CSV_PATH", "./data/properties.csv"),
		ListingURLs:       getEnvList("LISTING_URLS"),
		PricingTablesPath: getEnv("PRICING_TABLES_PATH", ""),
		PropertyID:        strings.TrimSpace(getEnv("PROPERTY_ID", "")),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "rentals"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "rentals123"),
		PostgresDB:       getEnv("POSTGRES_DB", "rental_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		LogLevel:       getEnv("LOG_LEVEL", "info"),

		ChromeBin: getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
