package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Sale      SaleConfig
}

type AppConfig struct {
	Name            string
	Env             string
	Port            string
	Debug           bool
	ShutdownTimeout time.Duration
	// StorageDriver selects "postgres" or "memory"
	StorageDriver string
}

type DatabaseConfig struct {
	Host             string
	Port             string
	Name             string
	User             string
	Password         string
	SSLMode          string
	Timezone         string
	MaxIdleConns     int
	MaxOpenConns     int
	ConnMaxLifetime  time.Duration
	StatementTimeout time.Duration
}

type JWTConfig struct {
	Secret string
	Issuer string
	Leeway time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	ReportCacheTTL time.Duration
}

// Enabled reports whether a Redis address was configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

type SaleConfig struct {
	DefaultVATPercentage  decimal.Decimal
	DefaultWarrantyMonths int
	LowStockThreshold     int
	IdempotencyTTL        time.Duration
	// IdempotencyRequired rejects POST /sales without an Idempotency-Key
	IdempotencyRequired bool
}

// Load reads .env from the working directory, then the environment
func Load() *Config {
	return LoadFile(".env")
}

// LoadFile reads configuration from path (optional) and the environment.
// Environment variables win over file values.
func LoadFile(path string) *Config {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		log.Printf("Warning: %s not found, using environment variables: %v", path, err)
	}

	setDefaults(v)

	vat, err := decimal.NewFromString(v.GetString("SALE_DEFAULT_VAT_PERCENTAGE"))
	if err != nil {
		log.Printf("Warning: invalid SALE_DEFAULT_VAT_PERCENTAGE, using 18: %v", err)
		vat = decimal.NewFromInt(18)
	}

	return &Config{
		App: AppConfig{
			Name:            v.GetString("APP_NAME"),
			Env:             v.GetString("APP_ENV"),
			Port:            v.GetString("APP_PORT"),
			Debug:           v.GetBool("APP_DEBUG"),
			ShutdownTimeout: time.Duration(v.GetInt("APP_SHUTDOWN_TIMEOUT_SECONDS")) * time.Second,
			StorageDriver:   strings.ToLower(v.GetString("STORAGE_DRIVER")),
		},
		Database: DatabaseConfig{
			Host:             v.GetString("DB_HOST"),
			Port:             v.GetString("DB_PORT"),
			Name:             v.GetString("DB_NAME"),
			User:             v.GetString("DB_USER"),
			Password:         v.GetString("DB_PASSWORD"),
			SSLMode:          v.GetString("DB_SSL_MODE"),
			Timezone:         v.GetString("DB_TIMEZONE"),
			MaxIdleConns:     v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns:     v.GetInt("DB_MAX_OPEN_CONNS"),
			ConnMaxLifetime:  time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute,
			StatementTimeout: time.Duration(v.GetInt("DB_STATEMENT_TIMEOUT_SECONDS")) * time.Second,
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			Issuer: v.GetString("JWT_ISSUER"),
			Leeway: time.Duration(v.GetInt("JWT_LEEWAY_SECONDS")) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: v.GetInt("RATE_LIMIT_DURATION"),
		},
		Redis: RedisConfig{
			Addr:           v.GetString("REDIS_ADDR"),
			Password:       v.GetString("REDIS_PASSWORD"),
			DB:             v.GetInt("REDIS_DB"),
			ReportCacheTTL: time.Duration(v.GetInt("REPORT_CACHE_TTL_SECONDS")) * time.Second,
		},
		Sale: SaleConfig{
			DefaultVATPercentage:  vat,
			DefaultWarrantyMonths: v.GetInt("SALE_DEFAULT_WARRANTY_MONTHS"),
			LowStockThreshold:     v.GetInt("SALE_LOW_STOCK_THRESHOLD"),
			IdempotencyTTL:        time.Duration(v.GetInt("IDEMPOTENCY_TTL_HOURS")) * time.Hour,
			IdempotencyRequired:   v.GetBool("IDEMPOTENCY_REQUIRED"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "machinery-pos-api")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("APP_DEBUG", true)
	v.SetDefault("APP_SHUTDOWN_TIMEOUT_SECONDS", 15)
	v.SetDefault("STORAGE_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "machinery_pos")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "Asia/Colombo")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 50)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 30)
	v.SetDefault("DB_STATEMENT_TIMEOUT_SECONDS", 15)
	v.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_LEEWAY_SECONDS", 30)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_METHODS", "")
	v.SetDefault("CORS_ALLOWED_HEADERS", "")
	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", 60)
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REPORT_CACHE_TTL_SECONDS", 60)
	v.SetDefault("SALE_DEFAULT_VAT_PERCENTAGE", "18")
	v.SetDefault("SALE_DEFAULT_WARRANTY_MONTHS", 12)
	v.SetDefault("SALE_LOW_STOCK_THRESHOLD", 5)
	v.SetDefault("IDEMPOTENCY_TTL_HOURS", 24)
	v.SetDefault("IDEMPOTENCY_REQUIRED", false)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *DatabaseConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.Timezone)
	if c.StatementTimeout > 0 {
		dsn += fmt.Sprintf(" statement_timeout=%d", c.StatementTimeout.Milliseconds())
	}
	return dsn
}
