package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Upload   UploadConfig
	Email    EmailConfig
}

type DatabaseConfig struct {
	Driver            string
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	Migrate           bool
	LogLevel          string
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	BaseURL        string
	StrictStatus   bool
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret          string
	AccessTokenExpiry  time.Duration
	BcryptCost         int
	RateLimitPerMinute int
}

type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// EmailConfig enables registration notifications when FromAddress is set
type EmailConfig struct {
	FromAddress string
	AWSRegion   string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	db, err := LoadDatabase()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: *db,
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			BaseURL:        normalizeBaseURL(getEnv("BASE_URL", "http://localhost:8080/")),
			StrictStatus:   getEnvAsBool("API_STRICT_STATUS", false),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:          jwtSecret,
			AccessTokenExpiry:  getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 1*time.Hour),
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 10),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "public/uploads/users"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5<<20)),
		},
		Email: EmailConfig{
			FromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
		},
	}

	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings; used by tools that don't serve HTTP
func LoadDatabase() (*DatabaseConfig, error) {
	_ = godotenv.Load()

	driver := strings.ToLower(getEnv("DB_DRIVER", DriverPostgres))
	defaultPort := 5432
	switch driver {
	case DriverPostgres:
	case DriverMySQL:
		defaultPort = 3306
	default:
		return nil, fmt.Errorf("DB_DRIVER must be %q or %q (got %q)", DriverPostgres, DriverMySQL, driver)
	}

	cfg := &DatabaseConfig{
		Driver:            driver,
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvAsInt("DB_PORT", defaultPort),
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "accounts"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
		MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
		MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		Migrate:           getEnvAsBool("DB_MIGRATE", true),
		LogLevel:          getEnv("DB_LOG_LEVEL", "warn"),
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	return nil
}

// DSN returns the connection string for the configured driver
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverMySQL {
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
			c.User, c.Password, c.Host, c.Port, c.Name,
		)
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

// normalizeBaseURL guarantees a trailing slash so paths can be appended directly
func normalizeBaseURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw
}

func parseAllowedOrigins(env string) []string {
	originsStr := getEnv("ALLOWED_ORIGINS", "")
	if originsStr != "" {
		var origins []string
		for _, origin := range strings.Split(originsStr, ",") {
			if origin = strings.TrimRight(strings.TrimSpace(origin), "/"); origin != "" {
				origins = append(origins, origin)
			}
		}
		return origins
	}

	if env == "production" {
		return []string{}
	}

	return []string{
		"http://localhost:3000",
		"http://localhost:4200",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:4200",
		"http://127.0.0.1:5173",
	}
}
