package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	Port        int

	APIKey string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            int
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSynchronize     bool
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

var (
	ErrMissingValue     = errors.New("missing_config_value")
	ErrInvalidValue     = errors.New("invalid_config_value")
	ErrSyncInProduction = errors.New("database_synchronize_in_production")
)

// Load loads configuration from environment variables and .env file.
// Required values that are absent or malformed are reported as one error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var problems []error

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "coffeeshop"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		APIKey:       os.Getenv("API_KEY"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		DBType:       strings.ToLower(getenv("DATABASE_TYPE", "postgres")),
		DBHost:       strings.TrimSpace(os.Getenv("DATABASE_HOST")),
		DBName:       strings.TrimSpace(os.Getenv("DATABASE_NAME")),
		DBUser:       strings.TrimSpace(os.Getenv("DATABASE_USER")),
		DBPassword:   os.Getenv("DATABASE_PASSWORD"),
		DBSSLMode:    getenv("DATABASE_SSLMODE", "disable"),
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
	}

	collect := func(err error) {
		if err != nil {
			problems = append(problems, err)
		}
	}

	var err error
	cfg.Port, err = requireInt("PORT", 3000)
	collect(err)
	cfg.DBPort, err = requireInt("DATABASE_PORT", 5432)
	collect(err)
	cfg.DBSynchronize, err = requireBool("DATABASE_SYNCHRONIZE")
	collect(err)
	cfg.DBMaxIdleConn, err = requireInt("DATABASE_MAX_IDLE_CONN", 10)
	collect(err)
	cfg.DBMaxOpenConn, err = requireInt("DATABASE_MAX_OPEN_CONN", 25)
	collect(err)
	cfg.DBConnMaxLifetime, err = requireInt("DATABASE_CONN_MAX_LIFETIME", 300)
	collect(err)
	cfg.DBConnMaxIdleTime, err = requireInt("DATABASE_CONN_MAX_IDLE_TIME", 60)
	collect(err)
	cfg.Redis.DB, err = requireInt("REDIS_DB", 0)
	collect(err)
	cfg.RateLimit.RPS, err = requireFloat("RATE_LIMIT_RPS", 5)
	collect(err)
	cfg.RateLimit.Burst, err = requireInt("RATE_LIMIT_BURST", 20)
	collect(err)

	collect(cfg.Validate())

	if len(problems) > 0 {
		return Config{}, errors.Join(problems...)
	}
	return cfg, nil
}

// Validate checks the presence of values the service cannot start without.
func (c Config) Validate() error {
	var problems []error

	if strings.TrimSpace(c.APIKey) == "" {
		problems = append(problems, missing("API_KEY"))
	}
	if c.DBName == "" {
		problems = append(problems, missing("DATABASE_NAME"))
	}

	switch c.DBType {
	case "postgres", "mysql":
		if c.DBHost == "" {
			problems = append(problems, missing("DATABASE_HOST"))
		}
		if c.DBUser == "" {
			problems = append(problems, missing("DATABASE_USER"))
		}
		if c.DBPassword == "" {
			problems = append(problems, missing("DATABASE_PASSWORD"))
		}
	case "sqlite":
	default:
		problems = append(problems, fmt.Errorf("%w: DATABASE_TYPE %q", ErrInvalidValue, c.DBType))
	}

	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, fmt.Errorf("%w: PORT %d", ErrInvalidValue, c.Port))
	}
	if c.DBPort <= 0 || c.DBPort > 65535 {
		problems = append(problems, fmt.Errorf("%w: DATABASE_PORT %d", ErrInvalidValue, c.DBPort))
	}
	if c.DBSynchronize && c.IsProduction() {
		problems = append(problems, ErrSyncInProduction)
	}

	return errors.Join(problems...)
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func missing(key string) error {
	return fmt.Errorf("%w: %s", ErrMissingValue, key)
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func requireInt(key string, def int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be an integer", ErrInvalidValue, key)
	}
	return parsed, nil
}

func requireFloat(key string, def float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be a number", ErrInvalidValue, key)
	}
	return parsed, nil
}

func requireBool(key string) (bool, error) {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return false, missing(key)
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean", ErrInvalidValue, key)
	}
}
