package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every environment-driven setting of the API.
type Config struct {
	Port    string `envconfig:"PORT" default:"8080"`
	GinMode string `envconfig:"GIN_MODE" default:"release"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"storefront"`

	JWTSecret   string   `envconfig:"JWT_SECRET" required:"true"`
	AdminAPIKey string   `envconfig:"ADMIN_API_KEY"`
	LogLevel    string   `envconfig:"LOG_LEVEL" default:"info"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	GatewayFormURL     string        `envconfig:"GATEWAY_FORM_URL" default:"https://rc-epay.esewa.com.np/api/epay/main/v2/form"`
	GatewayVerifyURL   string        `envconfig:"GATEWAY_VERIFY_URL" default:"https://rc-epay.esewa.com.np/api/epay/transaction/status"`
	GatewayProductCode string        `envconfig:"GATEWAY_PRODUCT_CODE" default:"EPAYTEST"`
	GatewaySecretKey   string        `envconfig:"GATEWAY_SECRET_KEY" default:"8gBm/:&EnhH.1/q"`
	GatewaySuccessURL  string        `envconfig:"GATEWAY_SUCCESS_URL" default:"http://localhost:8080/payment/gateway/success"`
	GatewayFailureURL  string        `envconfig:"GATEWAY_FAILURE_URL" default:"http://localhost:8080/payment/gateway/failure"`
	GatewayTimeout     time.Duration `envconfig:"GATEWAY_TIMEOUT" default:"10s"`
	Currency           string        `envconfig:"CURRENCY" default:"NPR"`

	KafkaBrokers    []string `envconfig:"KAFKA_BROKERS"`
	KafkaOrderTopic string   `envconfig:"KAFKA_ORDER_TOPIC" default:"orders"`

	OrderNumberAttempts uint64 `envconfig:"ORDER_NUMBER_ATTEMPTS" default:"5"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("load config: JWT_SECRET must not be empty")
	}
	if cfg.OrderNumberAttempts == 0 {
		return nil, fmt.Errorf("load config: ORDER_NUMBER_ATTEMPTS must be at least 1")
	}
	return &cfg, nil
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from DB_*.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort,
	)
}

// KafkaEnabled reports whether at least one non-empty broker address is configured.
func (c *Config) KafkaEnabled() bool {
	for _, b := range c.KafkaBrokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}
