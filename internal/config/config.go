// Package config loads service settings from the environment, with an optional .env file.
package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the service reads at startup.
type Config struct {
	AppPort             string
	DatabaseDriver      string
	DatabaseDSN         string
	JWTSecret           string
	RabbitMQURL         string
	PaystackBaseURL     string
	PaystackSecretKey   string
	PaystackCallbackURL string
	PaystackTimeout     time.Duration
	PaymentCurrency     string
	AdminUsername       string
	AdminEmail          string
	AdminPassword       string
	SeedCatalog         bool
}

const maxGatewayTimeout = 60 * time.Second

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	v.SetDefault("PAYSTACK_SECRET_KEY", "")
	v.SetDefault("PAYSTACK_CALLBACK_URL", "")
	v.SetDefault("PAYSTACK_TIMEOUT", "10s")
	v.SetDefault("PAYMENT_CURRENCY", "NGN")
	v.SetDefault("ADMIN_USERNAME", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SEED_CATALOG", false)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}
	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds and validates a Config from v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:             v.GetString("APP_PORT"),
		DatabaseDriver:      v.GetString("DATABASE_DRIVER"),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		PaystackBaseURL:     v.GetString("PAYSTACK_BASE_URL"),
		PaystackSecretKey:   v.GetString("PAYSTACK_SECRET_KEY"),
		PaystackCallbackURL: v.GetString("PAYSTACK_CALLBACK_URL"),
		PaystackTimeout:     v.GetDuration("PAYSTACK_TIMEOUT"),
		PaymentCurrency:     v.GetString("PAYMENT_CURRENCY"),
		AdminUsername:       v.GetString("ADMIN_USERNAME"),
		AdminEmail:          v.GetString("ADMIN_EMAIL"),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		SeedCatalog:         v.GetBool("SEED_CATALOG"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DatabaseDSN == "" {
		return fmt.Errorf("DATABASE_DSN is required")
	}
	if c.PaystackSecretKey == "" {
		return fmt.Errorf("PAYSTACK_SECRET_KEY is required to call the gateway and verify webhook signatures")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite" {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.PaystackTimeout <= 0 || c.PaystackTimeout > maxGatewayTimeout {
		return fmt.Errorf("PAYSTACK_TIMEOUT must be between 0 and %s, got %s", maxGatewayTimeout, c.PaystackTimeout)
	}
	return nil
}
