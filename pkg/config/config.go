// Package config provides configuration management for the Sellsy bridge.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Sellsy  SellsyConfig
	Ledger  LedgerConfig
	Webhook WebhookConfig
	Debug   bool
}

// SellsyConfig represents the Sellsy API configuration. The four token
// values are required; everything else has a default.
type SellsyConfig struct {
	ConsumerToken  string
	ConsumerSecret string
	UserToken      string
	UserSecret     string

	Endpoint        string
	DefaultCurrency string
	DefaultVATRate  float64
}

// LedgerConfig represents the local sync-ledger configuration.
type LedgerConfig struct {
	DBPath string
}

// WebhookConfig represents the webhook listener configuration.
type WebhookConfig struct {
	Addr string
}

// Load loads configuration from environment variables. It automatically
// loads a .env file from the current directory if available; a custom .env
// path can be given instead.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	vatRate, err := parseFloatEnv("SELLSY_DEFAULT_VAT_RATE", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid SELLSY_DEFAULT_VAT_RATE: %w", err)
	}

	config := &Config{
		Sellsy: SellsyConfig{
			ConsumerToken:   os.Getenv("SELLSY_CONSUMER_TOKEN"),
			ConsumerSecret:  os.Getenv("SELLSY_CONSUMER_SECRET"),
			UserToken:       os.Getenv("SELLSY_USER_TOKEN"),
			UserSecret:      os.Getenv("SELLSY_USER_SECRET"),
			Endpoint:        getEnvOrDefault("SELLSY_API_URL", "https://apifeed.sellsy.com/0/"),
			DefaultCurrency: getEnvOrDefault("SELLSY_DEFAULT_CURRENCY", "EUR"),
			DefaultVATRate:  vatRate,
		},
		Ledger: LedgerConfig{
			DBPath: getEnvOrDefault("LEDGER_DB_PATH", "./data/sellsy-bridge.db"),
		},
		Webhook: WebhookConfig{
			Addr: getEnvOrDefault("WEBHOOK_ADDR", ":8080"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate checks that every required credential is set.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"SELLSY_CONSUMER_TOKEN", c.Sellsy.ConsumerToken},
		{"SELLSY_CONSUMER_SECRET", c.Sellsy.ConsumerSecret},
		{"SELLSY_USER_TOKEN", c.Sellsy.UserToken},
		{"SELLSY_USER_SECRET", c.Sellsy.UserSecret},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s\nPlease check your .env file or environment variables", strings.Join(missing, ", "))
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseFloatEnv parses a float from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value for %s: %s", key, value)
	}

	return parsed, nil
}
