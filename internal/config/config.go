package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/creatorkit/backend/internal/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Port           int
	Env            string
	LogLevel       string
	JWTSecret      string
	StoreDriver    string
	DatabaseURL    string
	CORSOrigins    []string
	DefaultCredits int
	FeatureCosts   *domain.FeatureCosts

	Gateway    GatewayConfig
	Generation GenerationConfig
}

// GatewayConfig configures the payment gateway client.
type GatewayConfig struct {
	BaseURL    string
	KeyID      string
	KeySecret  string
	Timeout    time.Duration
	MaxRetries uint64
}

// GenerationConfig configures the content generation backend. An empty URL serves templates only.
type GenerationConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// Development reports whether the server runs outside production.
func (c *Config) Development() bool {
	return c.Env != "production"
}

// Load reads configuration with this priority:
//  1. environment variables (GATEWAY_KEY_SECRET for gateway.key_secret)
//  2. .env in the working directory
//  3. config.yaml
//  4. built-in defaults
func Load() (*Config, error) {
	// .env is optional; real environment variables win over it
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Port:           v.GetInt("port"),
		Env:            v.GetString("app_env"),
		LogLevel:       v.GetString("log_level"),
		JWTSecret:      v.GetString("jwt_secret"),
		StoreDriver:    strings.ToLower(v.GetString("store_driver")),
		DatabaseURL:    v.GetString("database_url"),
		CORSOrigins:    splitList(v.GetString("cors_origins")),
		DefaultCredits: v.GetInt("default_credits"),
		Gateway: GatewayConfig{
			BaseURL:    v.GetString("gateway.base_url"),
			KeyID:      v.GetString("gateway.key_id"),
			KeySecret:  v.GetString("gateway.key_secret"),
			Timeout:    v.GetDuration("gateway.timeout"),
			MaxRetries: v.GetUint64("gateway.max_retries"),
		},
		Generation: GenerationConfig{
			URL:     v.GetString("generation.url"),
			APIKey:  v.GetString("generation.api_key"),
			Timeout: v.GetDuration("generation.timeout"),
		},
	}

	costs, err := loadFeatureCosts(v)
	if err != nil {
		return nil, err
	}
	cfg.FeatureCosts = costs

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 4001)
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("store_driver", DriverPostgres)
	v.SetDefault("cors_origins", "http://localhost:3000")
	v.SetDefault("default_credits", domain.DefaultCredits)
	v.SetDefault("gateway.timeout", 10*time.Second)
	v.SetDefault("gateway.max_retries", 2)
	v.SetDefault("generation.timeout", 30*time.Second)
}

// loadFeatureCosts merges the feature_costs map from the config file over the built-in table.
func loadFeatureCosts(v *viper.Viper) (*domain.FeatureCosts, error) {
	costs := domain.DefaultFeatureCosts()
	var overrides map[string]int
	if err := v.UnmarshalKey("feature_costs", &overrides); err != nil {
		return nil, fmt.Errorf("feature_costs: %w", err)
	}
	for name, cost := range overrides {
		costs[name] = cost
	}
	table, err := domain.NewFeatureCosts(costs)
	if err != nil {
		return nil, fmt.Errorf("feature_costs: %w", err)
	}
	return table, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StoreDriver)
	}
	if c.Gateway.KeySecret == "" {
		return fmt.Errorf("GATEWAY_KEY_SECRET is required")
	}
	if c.DefaultCredits < 0 {
		return fmt.Errorf("DEFAULT_CREDITS must be non-negative, got %d", c.DefaultCredits)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
