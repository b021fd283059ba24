// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port      int `yaml:"port"`       // public buyer-facing API
	AdminPort int `yaml:"admin_port"` // admin RPC API
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL        string        `yaml:"url"`
	Password   string        `yaml:"password"`
	DB         int           `yaml:"db"`
	SessionTTL time.Duration `yaml:"session_ttl"` // checkout session snapshot TTL
}

type StripeConfig struct {
	SecretKey  string `yaml:"secret_key"`
	BaseURL    string `yaml:"base_url"` // override for sandbox/tests
	SuccessURL string `yaml:"success_url"`
	CancelURL  string `yaml:"cancel_url"`
}

type BTCPayConfig struct {
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
	StoreID  string `yaml:"store_id"`
	Currency string `yaml:"currency"`
}

type PaymentConfig struct {
	Stripe StripeConfig `yaml:"stripe"`
	BTCPay BTCPayConfig `yaml:"btcpay"`

	PollInterval time.Duration `yaml:"poll_interval"` // transaction status poll tick
	PollCeiling  time.Duration `yaml:"poll_ceiling"`  // absolute polling ceiling
}

type LeadsConfig struct {
	Workers int `yaml:"workers"` // detached lead-recording workers

	// When CRMEndpoint is set leads are forwarded to the external CRM;
	// otherwise they are stored locally.
	CRMEndpoint string `yaml:"crm_endpoint"`
	CRMAPIKey   string `yaml:"crm_api_key"`
}

type AdminConfig struct {
	APIKey     string        `yaml:"api_key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Leads    LeadsConfig    `yaml:"leads"`
	Admin    AdminConfig    `yaml:"admin"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file, then applies environment overrides for the
// secrets that should not live in the file. A local .env is loaded first when
// present so dev setups work without exporting anything.
func LoadConfig(path string, dev bool) (*Config, error) {
	_ = godotenv.Load() // best-effort; absence of .env is fine

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.HTTP.AdminPort == 0 {
		cfg.HTTP.AdminPort = 8081
	}
	if cfg.Redis.SessionTTL <= 0 {
		cfg.Redis.SessionTTL = 24 * time.Hour
	}
	if cfg.Payment.PollInterval <= 0 {
		cfg.Payment.PollInterval = 5 * time.Second
	}
	if cfg.Payment.PollCeiling <= 0 {
		cfg.Payment.PollCeiling = 30 * time.Minute
	}
	if cfg.Leads.Workers <= 0 {
		cfg.Leads.Workers = 4
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Admin.APIKey == "" {
		return nil, errors.New("admin.api_key is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("STRIPE_SECRET_KEY"); v != "" {
		cfg.Payment.Stripe.SecretKey = v
	}
	if v := os.Getenv("BTCPAY_API_KEY"); v != "" {
		cfg.Payment.BTCPay.APIKey = v
	}
	if v := os.Getenv("CRM_API_KEY"); v != "" {
		cfg.Leads.CRMAPIKey = v
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		cfg.Admin.APIKey = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Admin.JWTSecret = v
	}
}
