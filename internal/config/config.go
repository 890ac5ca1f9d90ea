// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type AuthConfig struct {
	// Clerk is optional; local credentials sign-in always works.
	ClerkSecretKey string `yaml:"-"`
	// Trust X-Forwarded-For when resolving client IPs for login throttling.
	TrustProxy bool `yaml:"trust_proxy"`
}

type EmailConfig struct {
	Sender          string `yaml:"sender"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

// Enabled reports whether SES delivery is fully configured.
func (e EmailConfig) Enabled() bool {
	return e.Sender != "" && e.Region != "" && e.AccessKeyID != "" && e.SecretAccessKey != ""
}

const DefaultNotificationRetentionDays = 30

type SchedulerConfig struct {
	SweepCron string `yaml:"sweep_cron"`
	// Nil means unset. An explicit 0 turns the retention sweep off.
	NotificationRetentionDays *int `yaml:"notification_retention_days"`
}

// RetentionDays is the configured retention, or the default when unset.
func (s SchedulerConfig) RetentionDays() int {
	if s.NotificationRetentionDays == nil {
		return DefaultNotificationRetentionDays
	}
	return *s.NotificationRetentionDays
}

type secrets struct {
	SecretKey       string `env:"APP_SECRET_KEY"`
	ClerkSecretKey  string `env:"CLERK_SECRET_KEY"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML config and overlays secrets from the environment.
// Defaults are applied but the result is not validated.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	var s secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	cfg.App.SecretKey = s.SecretKey
	cfg.Auth.ClerkSecretKey = s.ClerkSecretKey
	cfg.Email.AccessKeyID = s.AccessKeyID
	cfg.Email.SecretAccessKey = s.SecretAccessKey

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Scheduler.SweepCron == "" {
		c.Scheduler.SweepCron = "0 3 * * *"
	}
	if c.Scheduler.NotificationRetentionDays == nil {
		days := DefaultNotificationRetentionDays
		c.Scheduler.NotificationRetentionDays = &days
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.App.SecretKey == "" {
		return fmt.Errorf("APP_SECRET_KEY is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := cron.ParseStandard(c.Scheduler.SweepCron); err != nil {
		return fmt.Errorf("invalid scheduler sweep_cron %q: %w", c.Scheduler.SweepCron, err)
	}
	if c.Scheduler.RetentionDays() < 0 {
		return fmt.Errorf("notification_retention_days must be 0 or greater")
	}

	return nil
}

// IsDevelopment reports whether the app runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c != nil && c.App.Environment == "development"
}
