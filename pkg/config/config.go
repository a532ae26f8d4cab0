// Package config loads service configuration from an optional YAML file with
// environment overrides under the OPS_AGENT prefix.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Server struct {
	Addr            string        `mapstructure:"addr"`
	APIKey          string        `mapstructure:"api_key"`
	RatePerSecond   float64       `mapstructure:"rate_per_second"`
	RateBurst       int           `mapstructure:"rate_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type Scan struct {
	Workers      int           `mapstructure:"workers"`
	Regions      []string      `mapstructure:"regions"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollAttempts int           `mapstructure:"poll_attempts"`
}

type Remediation struct {
	TokenTTL time.Duration `mapstructure:"token_ttl"`
}

type Chat struct {
	ModelID       string `mapstructure:"model_id"`
	Region        string `mapstructure:"region"`
	MaxMessageLen int    `mapstructure:"max_message_len"`
}

type Org struct {
	RoleName            string `mapstructure:"role_name"`
	ManagementAccountID string `mapstructure:"management_account_id"`
}

type Config struct {
	Profile     string      `mapstructure:"profile"`
	Server      Server      `mapstructure:"server"`
	Scan        Scan        `mapstructure:"scan"`
	Remediation Remediation `mapstructure:"remediation"`
	Chat        Chat        `mapstructure:"chat"`
	Org         Org         `mapstructure:"org"`
}

// Load reads configuration from path (optional; "" skips the file) and the
// OPS_AGENT_* environment, applying defaults for everything unset.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Keys without a meaningful default still need to be registered so
	// AutomaticEnv can populate them through Unmarshal.
	v.SetDefault("profile", "")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.rate_per_second", 0.5)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("scan.workers", 8)
	// Empty means discover enabled regions at startup.
	v.SetDefault("scan.regions", []string{})
	v.SetDefault("scan.poll_interval", 2*time.Second)
	v.SetDefault("scan.poll_attempts", 150)
	v.SetDefault("remediation.token_ttl", 5*time.Minute)
	v.SetDefault("chat.model_id", "us.anthropic.claude-haiku-4-5-20251001-v1:0")
	v.SetDefault("chat.region", "us-east-1")
	v.SetDefault("chat.max_message_len", 4000)
	v.SetDefault("org.role_name", "OrganizationAccountAccessRole")
	v.SetDefault("org.management_account_id", "")

	v.SetEnvPrefix("OPS_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
