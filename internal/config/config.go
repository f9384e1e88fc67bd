package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName            string        `mapstructure:"app_name"`
	Env                string        `mapstructure:"app_env"`
	LogLevel           string        `mapstructure:"log_level"`
	BaseURL            string        `mapstructure:"weixin_base_url"`
	HTTPTimeoutSeconds int64         `mapstructure:"http_timeout_seconds"`
	HTTPTimeout        time.Duration `mapstructure:"-"`

	SecretStore string `mapstructure:"secret_store"`
	BBoltPath   string `mapstructure:"bbolt_path"`
	// Apps lists appid=secret pairs separated by commas; never logged.
	Apps string `mapstructure:"weixin_apps" json:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "weixin-sdk")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("weixin_base_url", "https://api.weixin.qq.com")
	v.SetDefault("http_timeout_seconds", 15)
	v.SetDefault("secret_store", "static")
	v.SetDefault("bbolt_path", "./data/secrets.db")
	v.SetDefault("weixin_apps", "")
	v.SetDefault("publishers_file", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid http_timeout_seconds (must be positive seconds)")
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	cfg.SecretStore = strings.ToLower(strings.TrimSpace(cfg.SecretStore))
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("weixin_base_url is empty")
	}

	return &cfg, nil
}
