// Package config loads the platform configuration document:
//
//	{"platform": "fiware", "config": {"endpoint": "http://orion:1026/v2", "token": "..."}}
//
// Optional keys under config: service, timeout (Go duration), rate_limit
// (requests per second). NGSIADMIN_ENDPOINT, NGSIADMIN_TOKEN and
// NGSIADMIN_SERVICE override the file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "NGSIADMIN"

var (
	// ErrConfigNotFound означает, что файл конфигурации отсутствует
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrInvalidConfig означает невалидное содержимое конфигурации
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the configuration document.
type Config struct {
	Platform string       `mapstructure:"platform"`
	Client   ClientConfig `mapstructure:"config"`
}

// ClientConfig содержит параметры подключения к брокеру
type ClientConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`   // базовый адрес API, например http://orion:1026/v2
	Token     string        `mapstructure:"token"`      // значение X-Auth-Token
	Service   string        `mapstructure:"service"`    // Fiware-Service по умолчанию
	Timeout   time.Duration `mapstructure:"timeout"`    // таймаут одного запроса
	RateLimit float64       `mapstructure:"rate_limit"` // запросов в секунду, 0 - без ограничения
}

// Load reads the configuration file at path. The format is taken from the
// file extension (JSON when unknown).
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if !hasKnownExtension(path) {
		v.SetConfigType("json")
	}

	v.SetEnvPrefix(EnvPrefix)
	for key, env := range map[string]string{
		"config.endpoint": "ENDPOINT",
		"config.token":    "TOKEN",
		"config.service":  "SERVICE",
	} {
		if err := v.BindEnv(key, EnvPrefix+"_"+env); err != nil {
			return nil, fmt.Errorf("failed to bind env: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Client.Endpoint = strings.TrimRight(cfg.Client.Endpoint, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the connection parameters. An empty token is allowed:
// the CLI may prompt for it.
func (c *Config) Validate() error {
	if c.Client.Endpoint == "" {
		return fmt.Errorf("%w: config.endpoint is required", ErrInvalidConfig)
	}

	u, err := url.Parse(c.Client.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: config.endpoint: %v", ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: config.endpoint must be an http(s) URL", ErrInvalidConfig)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: config.endpoint has no host", ErrInvalidConfig)
	}

	if c.Client.Timeout < 0 {
		return fmt.Errorf("%w: config.timeout must not be negative", ErrInvalidConfig)
	}
	if c.Client.RateLimit < 0 {
		return fmt.Errorf("%w: config.rate_limit must not be negative", ErrInvalidConfig)
	}

	return nil
}

func hasKnownExtension(path string) bool {
	for _, ext := range viper.SupportedExts {
		if strings.HasSuffix(strings.ToLower(path), "."+ext) {
			return true
		}
	}
	return false
}
