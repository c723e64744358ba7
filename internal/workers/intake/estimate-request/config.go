// internal/workers/intake/estimate-request/config.go
package estimaterequest

import (
	"fmt"
	"strings"
	"time"

	"quote-intake/internal/common/config"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		Timeout:    15 * time.Second,
		MaxRetries: 1,
		RetryDelay: 100 * time.Millisecond,
	}
}

func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	api := cfg.APIs.Estimate
	c.BaseURL = strings.TrimRight(api.BaseURL, "/")
	c.APIKey = api.APIKey
	if api.Timeout > 0 {
		c.Timeout = config.GetDuration(api.Timeout)
	}
	if api.MaxRetries > 0 {
		c.MaxRetries = api.MaxRetries
	}
	return c
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("estimate base URL is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("estimate timeout must be positive")
	}
	return nil
}
