// internal/workers/intake/address-suggest/config.go
package addresssuggest

import (
	"fmt"
	"time"

	"quote-intake/internal/common/config"
)

type Config struct {
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
	Limit    int
	CacheTTL time.Duration
	// MinQueryLength is the shortest trimmed text that reaches the remote service.
	MinQueryLength int
}

func DefaultConfig() *Config {
	return &Config{
		BaseURL:        "https://api.geoapify.com/v1/geocode/autocomplete",
		Timeout:        10 * time.Second,
		Limit:          5,
		CacheTTL:       10 * time.Minute,
		MinQueryLength: 3,
	}
}

// LoadConfig maps the apis.address_suggest section onto the handler config.
func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	api := cfg.APIs.AddressSuggest
	if api.BaseURL != "" {
		c.BaseURL = api.BaseURL
	}
	c.APIKey = api.APIKey
	if api.Timeout > 0 {
		c.Timeout = config.GetDuration(api.Timeout)
	}
	if api.Limit > 0 {
		c.Limit = api.Limit
	}
	if api.CacheTTL > 0 {
		c.CacheTTL = config.GetDuration(api.CacheTTL)
	}
	return c
}

func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("address suggest base URL is required")
	}
	if c.Limit <= 0 {
		return fmt.Errorf("address suggest limit must be positive")
	}
	return nil
}
