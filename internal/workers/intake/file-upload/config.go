// internal/workers/intake/file-upload/config.go
package fileupload

import (
	"fmt"
	"strings"

	"quote-intake/internal/common/config"
)

type Config struct {
	KeyPrefix      string
	MaxConcurrency int
}

func DefaultConfig() *Config {
	return &Config{
		KeyPrefix:      "quote-uploads",
		MaxConcurrency: 4,
	}
}

func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	if p := strings.Trim(cfg.Integrations.AWS.S3.KeyPrefix, "/"); p != "" {
		c.KeyPrefix = p
	}
	return c
}

func (c *Config) Validate() error {
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("upload concurrency must be positive")
	}
	return nil
}
