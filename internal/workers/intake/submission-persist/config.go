// internal/workers/intake/submission-persist/config.go
package submissionpersist

import (
	"fmt"
	"time"
)

type Config struct {
	// LockTTL bounds how long an in-flight insert blocks a concurrent call for the same key.
	LockTTL time.Duration
	// DoneTTL is how long a completed key replays the stored record.
	DoneTTL time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		LockTTL: 30 * time.Second,
		DoneTTL: 24 * time.Hour,
	}
}

func (c *Config) Validate() error {
	if c.LockTTL <= 0 || c.DoneTTL <= 0 {
		return fmt.Errorf("submission persist TTLs must be positive")
	}
	return nil
}
