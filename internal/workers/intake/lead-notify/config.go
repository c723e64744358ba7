// internal/workers/intake/lead-notify/config.go
package leadnotify

import (
	"fmt"
	"time"

	"quote-intake/internal/common/config"
)

type Config struct {
	EmailEnabled   bool
	FromEmail      string
	OfficeEmail    string
	SMSEnabled     bool
	OfficePhone    string
	CRMEnabled     bool
	ProcessEnabled bool
	ProcessID      string
	Timeout        time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		ProcessID: "demolition-lead-followup",
		Timeout:   30 * time.Second,
	}
}

func LoadConfig(cfg *config.Config) *Config {
	c := DefaultConfig()
	aws := cfg.Integrations.AWS
	c.EmailEnabled = aws.SES.Enabled
	c.FromEmail = aws.SES.FromEmail
	c.OfficeEmail = aws.SES.OfficeEmail
	c.SMSEnabled = aws.SNS.Enabled
	c.OfficePhone = aws.SNS.OfficePhone
	c.CRMEnabled = cfg.Integrations.Zoho.Enabled
	c.ProcessEnabled = cfg.Camunda.Enabled
	if cfg.Camunda.ProcessID != "" {
		c.ProcessID = cfg.Camunda.ProcessID
	}
	return c
}

func (c *Config) Validate() error {
	if c.EmailEnabled && (c.FromEmail == "" || c.OfficeEmail == "") {
		return fmt.Errorf("lead email requires from and office addresses")
	}
	if c.SMSEnabled && c.OfficePhone == "" {
		return fmt.Errorf("lead SMS requires an office phone")
	}
	if c.ProcessEnabled && c.ProcessID == "" {
		return fmt.Errorf("lead follow-up requires a process id")
	}
	return nil
}
