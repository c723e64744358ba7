// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	HTTP         HTTPConfig        `mapstructure:"http"`
	Camunda      CamundaConfig     `mapstructure:"camunda"`
	Database     DatabaseConfig    `mapstructure:"database"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
	APIs         APIsConfig        `mapstructure:"apis"`
	Wizard       WizardConfig      `mapstructure:"wizard"`
	Logging      LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Address         string   `mapstructure:"address"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

// CamundaConfig drives the lead follow-up process start. Disabled unless enabled is set.
type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	ProcessID      string `mapstructure:"process_id"`
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for storage, notification and CRM services.
type IntegrationConfig struct {
	Zoho struct {
		Enabled   bool   `mapstructure:"enabled"`
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		S3     struct {
			Bucket        string `mapstructure:"bucket"`
			KeyPrefix     string `mapstructure:"key_prefix"`
			PublicBaseURL string `mapstructure:"public_base_url"`
		} `mapstructure:"s3"`
		SES struct {
			Enabled     bool   `mapstructure:"enabled"`
			FromEmail   string `mapstructure:"from_email"`
			OfficeEmail string `mapstructure:"office_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled     bool   `mapstructure:"enabled"`
			OfficePhone string `mapstructure:"office_phone"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// APIsConfig holds settings for the remote address and estimate services.
type APIsConfig struct {
	AddressSuggest struct {
		BaseURL  string `mapstructure:"base_url"`
		APIKey   string `mapstructure:"api_key"`
		Timeout  int    `mapstructure:"timeout"` // milliseconds
		Limit    int    `mapstructure:"limit"`
		CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
	} `mapstructure:"address_suggest"`

	Estimate struct {
		BaseURL    string `mapstructure:"base_url"`
		APIKey     string `mapstructure:"api_key"`
		Timeout    int    `mapstructure:"timeout"` // milliseconds
		MaxRetries int    `mapstructure:"max_retries"`
	} `mapstructure:"estimate"`
}

// WizardConfig holds the timings of the quote wizard sessions.
type WizardConfig struct {
	EstimateDisplayDelay int `mapstructure:"estimate_display_delay"` // milliseconds
	DebounceWindow       int `mapstructure:"debounce_window"`        // milliseconds
	CallTimeout          int `mapstructure:"call_timeout"`           // milliseconds
	SessionTTL           int `mapstructure:"session_ttl"`            // milliseconds
	MaxFiles             int `mapstructure:"max_files"`
	MaxFileBytes         int `mapstructure:"max_file_bytes"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
