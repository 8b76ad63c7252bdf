package models

// Config holds the application configuration
type Config struct {
	Server        ServerConfig   `json:"server"`
	Webhook       WebhookConfig  `json:"webhook"`
	Database      DatabaseConfig `json:"database"`
	Audit         AuditConfig    `json:"audit"`
	Import        ImportConfig   `json:"import"`
	Tracing       TracingConfig  `json:"tracing"`
	LogLevel      string         `json:"log_level"`
	RetentionDays int            `json:"retentionDays"`
}

// ServerConfig holds HTTP server related configurations
type ServerConfig struct {
	Port                 int `json:"port"`
	ReadTimeoutSec       int `json:"readTimeoutSec"`
	WriteTimeoutSec      int `json:"writeTimeoutSec"`
	IdleTimeoutSec       int `json:"idleTimeoutSec"`
	CleanupIntervalHours int `json:"cleanupIntervalHours"`
}

// WebhookConfig holds the inbound webhook authentication configuration
type WebhookConfig struct {
	// Secret is the shared HMAC key used to validate event signatures.
	Secret string `json:"secret"`
	// VerifyToken is compared against the token presented during the
	// verification handshake.
	VerifyToken string `json:"verify_token"`
}

// DatabaseConfig holds database related configurations
type DatabaseConfig struct {
	Path string `json:"path"`
}

// AuditConfig holds the file-backed audit log configuration
type AuditConfig struct {
	Dir string `json:"dir"`
}

// ImportConfig holds the batch import configuration
type ImportConfig struct {
	SourceDir  string `json:"source_dir"`
	ReportsDir string `json:"reports_dir"`
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	ServiceName    string  `json:"service_name"`
	ServiceVersion string  `json:"service_version"`
	Environment    string  `json:"environment"`
	OTLPEndpoint   string  `json:"otlp_endpoint"`
	SampleRate     float64 `json:"sample_rate"`
	Enabled        bool    `json:"enabled"`
	UseStdout      bool    `json:"use_stdout"`
}

type ConfigError struct {
	Message string
}

func (e ConfigError) Error() string {
	return e.Message
}
