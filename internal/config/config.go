package config

import (
	"encoding/json"
	"fmt"
	"os"

	"msgvault/internal/constants"
	"msgvault/internal/models"
	"msgvault/internal/security"
	"msgvault/internal/validation"
)

var (
	ErrMissingDBPath      = models.ConfigError{Message: "missing database path"}
	ErrMissingAuditDir    = models.ConfigError{Message: "missing audit log directory"}
	ErrMissingVerifyToken = models.ConfigError{Message: "missing webhook verify token"}
)

func LoadConfig(path string) (*models.Config, error) {
	// Validate config file path to prevent directory traversal
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	if err := validate(&config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	// Perform security validation after environment overrides
	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Database.Path == "" {
		return ErrMissingDBPath
	}
	if c.Audit.Dir == "" {
		return ErrMissingAuditDir
	}
	if c.Webhook.VerifyToken == "" {
		return ErrMissingVerifyToken
	}

	if c.Server.Port <= 0 {
		c.Server.Port = constants.DefaultServerPort
	}
	if c.Server.ReadTimeoutSec <= 0 {
		c.Server.ReadTimeoutSec = constants.DefaultServerReadTimeoutSec
	}
	if c.Server.WriteTimeoutSec <= 0 {
		c.Server.WriteTimeoutSec = constants.DefaultServerWriteTimeoutSec
	}
	if c.Server.IdleTimeoutSec <= 0 {
		c.Server.IdleTimeoutSec = constants.DefaultServerIdleTimeoutSec
	}
	if c.Server.CleanupIntervalHours <= 0 {
		c.Server.CleanupIntervalHours = constants.DefaultCleanupIntervalHours
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = constants.DefaultRetentionDays
	}

	if err := validation.ValidateRetentionDays(c.RetentionDays); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if err := validation.ValidateTimeout(c.Server.ReadTimeoutSec, "server read timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}
	if err := validation.ValidateTimeout(c.Server.WriteTimeoutSec, "server write timeout"); err != nil {
		return models.ConfigError{Message: err.Error()}
	}

	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	// SECURITY: webhook credentials should be set via environment variables
	if secret := os.Getenv("MSGVAULT_WEBHOOK_SECRET"); secret != "" {
		c.Webhook.Secret = secret
	}
	if token := os.Getenv("MSGVAULT_VERIFY_TOKEN"); token != "" {
		c.Webhook.VerifyToken = token
	}

	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if dir := os.Getenv("AUDIT_DIR"); dir != "" {
		c.Audit.Dir = dir
	}
	if dir := os.Getenv("IMPORT_SOURCE_DIR"); dir != "" {
		c.Import.SourceDir = dir
	}
	if dir := os.Getenv("REPORTS_DIR"); dir != "" {
		c.Import.ReportsDir = dir
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("MSGVAULT_ENV") == "production"

	if isProduction {
		// In production, the webhook secret is mandatory
		if c.Webhook.Secret == "" {
			return models.ConfigError{Message: "webhook secret is required in production (set MSGVAULT_WEBHOOK_SECRET environment variable)"}
		}

		if len(c.Webhook.Secret) < constants.MinWebhookSecretLength {
			return models.ConfigError{Message: fmt.Sprintf("webhook secret must be at least %d characters long", constants.MinWebhookSecretLength)}
		}

		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
	} else {
		// In development, warn if the secret is missing; unsigned payloads
		// will be rejected regardless.
		if c.Webhook.Secret == "" {
			fmt.Fprintf(os.Stderr, "WARNING: webhook secret not set. Set MSGVAULT_WEBHOOK_SECRET environment variable; signed payloads cannot be validated without it.\n")
		}
	}

	return nil
}
