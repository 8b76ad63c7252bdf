package constants

// Default server configuration values
const (
	DefaultServerPort            = 8085
	DefaultServerReadTimeoutSec  = 15
	DefaultServerWriteTimeoutSec = 15
	DefaultServerIdleTimeoutSec  = 60
	DefaultGracefulShutdownSec   = 30
	ServerErrorChannelSize       = 1
)

// Default storage configuration values
const (
	DefaultRetentionDays         = 90
	DefaultCleanupIntervalHours  = 24
	DefaultDatabaseRetryAttempts = 3
	DefaultRetryBackoffMs        = 1000
	DefaultMaxBackoffMs          = 60000
)

// Webhook ingestion limits
const (
	// MaxWebhookBodyBytes bounds a single webhook POST body.
	MaxWebhookBodyBytes = 1 << 20 // 1 MiB

	// MinWebhookSecretLength is enforced in production mode.
	MinWebhookSecretLength = 32
)

// Signature header names. The primary header carries the SHA-256 digest on
// current platform versions; the legacy SHA-1 header is kept as a fallback.
const (
	SignatureHeaderPrimary = "X-Hub-Signature-256"
	SignatureHeaderLegacy  = "X-Hub-Signature"
)

// Privacy settings
const (
	DefaultIDMaskLength     = 4
	DefaultMessageIDShowLen = 8
)

// Query limits
const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
)

// UnknownParticipant is stored when a messaging event omits the expected
// nested sender or recipient id.
const UnknownParticipant = "unknown"
