package service

import (
	"context"

	"msgvault/internal/privacy"

	"github.com/sirupsen/logrus"
)

// ContextKey is a package-local type to prevent context key collisions
type ContextKey string

// VerboseContextKey is the strongly-typed context key for verbose logging flag
const VerboseContextKey ContextKey = "verbose"

// IsVerboseLogging checks if verbose logging is enabled from context
func IsVerboseLogging(ctx context.Context) bool {
	if verbose, ok := ctx.Value(VerboseContextKey).(bool); ok {
		return verbose
	}
	return false
}

// Standard field names. Use these exact names for consistency across all
// logging calls.
const (
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"

	LogFieldService   = "service"
	LogFieldOperation = "operation"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	LogFieldEventID     = "event_id"
	LogFieldEventType   = "event_type"
	LogFieldMessageID   = "message_id"
	LogFieldMessageKind = "message_kind"
	LogFieldSender      = "sender"
	LogFieldRecipient   = "recipient"
	LogFieldObjectType  = "object_type"

	LogFieldDuration = "duration_ms"
	LogFieldCount    = "count"
	LogFieldSize     = "size_bytes"

	LogFieldURL        = "url"
	LogFieldEndpoint   = "endpoint"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"

	LogFieldFilePath = "file_path"
	LogFieldFileName = "file_name"

	LogFieldErrorCode = "error_code"
	LogFieldAttempt   = "attempt"
)

// LogWithContext creates a logger entry with the verbose flag attached
func LogWithContext(ctx context.Context, logger *logrus.Logger) *logrus.Entry {
	return logger.WithField("verbose", IsVerboseLogging(ctx))
}

// maskForLog hides most of a participant id unless verbose logging was
// requested for this request.
func maskForLog(ctx context.Context, id string) string {
	if IsVerboseLogging(ctx) {
		return id
	}
	return privacy.MaskParticipantID(id)
}
