package errors

import (
	"fmt"
	"net/http"
)

// Common error creators for frequent use cases

// NewValidationError creates a validation error with field context
func NewValidationError(field, value, message string) *AppError {
	return New(ErrCodeValidationFailed, message).
		WithContext("field", field).
		WithContext("value", value).
		WithUserMessage(fmt.Sprintf("Invalid %s: %s", field, message))
}

// NewConfigError creates a configuration error
func NewConfigError(key, message string) *AppError {
	return New(ErrCodeInvalidConfig, message).
		WithContext("config_key", key).
		WithUserMessage("Configuration error")
}

// NewDatabaseError creates a database error with operation context
func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseQuery, fmt.Sprintf("database %s failed", operation)).
		WithContext("operation", operation).
		WithUserMessage("Database operation failed")
}

// NewSignatureError creates a webhook authentication error. The missing
// flag distinguishes an absent header from a digest mismatch so the HTTP
// layer can report them separately.
func NewSignatureError(reason string, missing bool) *AppError {
	code := ErrCodeSignatureInvalid
	if missing {
		code = ErrCodeSignatureMissing
	}
	return New(code, "webhook signature validation failed").
		WithContext("reason", reason).
		WithUserMessage("Webhook authentication failed")
}

// NewMalformedPayloadError creates an error for an unparseable or
// incomplete webhook body
func NewMalformedPayloadError(detail string, err error) *AppError {
	return Wrap(err, ErrCodeMalformedPayload, detail).
		WithUserMessage("Malformed webhook payload")
}

// HTTPStatusCode maps error codes to appropriate HTTP status codes
func HTTPStatusCode(err error) int {
	switch GetCode(err) {
	case ErrCodeValidationFailed, ErrCodeInvalidInput, ErrCodeMalformedPayload:
		return http.StatusBadRequest
	case ErrCodeSignatureMissing, ErrCodeSignatureInvalid:
		return http.StatusUnauthorized
	case ErrCodeHandshakeFailed:
		return http.StatusForbidden
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeTimeout:
		return http.StatusRequestTimeout
	case ErrCodeDatabaseConnection, ErrCodeDatabaseQuery, ErrCodeDatabaseMigration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// HTTPErrorResponse is the standardized error body returned to callers.
type HTTPErrorResponse struct {
	Error struct {
		Code    ErrorCode `json:"code"`
		Message string    `json:"message"`
	} `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// ToHTTPResponse converts an error to a standardized HTTP response
func ToHTTPResponse(err error, requestID string) HTTPErrorResponse {
	response := HTTPErrorResponse{
		RequestID: requestID,
	}
	response.Error.Code = GetCode(err)
	response.Error.Message = GetUserMessage(err)
	return response
}
