package validation

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
	"unicode"

	"msgvault/internal/constants"
	"msgvault/internal/errors"
)

// ValidateEventType validates an event type string used in queries and
// audit file names.
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return errors.New(errors.ErrCodeInvalidInput, "event type cannot be empty")
	}

	if len(eventType) > 64 {
		return errors.New(errors.ErrCodeInvalidInput, "event type too long (max 64 characters)")
	}

	for _, char := range eventType {
		if !unicode.IsLetter(char) && !unicode.IsDigit(char) && char != '_' && char != '-' {
			return errors.New(errors.ErrCodeInvalidInput,
				"event type must contain only letters, numbers, underscores, and dashes")
		}
	}

	return nil
}

// ParseDateParam parses an RFC 3339 date or timestamp query parameter.
// Empty values yield a nil time without error.
func ParseDateParam(value, fieldName string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		utc := t.UTC()
		return &utc, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		utc := t.UTC()
		return &utc, nil
	}

	return nil, errors.New(errors.ErrCodeInvalidInput,
		fmt.Sprintf("%s must be RFC 3339 or YYYY-MM-DD", fieldName))
}

// ValidateDateRange checks that a start/end pair is ordered
func ValidateDateRange(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return errors.New(errors.ErrCodeInvalidInput, "end date must not be before start date")
	}
	return nil
}

// ParseLimitParam parses a result limit query parameter, applying the
// default and clamping to the maximum.
func ParseLimitParam(value string) (int, error) {
	if value == "" {
		return constants.DefaultQueryLimit, nil
	}

	limit, err := strconv.Atoi(value)
	if err != nil || limit < 1 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "limit must be a positive integer")
	}
	if limit > constants.MaxQueryLimit {
		limit = constants.MaxQueryLimit
	}
	return limit, nil
}

// ValidateHTTPRequestSize validates incoming HTTP request size
func ValidateHTTPRequestSize(r *http.Request, maxSizeBytes int64) error {
	if r.ContentLength < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid content length")
	}

	if r.ContentLength > maxSizeBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("request too large: %d bytes (max %d bytes)", r.ContentLength, maxSizeBytes))
	}

	return nil
}

// ValidateTimeout validates timeout values
func ValidateTimeout(timeoutSec int, fieldName string) error {
	if timeoutSec < 1 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be at least 1 second", fieldName))
	}

	if timeoutSec > 3600 { // Max 1 hour
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("%s too large (max 3600 seconds)", fieldName))
	}

	return nil
}

// ValidateRetentionDays validates data retention period
func ValidateRetentionDays(days int) error {
	if days < 1 {
		return errors.New(errors.ErrCodeInvalidInput, "retention days must be at least 1")
	}

	if days > 3650 { // Max 10 years
		return errors.New(errors.ErrCodeInvalidInput, "retention days too large (max 3650)")
	}

	return nil
}
