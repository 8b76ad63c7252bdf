package privacy

import (
	"strings"

	"msgvault/internal/constants"
)

// MaskParticipantID masks a platform-scoped user or page id, showing only
// the last few characters.
// Example: "24081234567890123" -> "*************0123"
func MaskParticipantID(id string) string {
	return maskString(id, constants.DefaultIDMaskLength)
}

// MaskMessageID masks an external message correlation id while preserving
// a prefix for debugging.
// Example: "m_AbCdEfGh1234567890" -> "m_AbCdEf..."
func MaskMessageID(messageID string) string {
	if messageID == "" {
		return ""
	}
	if len(messageID) > constants.DefaultMessageIDShowLen {
		return messageID[:constants.DefaultMessageIDShowLen] + "..."
	}
	return messageID
}

// MaskContent completely hides message content
func MaskContent(content string) string {
	if content == "" {
		return ""
	}
	return "[hidden]"
}

// maskString masks a string showing only the last n characters
func maskString(s string, keepLast int) string {
	if s == "" {
		return ""
	}
	if len(s) <= keepLast {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keepLast) + s[len(s)-keepLast:]
}

// MaskSensitiveFields applies appropriate masking to common logging fields
func MaskSensitiveFields(fields map[string]interface{}) map[string]interface{} {
	if fields == nil {
		return nil
	}

	masked := make(map[string]interface{})
	for k, v := range fields {
		switch k {
		case "sender", "sender_id", "recipient", "recipient_id":
			if s, ok := v.(string); ok {
				masked[k] = MaskParticipantID(s)
			} else {
				masked[k] = v
			}
		case "message_id", "messageId", "mid":
			if s, ok := v.(string); ok {
				masked[k] = MaskMessageID(s)
			} else {
				masked[k] = v
			}
		case "text", "content":
			if s, ok := v.(string); ok {
				masked[k] = MaskContent(s)
			} else {
				masked[k] = v
			}
		default:
			masked[k] = v
		}
	}
	return masked
}
