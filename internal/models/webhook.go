package models

import (
	"encoding/json"
	"net/url"
	"strings"
)

// Webhook event types used for archived records
const (
	EventTypeWebhook   = "webhook"
	EventTypeMessaging = "messaging"

	// FieldEventPrefix prefixes the archived event type of a field-change
	// entry, e.g. "field_about".
	FieldEventPrefix = "field_"
)

// WebhookPayload is the top-level body pushed by the platform. Entries are
// kept opaque; their shape varies by subscription and is inspected key by
// key during parsing.
type WebhookPayload struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

// HandshakeRequest carries the query parameters of the verification
// handshake the platform performs before delivering live events.
type HandshakeRequest struct {
	Mode        string
	VerifyToken string
	Challenge   string
}

// ParseHandshakeRequest extracts the handshake parameters from the query
// string. Incidental whitespace around each parameter is trimmed.
func ParseHandshakeRequest(query url.Values) HandshakeRequest {
	return HandshakeRequest{
		Mode:        strings.TrimSpace(query.Get("hub.mode")),
		VerifyToken: strings.TrimSpace(query.Get("hub.verify_token")),
		Challenge:   strings.TrimSpace(query.Get("hub.challenge")),
	}
}

// Matches reports whether the request is a subscribe handshake carrying the
// configured verify token. An empty presented token never matches, even if
// no token is configured.
func (h HandshakeRequest) Matches(verifyToken string) bool {
	return h.Mode == "subscribe" && h.VerifyToken != "" && h.VerifyToken == verifyToken
}
