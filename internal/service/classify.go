package service

import (
	"encoding/json"
	"strconv"
	"time"

	"msgvault/internal/constants"
	"msgvault/internal/models"
)

// messagingKeys is the fixed priority order in which a messaging element is
// checked for kind-specific sub-objects. Every present sub-object produces
// its own message record.
var messagingKeys = []models.MessageKind{
	models.KindMessage,
	models.KindPostback,
	models.KindDelivery,
	models.KindRead,
}

// ExtractMessages decodes one messaging element and returns the message
// records it produces. Missing or wrongly-typed fields never fail the
// extraction; string fields fall back to absent and participant ids fall
// back to the "unknown" sentinel. A missing timestamp falls back to
// ingestedAt.
func ExtractMessages(element json.RawMessage, ingestedAt time.Time) []*models.Message {
	return extractMessages(element, ingestedAt, messagingKeys)
}

// ExtractReplayMessages is the variant used when replaying archived
// payloads. The historical replay path never produced records for read
// receipts, and that behavior is kept.
func ExtractReplayMessages(element json.RawMessage, ingestedAt time.Time) []*models.Message {
	return extractMessages(element, ingestedAt, []models.MessageKind{
		models.KindMessage,
		models.KindDelivery,
		models.KindPostback,
	})
}

func extractMessages(element json.RawMessage, ingestedAt time.Time, kinds []models.MessageKind) []*models.Message {
	fields, ok := decodeObject(element)
	if !ok {
		return nil
	}

	sender := nestedID(fields["sender"])
	recipient := nestedID(fields["recipient"])
	timestamp := epochMillis(fields["timestamp"], ingestedAt)

	var messages []*models.Message
	for _, kind := range kinds {
		raw, present := fields[string(kind)]
		if !present {
			continue
		}

		msg := &models.Message{
			SenderID:    sender,
			RecipientID: recipient,
			Timestamp:   timestamp,
			Kind:        kind,
		}

		sub, _ := decodeObject(raw)
		switch kind {
		case models.KindMessage:
			msg.Text = stringValue(sub["text"])
			msg.MessageID = stringValue(sub["mid"])
			msg.IsEcho = boolValue(sub["is_echo"])
			if msg.IsEcho {
				msg.AppID = stringValue(sub["app_id"])
			}
		case models.KindPostback:
			msg.PostbackPayload = stringValue(sub["payload"])
		case models.KindDelivery:
			msg.DeliveryWatermark = int64Value(sub["watermark"])
		case models.KindRead:
			// no kind-specific fields
		}

		messages = append(messages, msg)
	}
	return messages
}

// decodeObject unmarshals a raw value into its top-level keys. Non-object
// values (including null and absent) yield ok=false.
func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return nil, false
	}
	return fields, true
}

// nestedID extracts the "id" of a participant sub-object, substituting the
// sentinel when the sub-object or its id is missing.
func nestedID(raw json.RawMessage) string {
	fields, ok := decodeObject(raw)
	if !ok {
		return constants.UnknownParticipant
	}
	if id := stringValue(fields["id"]); id != nil {
		return *id
	}
	return constants.UnknownParticipant
}

// stringValue renders a raw value as a string. Numbers are stringified,
// since some platforms send numeric ids where others send strings. Null,
// absent, and other types yield nil.
func stringValue(raw json.RawMessage) *string {
	if len(raw) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		s = n.String()
		return &s
	}
	return nil
}

// int64Value extracts an integer, tolerating string-encoded numbers.
func int64Value(raw json.RawMessage) *int64 {
	if len(raw) == 0 {
		return nil
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, perr := strconv.ParseInt(s, 10, 64); perr == nil {
			return &parsed
		}
	}
	return nil
}

// boolValue extracts a boolean, defaulting to false.
func boolValue(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b
	}
	return false
}

// epochMillis converts an epoch-millisecond value to UTC time, falling back
// to the given ingestion time.
func epochMillis(raw json.RawMessage, fallback time.Time) time.Time {
	if v := int64Value(raw); v != nil {
		return time.UnixMilli(*v).UTC()
	}
	return fallback.UTC()
}
