package models

import (
	"time"
)

// MessageKind identifies which sub-object of a messaging event produced a
// message record. Exactly one of the kind-specific columns (text,
// postback_payload, delivery_watermark) may be populated per row.
type MessageKind string

const (
	KindMessage  MessageKind = "message"
	KindPostback MessageKind = "postback"
	KindDelivery MessageKind = "delivery"
	KindRead     MessageKind = "read"
	KindUnknown  MessageKind = "unknown"
)

// RawEvent is the audit record for an inbound payload. The payload text is
// stored verbatim; together with the event type it forms the duplicate
// detection key used by the batch importer.
type RawEvent struct {
	ID         int64      `db:"id"`
	EventType  string     `db:"event_type"`
	ReceivedAt time.Time  `db:"received_at"`
	RawPayload string     `db:"raw_payload"`
	ObjectType *string    `db:"object_type"`
	Processed  bool       `db:"processed"`
	CreatedAt  time.Time  `db:"created_at"`
	Messages   []*Message `db:"-"`
}

// Message is a normalized sub-event extracted from a messaging entry.
type Message struct {
	ID                int64       `db:"id"`
	EventID           int64       `db:"event_id"`
	MessageID         *string     `db:"message_id"`
	SenderID          string      `db:"sender_id"`
	RecipientID       string      `db:"recipient_id"`
	Text              *string     `db:"text"`
	Timestamp         time.Time   `db:"timestamp"`
	Kind              MessageKind `db:"kind"`
	IsEcho            bool        `db:"is_echo"`
	AppID             *string     `db:"app_id"`
	PostbackPayload   *string     `db:"postback_payload"`
	DeliveryWatermark *int64      `db:"delivery_watermark"`
	Responded         bool        `db:"responded"`
	CreatedAt         time.Time   `db:"created_at"`
	Event             *RawEvent   `db:"-"`
}

// EventFilter narrows event listings. Nil fields are not applied.
type EventFilter struct {
	EventType *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}

// MessageFilter narrows message listings. Nil fields are not applied.
type MessageFilter struct {
	SenderID  *string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
}
