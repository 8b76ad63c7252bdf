package service

import (
	"context"
	"encoding/json"
	"time"

	"msgvault/internal/audit"
	"msgvault/internal/database"
	"msgvault/internal/errors"
	"msgvault/internal/metrics"
	"msgvault/internal/models"

	"github.com/sirupsen/logrus"
)

// recognizedChangeFields are the field-change names the platform currently
// sends for profile subscriptions. Others are logged generically. This is
// the extension point for field-specific business logic.
var recognizedChangeFields = map[string]bool{
	"about":   true,
	"name":    true,
	"picture": true,
}

// Processor normalizes inbound webhook bodies and persists them through the
// dual-write pipeline: every payload is archived to the file-backed audit
// log and recorded in the database, and messaging sub-events additionally
// produce message rows.
type Processor struct {
	db     *database.Database
	audit  *audit.Log
	logger *logrus.Logger

	// now is swapped out in tests for deterministic timestamps
	now func() time.Time
}

func NewProcessor(db *database.Database, auditLog *audit.Log, logger *logrus.Logger) *Processor {
	return &Processor{
		db:     db,
		audit:  auditLog,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessWebhook ingests one raw webhook body. The body must be the exact
// bytes received on the wire; it is stored verbatim as the event payload.
func (p *Processor) ProcessWebhook(ctx context.Context, rawBody []byte) error {
	var payload models.WebhookPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		return errors.NewMalformedPayloadError("failed to decode webhook body", err)
	}

	p.audit.Append(models.EventTypeWebhook, string(rawBody))

	var objectType *string
	if payload.Object != "" {
		objectType = &payload.Object
	}

	eventID, err := p.db.SaveEvent(ctx, models.EventTypeWebhook, string(rawBody), objectType)
	if err != nil {
		return errors.NewDatabaseError("save webhook event", err)
	}

	metrics.IncrementCounter("events_ingested_total", map[string]string{
		"event_type": models.EventTypeWebhook,
	}, "Events ingested from live webhooks")

	if len(payload.Entry) == 0 {
		p.logger.WithFields(logrus.Fields{
			LogFieldEventID:    eventID,
			LogFieldObjectType: payload.Object,
		}).Info("Webhook payload carried no entries")
		return nil
	}

	for i, entry := range payload.Entry {
		if err := p.processEntry(ctx, eventID, i, entry); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) processEntry(ctx context.Context, eventID int64, index int, entry json.RawMessage) error {
	fields, ok := decodeObject(entry)
	if !ok {
		p.logger.WithFields(logrus.Fields{
			LogFieldEventID: eventID,
			"entry_index":   index,
		}).Warn("Skipping entry that is not a JSON object")
		return nil
	}

	// Field-change takes precedence when an entry somehow carries both;
	// the platform never sends both in practice.
	if changes, present := fields["changes"]; present {
		p.processChanges(changes)
		return nil
	}
	if messaging, present := fields["messaging"]; present {
		return p.processMessaging(ctx, eventID, messaging)
	}

	p.logger.WithFields(logrus.Fields{
		LogFieldEventID: eventID,
		"entry_index":   index,
	}).Warn("Skipping unrecognized entry without changes or messaging")
	return nil
}

// processChanges archives field-change sub-events to the audit log only.
// Field changes are deliberately not persisted relationally.
func (p *Processor) processChanges(changes json.RawMessage) {
	var elements []json.RawMessage
	if err := json.Unmarshal(changes, &elements); err != nil {
		p.logger.WithError(err).Warn("Skipping changes value that is not an array")
		return
	}

	for _, element := range elements {
		fields, _ := decodeObject(element)

		field := "unknown"
		if f := stringValue(fields["field"]); f != nil {
			field = *f
		}
		value := "unknown"
		if raw, present := fields["value"]; present {
			if s := stringValue(raw); s != nil {
				value = *s
			} else if len(raw) > 0 {
				value = string(raw)
			}
		}

		p.audit.Append(models.FieldEventPrefix+field, string(element))

		entry := p.logger.WithFields(logrus.Fields{
			"field": field,
			"value": value,
		})
		if recognizedChangeFields[field] {
			entry.Info("Received profile field change")
		} else {
			entry.Info("Received unrecognized field change")
		}

		metrics.IncrementCounter("field_changes_total", map[string]string{
			"field": field,
		}, "Field-change sub-events received")
	}
}

func (p *Processor) processMessaging(ctx context.Context, eventID int64, messaging json.RawMessage) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(messaging, &elements); err != nil {
		p.logger.WithError(err).Warn("Skipping messaging value that is not an array")
		return nil
	}

	for _, element := range elements {
		p.audit.Append(models.EventTypeMessaging, string(element))

		for _, msg := range ExtractMessages(element, p.now()) {
			if _, err := p.db.SaveMessage(ctx, eventID, msg); err != nil {
				return errors.NewDatabaseError("save message", err)
			}

			p.logger.WithFields(logrus.Fields{
				LogFieldEventID:     eventID,
				LogFieldMessageKind: string(msg.Kind),
				LogFieldSender:      maskForLog(ctx, msg.SenderID),
				LogFieldRecipient:   maskForLog(ctx, msg.RecipientID),
			}).Info("Stored message record")

			metrics.IncrementCounter("messages_stored_total", map[string]string{
				"kind": string(msg.Kind),
			}, "Message records stored by kind")
		}
	}
	return nil
}
