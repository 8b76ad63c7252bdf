package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"msgvault/internal/migrations"
	"msgvault/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB

	// now is swapped out in tests for deterministic timestamps
	now func() time.Time
}

func New(dbPath string) (*Database, error) {
	if len(dbPath) == 0 || dbPath[0] == '\x00' {
		return nil, fmt.Errorf("invalid database path")
	}

	file, err := os.OpenFile(dbPath, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to create database file: %w", err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database file: %w", err)
	}

	// Foreign keys must be enabled for the event -> message cascade delete.
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to ping database: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema, err := migrations.GetInitialSchema()
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to read schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize schema: %w (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Database{db: db, now: time.Now}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// SaveEvent inserts a new event record for live ingestion. The reception
// timestamp is assigned here and the processed flag starts false.
func (d *Database) SaveEvent(ctx context.Context, eventType, rawPayload string, objectType *string) (int64, error) {
	return d.insertEvent(ctx, eventType, rawPayload, objectType, d.now().UTC(), false)
}

// SaveMigratedEvent inserts an event reconstructed from an audit log file.
// Migrated records carry their historical reception time and are marked
// processed, since they were handled when first received.
func (d *Database) SaveMigratedEvent(ctx context.Context, eventType, rawPayload string, receivedAt time.Time) (int64, error) {
	return d.insertEvent(ctx, eventType, rawPayload, nil, receivedAt.UTC(), true)
}

func (d *Database) insertEvent(ctx context.Context, eventType, rawPayload string, objectType *string, receivedAt time.Time, processed bool) (int64, error) {
	var id int64
	err := retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, insertEventQuery,
			eventType, receivedAt, rawPayload, objectType, processed)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	}, "save event")
	if err != nil {
		return 0, fmt.Errorf("failed to save event: %w", err)
	}
	return id, nil
}

// SaveMessage stamps the parent event id and creation time on the message
// and inserts it.
func (d *Database) SaveMessage(ctx context.Context, eventID int64, msg *models.Message) (int64, error) {
	msg.EventID = eventID
	msg.CreatedAt = d.now().UTC()

	var id int64
	err := retryableDBOperation(ctx, func() error {
		result, err := d.db.ExecContext(ctx, insertMessageQuery,
			msg.EventID,
			msg.MessageID,
			msg.SenderID,
			msg.RecipientID,
			msg.Text,
			msg.Timestamp,
			msg.Kind,
			msg.IsEcho,
			msg.AppID,
			msg.PostbackPayload,
			msg.DeliveryWatermark,
			msg.Responded,
			msg.CreatedAt,
		)
		if err != nil {
			return err
		}
		id, err = result.LastInsertId()
		return err
	}, "save message")
	if err != nil {
		return 0, fmt.Errorf("failed to save message: %w", err)
	}
	msg.ID = id
	return id, nil
}

// FindEventByPayload looks up an event whose stored payload text and event
// type both match. Used by the batch importer for duplicate suppression.
func (d *Database) FindEventByPayload(ctx context.Context, eventType, rawPayload string) (*models.RawEvent, error) {
	row := d.db.QueryRowContext(ctx, selectEventByPayloadQuery, rawPayload, eventType)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by payload: %w", err)
	}
	return event, nil
}

// GetEvent retrieves a single event with its messages eager-loaded.
func (d *Database) GetEvent(ctx context.Context, id int64) (*models.RawEvent, error) {
	row := d.db.QueryRowContext(ctx, selectEventByIDQuery, id)

	event, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	if err := d.loadMessages(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// ListEvents returns events newest-first, filtered by the optional date
// range and event type, with child messages eager-loaded.
func (d *Database) ListEvents(ctx context.Context, filter models.EventFilter) ([]*models.RawEvent, error) {
	query := `
		SELECT id, event_type, received_at, raw_payload, object_type, processed, created_at
		FROM events`
	var conditions []string
	var args []interface{}

	if filter.EventType != nil {
		conditions = append(conditions, "event_type = ?")
		args = append(args, *filter.EventType)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "received_at >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "received_at <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY received_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.RawEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	for _, event := range events {
		if err := d.loadMessages(ctx, event); err != nil {
			return nil, err
		}
	}
	return events, nil
}

// ListMessages returns messages newest-first, filtered by the optional
// sender and date range, with the parent event eager-loaded.
func (d *Database) ListMessages(ctx context.Context, filter models.MessageFilter) ([]*models.Message, error) {
	query := `
		SELECT id, event_id, message_id, sender_id, recipient_id, text,
		       timestamp, kind, is_echo, app_id, postback_payload,
		       delivery_watermark, responded, created_at
		FROM messages`
	var conditions []string
	var args []interface{}

	if filter.SenderID != nil {
		conditions = append(conditions, "sender_id = ?")
		args = append(args, *filter.SenderID)
	}
	if filter.StartDate != nil {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartDate.UTC())
	}
	if filter.EndDate != nil {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.EndDate.UTC())
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	for _, msg := range messages {
		row := d.db.QueryRowContext(ctx, selectEventByIDQuery, msg.EventID)
		parent, err := scanEvent(row)
		if err != nil {
			return nil, fmt.Errorf("failed to load parent event: %w", err)
		}
		msg.Event = parent
	}
	return messages, nil
}

// ListUnrespondedMessages returns inbound user messages that have not been
// answered yet, oldest-first. Echo messages and non-message kinds never
// qualify.
func (d *Database) ListUnrespondedMessages(ctx context.Context) ([]*models.Message, error) {
	rows, err := d.db.QueryContext(ctx, selectUnrespondedMessagesQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list unresponded messages: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// CleanupOldEvents removes events older than the retention period. The
// cascade delete removes their messages.
func (d *Database) CleanupOldEvents(retentionDays int) error {
	if _, err := d.db.Exec(deleteOldEventsQuery, retentionDays); err != nil {
		return fmt.Errorf("failed to cleanup old events: %w", err)
	}
	return nil
}

func (d *Database) loadMessages(ctx context.Context, event *models.RawEvent) error {
	rows, err := d.db.QueryContext(ctx, selectMessagesByEventIDQuery, event.ID)
	if err != nil {
		return fmt.Errorf("failed to load messages for event %d: %w", event.ID, err)
	}
	defer rows.Close()

	messages, err := collectMessages(rows)
	if err != nil {
		return err
	}
	event.Messages = messages
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*models.RawEvent, error) {
	event := &models.RawEvent{}
	err := row.Scan(
		&event.ID,
		&event.EventType,
		&event.ReceivedAt,
		&event.RawPayload,
		&event.ObjectType,
		&event.Processed,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func collectMessages(rows *sql.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		msg := &models.Message{}
		err := rows.Scan(
			&msg.ID,
			&msg.EventID,
			&msg.MessageID,
			&msg.SenderID,
			&msg.RecipientID,
			&msg.Text,
			&msg.Timestamp,
			&msg.Kind,
			&msg.IsEcho,
			&msg.AppID,
			&msg.PostbackPayload,
			&msg.DeliveryWatermark,
			&msg.Responded,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return messages, nil
}
