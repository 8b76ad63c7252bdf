package service

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"msgvault/internal/audit"
	"msgvault/internal/database"
	"msgvault/internal/errors"
	"msgvault/internal/migrations"
	"msgvault/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_type TEXT NOT NULL,
    received_at DATETIME NOT NULL,
    raw_payload TEXT NOT NULL,
    object_type TEXT,
    processed BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    event_id INTEGER NOT NULL,
    message_id TEXT,
    sender_id TEXT NOT NULL,
    recipient_id TEXT NOT NULL,
    text TEXT,
    timestamp DATETIME NOT NULL,
    kind TEXT NOT NULL,
    is_echo BOOLEAN NOT NULL DEFAULT FALSE,
    app_id TEXT,
    postback_payload TEXT,
    delivery_watermark INTEGER,
    responded BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (event_id) REFERENCES events(id) ON DELETE CASCADE
);
`

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func setupTestDB(t *testing.T) *database.Database {
	tmpDir := t.TempDir()

	migrationsPath := filepath.Join(tmpDir, "migrations")
	require.NoError(t, os.MkdirAll(migrationsPath, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(migrationsPath, "001_initial_schema.sql"), []byte(testSchema), 0644))

	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath

	db, err := database.New(filepath.Join(tmpDir, "test.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		migrations.MigrationsDir = originalMigrationsDir
	})

	return db
}

func setupTestProcessor(t *testing.T) (*Processor, *database.Database, string) {
	db := setupTestDB(t)
	auditDir := filepath.Join(t.TempDir(), "audit")
	logger := testLogger()
	processor := NewProcessor(db, audit.NewLog(auditDir, logger), logger)
	return processor, db, auditDir
}

func auditFiles(t *testing.T, dir string) []string {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestProcessWebhookMalformedBody(t *testing.T) {
	processor, db, auditDir := setupTestProcessor(t)

	err := processor.ProcessWebhook(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeMalformedPayload, errors.GetCode(err))

	// Nothing may be persisted for an unparseable body.
	events, err := db.ListEvents(context.Background(), models.EventFilter{})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, auditFiles(t, auditDir))
}

func TestProcessWebhookMessaging(t *testing.T) {
	processor, db, auditDir := setupTestProcessor(t)
	ctx := context.Background()

	body := []byte(`{"object":"page","entry":[{"messaging":[{
		"sender":{"id":"U1"},
		"recipient":{"id":"P1"},
		"timestamp":1700000000000,
		"message":{"mid":"m1","text":"hello"}
	}]}]}`)

	require.NoError(t, processor.ProcessWebhook(ctx, body))

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "webhook", event.EventType)
	assert.Equal(t, string(body), event.RawPayload)
	require.NotNil(t, event.ObjectType)
	assert.Equal(t, "page", *event.ObjectType)
	assert.False(t, event.Processed)

	require.Len(t, event.Messages, 1)
	msg := event.Messages[0]
	assert.Equal(t, models.KindMessage, msg.Kind)
	assert.Equal(t, "U1", msg.SenderID)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", *msg.Text)

	// One audit file for the full body, one per messaging sub-event.
	names := auditFiles(t, auditDir)
	require.Len(t, names, 2)
	assert.Contains(t, names[0]+names[1], "webhook_")
	assert.Contains(t, names[0]+names[1], "messaging_")
}

func TestProcessWebhookFieldChanges(t *testing.T) {
	processor, db, auditDir := setupTestProcessor(t)
	ctx := context.Background()

	body := []byte(`{"object":"page","entry":[{"changes":[
		{"field":"name","value":"New Name"},
		{"field":"custom_thing","value":{"complex":true}}
	]}]}`)

	require.NoError(t, processor.ProcessWebhook(ctx, body))

	// Field changes are archived but never stored relationally.
	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Messages)

	names := auditFiles(t, auditDir)
	require.Len(t, names, 3)

	joined := ""
	for _, name := range names {
		joined += name + "\n"
	}
	assert.Contains(t, joined, "webhook_")
	assert.Contains(t, joined, "field_name_")
	assert.Contains(t, joined, "field_custom_thing_")
}

func TestProcessWebhookEmptyEntry(t *testing.T) {
	processor, db, _ := setupTestProcessor(t)
	ctx := context.Background()

	require.NoError(t, processor.ProcessWebhook(ctx, []byte(`{"object":"page","entry":[]}`)))

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Empty(t, events[0].Messages)
}

func TestProcessWebhookSkipsUnrecognizedEntries(t *testing.T) {
	processor, db, _ := setupTestProcessor(t)
	ctx := context.Background()

	body := []byte(`{"object":"page","entry":[
		"not an object",
		{"unrelated":true},
		{"messaging":[{"sender":{"id":"U1"},"recipient":{"id":"P1"},"message":{"text":"hi"}}]}
	]}`)

	require.NoError(t, processor.ProcessWebhook(ctx, body))

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Messages, 1)
	assert.Equal(t, "U1", events[0].Messages[0].SenderID)
}

func TestProcessWebhookDeterministicTimestamps(t *testing.T) {
	processor, db, _ := setupTestProcessor(t)
	ctx := context.Background()

	ingestedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	processor.now = func() time.Time { return ingestedAt }

	// No timestamp in the payload, so the message falls back to ingestion time.
	body := []byte(`{"object":"page","entry":[{"messaging":[{
		"sender":{"id":"U1"},"recipient":{"id":"P1"},"message":{"text":"hi"}
	}]}]}`)
	require.NoError(t, processor.ProcessWebhook(ctx, body))

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Len(t, events[0].Messages, 1)
	assert.Equal(t, ingestedAt, events[0].Messages[0].Timestamp.UTC())
}

func TestProcessWebhookAuditEnvelope(t *testing.T) {
	processor, _, auditDir := setupTestProcessor(t)

	body := []byte(`{"object":"page","entry":[]}`)
	require.NoError(t, processor.ProcessWebhook(context.Background(), body))

	names := auditFiles(t, auditDir)
	require.Len(t, names, 1)

	data, err := os.ReadFile(filepath.Join(auditDir, names[0]))
	require.NoError(t, err)

	var envelope audit.Envelope
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, "webhook", envelope.EventType)
	assert.JSONEq(t, string(body), string(envelope.Payload))
	assert.False(t, envelope.ReceivedAt.IsZero())
}
