package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"msgvault/internal/database"
	"msgvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestImporter(t *testing.T) (*Importer, *database.Database, string, string) {
	db := setupTestDB(t)
	sourceDir := filepath.Join(t.TempDir(), "archive")
	reportsDir := filepath.Join(t.TempDir(), "reports")
	require.NoError(t, os.MkdirAll(sourceDir, 0755))

	importer := NewImporter(db, models.ImportConfig{
		SourceDir:  sourceDir,
		ReportsDir: reportsDir,
	}, testLogger())
	return importer, db, sourceDir, reportsDir
}

func writeArchiveFile(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func fileNames(outcomes []FileOutcome) []string {
	names := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		names = append(names, outcome.FileName)
	}
	return names
}

func TestImportAllMessaging(t *testing.T) {
	importer, db, sourceDir, _ := setupTestImporter(t)
	ctx := context.Background()

	writeArchiveFile(t, sourceDir, "messaging_20231114T221320.000.json", `{
		"EventType": "messaging",
		"ReceivedAt": "2023-11-14T22:13:20Z",
		"Payload": {
			"sender": {"id": "U1"},
			"recipient": {"id": "P1"},
			"timestamp": 1700000000000,
			"message": {"mid": "m1", "text": "hello"}
		}
	}`)

	report, err := importer.ImportAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 1)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Failed)

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)

	event := events[0]
	assert.Equal(t, "messaging", event.EventType)
	assert.True(t, event.Processed)
	assert.Equal(t, time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC), event.ReceivedAt.UTC())

	require.Len(t, event.Messages, 1)
	msg := event.Messages[0]
	assert.Equal(t, models.KindMessage, msg.Kind)
	require.NotNil(t, msg.Text)
	assert.Equal(t, "hello", *msg.Text)
}

func TestImportAllIdempotent(t *testing.T) {
	importer, db, sourceDir, _ := setupTestImporter(t)
	ctx := context.Background()

	writeArchiveFile(t, sourceDir, "a.json", `{"EventType": "messaging", "Payload": {"message": {"text": "one"}}}`)
	writeArchiveFile(t, sourceDir, "b.json", `{"EventType": "webhook", "Payload": {"object": "page"}}`)

	first, err := importer.ImportAll(ctx)
	require.NoError(t, err)
	require.Len(t, first.Succeeded, 2)

	second, err := importer.ImportAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Succeeded)
	assert.Empty(t, second.Failed)
	assert.ElementsMatch(t, fileNames(first.Succeeded), fileNames(second.Skipped))

	// No additional rows from the second run.
	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestImportAllOutcomes(t *testing.T) {
	importer, _, sourceDir, _ := setupTestImporter(t)

	writeArchiveFile(t, sourceDir, "bad.json", `{not json`)
	writeArchiveFile(t, sourceDir, "foreign.json", `{"some": "other format"}`)
	writeArchiveFile(t, sourceDir, "no_payload.json", `{"EventType": "messaging"}`)
	writeArchiveFile(t, sourceDir, "null_payload.json", `{"EventType": "messaging", "Payload": null}`)
	writeArchiveFile(t, sourceDir, "ok.json", `{"EventType": "messaging", "Payload": {"message": {"text": "hi"}}}`)
	writeArchiveFile(t, sourceDir, "not_an_object.json", `[1, 2, 3]`)

	report, err := importer.ImportAll(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"ok.json"}, fileNames(report.Succeeded))
	assert.ElementsMatch(t, []string{"foreign.json", "no_payload.json", "null_payload.json"}, fileNames(report.Skipped))
	assert.ElementsMatch(t, []string{"bad.json", "not_an_object.json"}, fileNames(report.Failed))
}

func TestImportAllDefaults(t *testing.T) {
	importer, db, sourceDir, _ := setupTestImporter(t)
	ctx := context.Background()

	importedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	importer.now = func() time.Time { return importedAt }

	// Null EventType and missing ReceivedAt fall back to defaults.
	writeArchiveFile(t, sourceDir, "defaults.json", `{"EventType": null, "Payload": {"x": 1}}`)

	report, err := importer.ImportAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Succeeded, 1)

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "unknown", events[0].EventType)
	assert.Equal(t, importedAt, events[0].ReceivedAt.UTC())
	// Object payload without messaging keys yields no message rows.
	assert.Empty(t, events[0].Messages)
}

func TestImportAllNonObjectPayloadSkipsExtraction(t *testing.T) {
	importer, db, sourceDir, _ := setupTestImporter(t)
	ctx := context.Background()

	writeArchiveFile(t, sourceDir, "scalar.json", `{"EventType": "field_name", "Payload": "New Name"}`)

	report, err := importer.ImportAll(ctx)
	require.NoError(t, err)
	require.Len(t, report.Succeeded, 1)

	events, err := db.ListEvents(ctx, models.EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, `"New Name"`, events[0].RawPayload)
	assert.Empty(t, events[0].Messages)
}

func TestImportAllWritesReports(t *testing.T) {
	importer, _, sourceDir, reportsDir := setupTestImporter(t)

	startedAt := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	importer.now = func() time.Time { return startedAt }

	writeArchiveFile(t, sourceDir, "ok.json", `{"EventType": "webhook", "Payload": {}}`)
	writeArchiveFile(t, sourceDir, "bad.json", `{broken`)

	report, err := importer.ImportAll(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.BatchID)

	jsonPath := filepath.Join(reportsDir, "import_20240601T120000.json")
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)

	var written ImportReport
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, report.BatchID, written.BatchID)
	require.Len(t, written.Succeeded, 1)
	assert.Equal(t, "ok.json", written.Succeeded[0].FileName)
	assert.Equal(t, filepath.Join(sourceDir, "ok.json"), written.Succeeded[0].Path)
	require.Len(t, written.Failed, 1)
	assert.NotEmpty(t, written.Failed[0].Reason)

	textPath := filepath.Join(reportsDir, "import_20240601T120000.txt")
	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Succeeded: 1")
	assert.Contains(t, string(text), "[+] ok.json")
	assert.Contains(t, string(text), "[!] bad.json")
}

func TestImportAllMissingSourceDir(t *testing.T) {
	importer, _, sourceDir, _ := setupTestImporter(t)
	require.NoError(t, os.RemoveAll(sourceDir))

	// A missing directory simply yields an empty batch.
	report, err := importer.ImportAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Succeeded)
	assert.Empty(t, report.Skipped)
	assert.Empty(t, report.Failed)
}
