package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"msgvault/internal/database"
	"msgvault/internal/metrics"
	"msgvault/internal/models"

	"github.com/sirupsen/logrus"
)

// Importer replays archived envelope files into the database. Each file
// holds one envelope as written by the audit log; replay is sequential in
// lexicographic filename order, which the timestamped naming convention
// makes roughly chronological.
type Importer struct {
	db         *database.Database
	sourceDir  string
	reportsDir string
	logger     *logrus.Logger

	// now is swapped out in tests for deterministic timestamps
	now func() time.Time
}

func NewImporter(db *database.Database, cfg models.ImportConfig, logger *logrus.Logger) *Importer {
	return &Importer{
		db:         db,
		sourceDir:  cfg.SourceDir,
		reportsDir: cfg.ReportsDir,
		logger:     logger,
		now:        time.Now,
	}
}

// ImportAll processes every .json file in the source directory and writes a
// batch report. A single file's failure never aborts the batch; the file is
// recorded as failed and processing continues.
func (im *Importer) ImportAll(ctx context.Context) (*ImportReport, error) {
	report := newImportReport(im.sourceDir, im.now())

	paths, err := filepath.Glob(filepath.Join(im.sourceDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan source directory: %w", err)
	}

	im.logger.WithFields(logrus.Fields{
		"batch_id":   report.BatchID,
		"source":     im.sourceDir,
		"file_count": len(paths),
	}).Info("Starting import batch")

	for _, path := range paths {
		outcome := FileOutcome{
			FileName: filepath.Base(path),
			Path:     path,
		}

		status, reason := im.importFile(ctx, path)
		outcome.Reason = reason

		switch status {
		case importSucceeded:
			report.Succeeded = append(report.Succeeded, outcome)
		case importSkipped:
			report.Skipped = append(report.Skipped, outcome)
		case importFailed:
			report.Failed = append(report.Failed, outcome)
			im.logger.WithFields(logrus.Fields{
				LogFieldFileName: outcome.FileName,
				"reason":         reason,
			}).Error("Failed to import file")
		}

		metrics.IncrementCounter("import_files_total", map[string]string{
			"status": string(status),
		}, "Import batch files by outcome")
	}

	report.CompletedAt = im.now().UTC()

	if err := report.Write(im.reportsDir); err != nil {
		return report, fmt.Errorf("failed to write import report: %w", err)
	}

	im.logger.WithFields(logrus.Fields{
		"batch_id":  report.BatchID,
		"succeeded": len(report.Succeeded),
		"skipped":   len(report.Skipped),
		"failed":    len(report.Failed),
	}).Info("Import batch completed")

	return report, nil
}

type importStatus string

const (
	importSucceeded importStatus = "succeeded"
	importSkipped   importStatus = "skipped"
	importFailed    importStatus = "failed"
)

func (im *Importer) importFile(ctx context.Context, path string) (importStatus, string) {
	data, err := os.ReadFile(path) // #nosec G304 - Path comes from the configured source directory glob
	if err != nil {
		return importFailed, fmt.Sprintf("read error: %v", err)
	}

	fields, ok := decodeObject(data)
	if !ok {
		return importFailed, "file is not a JSON object"
	}

	// Files without an EventType field were written by something else
	// entirely; skip them rather than guessing.
	rawEventType, hasEventType := fields["EventType"]
	if !hasEventType {
		return importSkipped, "unknown format: no EventType field"
	}

	eventType := "unknown"
	if s := stringValue(rawEventType); s != nil && *s != "" {
		eventType = *s
	}

	receivedAt := im.now().UTC()
	if s := stringValue(fields["ReceivedAt"]); s != nil {
		if parsed, perr := time.Parse(time.RFC3339Nano, *s); perr == nil {
			receivedAt = parsed.UTC()
		}
	}

	payload, hasPayload := fields["Payload"]
	if !hasPayload || string(payload) == "null" {
		return importSkipped, "missing Payload field"
	}

	existing, err := im.db.FindEventByPayload(ctx, eventType, string(payload))
	if err != nil {
		return importFailed, fmt.Sprintf("duplicate check failed: %v", err)
	}
	if existing != nil {
		return importSkipped, "duplicate of stored event"
	}

	eventID, err := im.db.SaveMigratedEvent(ctx, eventType, string(payload), receivedAt)
	if err != nil {
		return importFailed, fmt.Sprintf("insert failed: %v", err)
	}

	// A migration payload is one flattened entry, not a full webhook body,
	// so replay extracts directly from the payload value.
	if eventType == models.EventTypeMessaging || isJSONObject(payload) {
		for _, msg := range ExtractReplayMessages(payload, receivedAt) {
			if _, err := im.db.SaveMessage(ctx, eventID, msg); err != nil {
				return importFailed, fmt.Sprintf("message insert failed: %v", err)
			}
		}
	}

	return importSucceeded, ""
}

func isJSONObject(raw json.RawMessage) bool {
	_, ok := decodeObject(raw)
	return ok
}
