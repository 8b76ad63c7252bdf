package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"msgvault/internal/security"

	"github.com/sirupsen/logrus"
)

// Envelope is the wrapper persisted per audit log file. Field names match
// the historical on-disk format, which the batch importer reads back.
type Envelope struct {
	EventType  string
	ReceivedAt time.Time
	Payload    json.RawMessage
}

// Log is an append-only file-backed archive of raw event payloads. Every
// append creates a new timestamped file, so files sort lexicographically in
// roughly chronological order.
type Log struct {
	dir    string
	logger *logrus.Logger

	// now is swapped out in tests for deterministic file names
	now func() time.Time
}

func NewLog(dir string, logger *logrus.Logger) *Log {
	return &Log{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// Append archives a payload under the given event type. A failed archive
// write must never fail the request that triggered it, so all errors are
// swallowed and logged.
func (l *Log) Append(eventType, jsonPayload string) {
	if err := l.append(eventType, jsonPayload); err != nil {
		l.logger.WithFields(logrus.Fields{
			"event_type": eventType,
			"error":      err,
		}).Error("Failed to write audit log file")
	}
}

func (l *Log) append(eventType, jsonPayload string) error {
	if !json.Valid([]byte(jsonPayload)) {
		return fmt.Errorf("payload is not valid JSON")
	}

	if err := os.MkdirAll(l.dir, 0750); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	receivedAt := l.now().UTC()
	envelope := Envelope{
		EventType:  eventType,
		ReceivedAt: receivedAt,
		Payload:    json.RawMessage(jsonPayload),
	}

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	base := fmt.Sprintf("%s_%s",
		security.SanitizeFileComponent(eventType),
		receivedAt.Format("20060102T150405.000"))

	// Sub-events of the same request can land within one millisecond, so
	// disambiguate colliding names instead of overwriting.
	name := base + ".json"
	path := filepath.Join(l.dir, name)
	for seq := 1; ; seq++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
		if err == nil {
			if _, werr := f.Write(data); werr != nil {
				f.Close()
				return fmt.Errorf("failed to write audit file: %w", werr)
			}
			if cerr := f.Close(); cerr != nil {
				return fmt.Errorf("failed to close audit file: %w", cerr)
			}
			break
		}
		if !os.IsExist(err) {
			return fmt.Errorf("failed to create audit file: %w", err)
		}
		name = fmt.Sprintf("%s_%d.json", base, seq)
		path = filepath.Join(l.dir, name)
	}

	l.logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"file_name":  name,
	}).Debug("Archived event payload")

	return nil
}
