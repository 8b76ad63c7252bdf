package integration_test

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"msgvault/internal/audit"
	"msgvault/internal/database"
	"msgvault/internal/migrations"
	"msgvault/internal/service"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const schema = `
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

// TestEnvironment wires a real processor against a temp database and audit
// directory, the same composition the receiver binary builds at startup.
type TestEnvironment struct {
	DB        *database.Database
	AuditDir  string
	Logger    *logrus.Logger
	Processor *service.Processor

	tmpDir string
}

func NewTestEnvironment(t *testing.T) *TestEnvironment {
	t.Helper()

	tmpDir := t.TempDir()

	migrationsPath := filepath.Join(tmpDir, "migrations")
	require.NoError(t, os.MkdirAll(migrationsPath, 0755))
	require.NoError(t, os.WriteFile(
		filepath.Join(migrationsPath, "001_initial_schema.sql"), []byte(schema), 0644))

	originalMigrationsDir := migrations.MigrationsDir
	migrations.MigrationsDir = migrationsPath

	db, err := database.New(filepath.Join(tmpDir, "live.db"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	auditDir := filepath.Join(tmpDir, "audit")

	env := &TestEnvironment{
		DB:        db,
		AuditDir:  auditDir,
		Logger:    logger,
		Processor: service.NewProcessor(db, audit.NewLog(auditDir, logger), logger),
		tmpDir:    tmpDir,
	}

	t.Cleanup(func() {
		_ = db.Close()
		migrations.MigrationsDir = originalMigrationsDir
	})

	return env
}

// NewArchiveDatabase opens a second, empty database in the environment,
// standing in for the fresh store an operator replays an archive into.
func (env *TestEnvironment) NewArchiveDatabase(t *testing.T) *database.Database {
	t.Helper()

	db, err := database.New(filepath.Join(env.tmpDir, "replayed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// reportFileNames lists a batch reports directory.
func reportFileNames(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

// AuditFileNames lists the audit directory, empty when nothing was written.
func (env *TestEnvironment) AuditFileNames(t *testing.T) []string {
	t.Helper()

	entries, err := os.ReadDir(env.AuditDir)
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
