package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileOutcome records the result of importing a single archive file.
type FileOutcome struct {
	FileName string `json:"file_name"`
	Path     string `json:"path"`
	Reason   string `json:"reason,omitempty"`
}

// ImportReport summarizes one import batch. It is written to the reports
// directory as a JSON document plus a human-readable text summary, both
// stamped with the batch's start time so repeated runs never collide.
type ImportReport struct {
	BatchID     string        `json:"batch_id"`
	SourceDir   string        `json:"source_dir"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Succeeded   []FileOutcome `json:"succeeded"`
	Skipped     []FileOutcome `json:"skipped"`
	Failed      []FileOutcome `json:"failed"`
}

func newImportReport(sourceDir string, startedAt time.Time) *ImportReport {
	return &ImportReport{
		BatchID:   uuid.New().String(),
		SourceDir: sourceDir,
		StartedAt: startedAt.UTC(),
		Succeeded: []FileOutcome{},
		Skipped:   []FileOutcome{},
		Failed:    []FileOutcome{},
	}
}

// Write persists the JSON and text report artifacts to reportsDir.
func (r *ImportReport) Write(reportsDir string) error {
	if err := os.MkdirAll(reportsDir, 0750); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	stamp := r.StartedAt.Format("20060102T150405")

	jsonPath := filepath.Join(reportsDir, fmt.Sprintf("import_%s.json", stamp))
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	textPath := filepath.Join(reportsDir, fmt.Sprintf("import_%s.txt", stamp))
	if err := os.WriteFile(textPath, []byte(r.text()), 0600); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}

	return nil
}

func (r *ImportReport) text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Import batch %s\n", r.BatchID)
	fmt.Fprintf(&b, "Source:    %s\n", r.SourceDir)
	fmt.Fprintf(&b, "Started:   %s\n", r.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Completed: %s\n", r.CompletedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "\nSucceeded: %d  Skipped: %d  Failed: %d\n",
		len(r.Succeeded), len(r.Skipped), len(r.Failed))

	writeSection(&b, "Succeeded", "+", r.Succeeded)
	writeSection(&b, "Skipped", "-", r.Skipped)
	writeSection(&b, "Failed", "!", r.Failed)

	return b.String()
}

func writeSection(b *strings.Builder, title, marker string, outcomes []FileOutcome) {
	if len(outcomes) == 0 {
		return
	}

	fmt.Fprintf(b, "\n%s:\n", title)
	for _, outcome := range outcomes {
		if outcome.Reason != "" {
			fmt.Fprintf(b, "  [%s] %s (%s)\n", marker, outcome.FileName, outcome.Reason)
		} else {
			fmt.Fprintf(b, "  [%s] %s\n", marker, outcome.FileName)
		}
	}
}
