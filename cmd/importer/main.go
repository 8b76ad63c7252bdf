package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"msgvault/internal/config"
	"msgvault/internal/database"
	"msgvault/internal/models"
	"msgvault/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	sourceDir  = flag.String("source", "", "Directory of archived event files (overrides config)")
	reportsDir = flag.String("reports", "", "Directory for batch reports (overrides config)")
)

// errImportFailed reports that the batch completed but some files failed.
var errImportFailed = errors.New("import completed with failures")

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	stop()
	if err != nil {
		if errors.Is(err, errImportFailed) {
			os.Exit(1)
		}
		logrus.Fatalf("Import error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	importCfg := models.ImportConfig{
		SourceDir:  cfg.Import.SourceDir,
		ReportsDir: cfg.Import.ReportsDir,
	}
	if *sourceDir != "" {
		importCfg.SourceDir = *sourceDir
	}
	if *reportsDir != "" {
		importCfg.ReportsDir = *reportsDir
	}
	if importCfg.SourceDir == "" {
		return fmt.Errorf("no source directory configured (set import.source_dir or -source)")
	}
	if importCfg.ReportsDir == "" {
		return fmt.Errorf("no reports directory configured (set import.reports_dir or -reports)")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	importer := service.NewImporter(db, importCfg, logger)
	report, err := importer.ImportAll(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Import batch %s completed: %d succeeded, %d skipped, %d failed\n",
		report.BatchID, len(report.Succeeded), len(report.Skipped), len(report.Failed))
	if len(report.Failed) > 0 {
		return errImportFailed
	}
	return nil
}
