package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mfachrulrazy/smartgotrack-app/internal/amqp"
	"github.com/mfachrulrazy/smartgotrack-app/internal/config"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/sheets"
	"github.com/mfachrulrazy/smartgotrack-app/internal/storage"
	"github.com/mfachrulrazy/smartgotrack-app/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("starting gotrack-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("failed to initialize SQLite repository",
			log.FieldError, err,
			"path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without a spreadsheet the worker has nowhere to export to; keep
	// running so deploys stay uniform, but skip all sync work.
	var exporter *sheets.Exporter
	if cfg.SheetsSpreadsheetID != "" {
		exporter, err = sheets.NewExporter(ctx, sheets.Config{
			SpreadsheetID:      cfg.SheetsSpreadsheetID,
			SheetName:          cfg.SheetsSheetName,
			ServiceAccountFile: cfg.SheetsCredentialsFile,
		}, logger)
		if err != nil {
			logger.Error("failed to initialize Google Sheets exporter", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Google Sheets exporter initialized",
			"spreadsheet_id", cfg.SheetsSpreadsheetID,
			"sheet", cfg.SheetsSheetName)
	} else {
		logger.Info("Google Sheets disabled, no SHEETS_SPREADSHEET_ID provided")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
	} else {
		logger.Info("AMQP disabled, relying on the periodic sweep only")
	}

	var syncWorker *worker.SyncWorker
	if exporter != nil {
		syncWorker = worker.NewSyncWorker(repo, exporter, cfg.SyncBatchSize, logger)

		logger.Info("performing startup sync check")
		if err := syncWorker.StartupSyncCheck(ctx); err != nil {
			logger.Error("startup sync check failed", log.FieldError, err)
			// Keep going; the periodic sweep retries.
		}
	} else {
		logger.Info("skipping sync operations, no exporter available")
	}

	if syncWorker != nil && amqpClient != nil {
		go func() {
			err := amqpClient.ConsumePurchaseSync(ctx, func(msg *amqp.PurchaseSyncMessage) error {
				return syncWorker.HandleSyncMessage(ctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("message consumption failed", log.FieldError, err)
				cancel()
			}
		}()
	}

	if syncWorker != nil {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := syncWorker.ProcessPending(ctx); err != nil {
						logger.Error("periodic sync failed", log.FieldError, err)
					}
				}
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("context cancelled")
	}

	logger.Info("shutting down worker")
	cancel()

	// Give in-flight exports a moment to finish.
	time.Sleep(2 * time.Second)
	logger.Info("worker shutdown complete")
}
