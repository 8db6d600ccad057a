package main

import (
	"context"
	"errors"
	"os"
	"time"

	"envelope/internal/cli"
	"envelope/internal/events"
	"envelope/internal/export"
	"envelope/internal/export/google"
	"envelope/internal/export/memory"
	"envelope/internal/log"
	"envelope/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger().WithComponent(log.ComponentWorker)

	logger.Info("Starting envelope-worker")

	cfg := cli.LoadAndValidateConfig(logger, os.Getenv("ENVELOPE_CONFIG"))

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required to run the export worker")
		os.Exit(1)
	}

	// Choose export destination. Without a spreadsheet id the worker
	// still drains the queue, appending to an in-memory store.
	var (
		writer    export.TransactionWriter
		snapshots export.SummaryWriter
	)
	if cfg.GoogleSpreadsheetID != "" {
		sheetsClient, err := google.New(context.Background(), google.Config{
			SpreadsheetID:      cfg.GoogleSpreadsheetID,
			TransactionsSheet:  cfg.GoogleTransactionsSheet,
			SummariesSheet:     cfg.GoogleSummariesSheet,
			ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
			ServiceAccountFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		writer, snapshots = sheetsClient, sheetsClient
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		memStore := memory.New()
		writer, snapshots = memStore, memStore
		logger.Info("Google Sheets disabled, exporting to in-memory store")
	}

	eventsClient, err := events.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer eventsClient.Close()

	exportWorker := worker.NewExportWorker(store, writer, snapshots, int64(cfg.ExportBatchSize))

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// Catch up on rows recorded while the worker was down.
	if err := exportWorker.ProcessPendingTransactions(ctx); err != nil {
		logger.Error("Startup export check failed", log.FieldError, err)
	}

	if err := exportWorker.Run(ctx, eventsClient, cfg.ExportInterval); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped gracefully")
}
