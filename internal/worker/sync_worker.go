// Package worker moves purchases from the database to the Google
// Sheets export. AMQP messages drive the fast path; a periodic sweep
// over sync_status catches anything the messages missed.
package worker

import (
	"context"
	"fmt"

	"github.com/mfachrulrazy/smartgotrack-app/internal/amqp"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/storage"
)

// SyncStore is the database surface the worker needs.
type SyncStore interface {
	GetPurchase(ctx context.Context, userID, id string) (core.Purchase, error)
	SyncStatus(ctx context.Context, id string) (string, error)
	PendingSync(ctx context.Context, limit int) ([]storage.PendingPurchase, error)
	MarkSynced(ctx context.Context, id string) error
	MarkSyncError(ctx context.Context, id string) error
	RetryErrored(ctx context.Context) (int64, error)
}

// Exporter writes a purchase to the external sheet.
type Exporter interface {
	AppendPurchase(ctx context.Context, userID string, p core.Purchase) error
}

type SyncWorker struct {
	store     SyncStore
	exporter  Exporter
	logger    *log.Logger
	batchSize int
}

func NewSyncWorker(store SyncStore, exporter Exporter, batchSize int, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:     store,
		exporter:  exporter,
		logger:    logger.WithComponent(log.ComponentWorker),
		batchSize: batchSize,
	}
}

// HandleSyncMessage exports the purchase a message points at. The row
// is re-read from the database, so the freshest version always wins; a
// message for an already synced row is a no-op.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.PurchaseSyncMessage) error {
	status, err := w.store.SyncStatus(ctx, msg.PurchaseID)
	if err != nil {
		return fmt.Errorf("get sync status: %w", err)
	}
	if status == storage.SyncSynced {
		w.logger.DebugContext(ctx, "purchase already synced, skipping",
			log.FieldPurchaseID, msg.PurchaseID)
		return nil
	}

	p, err := w.store.GetPurchase(ctx, msg.UserID, msg.PurchaseID)
	if err != nil {
		return fmt.Errorf("get purchase: %w", err)
	}

	return w.export(ctx, msg.UserID, p)
}

// ProcessPending sweeps rows still marked pending. Backup path for lost
// or never-sent messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.PendingSync(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending purchases: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "processing pending purchases", "count", len(pending))

	for _, row := range pending {
		if err := w.export(ctx, row.UserID, row.Purchase); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync purchase",
				log.FieldPurchaseID, row.Purchase.ID,
				log.FieldError, err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at boot, with a
// larger batch, and resets errored rows so they get another attempt.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	retried, err := w.store.RetryErrored(ctx)
	if err != nil {
		return fmt.Errorf("retry errored purchases: %w", err)
	}
	if retried > 0 {
		w.logger.InfoContext(ctx, "reset errored purchases for retry", "count", retried)
	}

	pending, err := w.store.PendingSync(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending purchases for startup check: %w", err)
	}
	if len(pending) == 0 {
		w.logger.InfoContext(ctx, "no pending purchases found on startup")
		return nil
	}

	w.logger.InfoContext(ctx, "found pending purchases on startup", "count", len(pending))

	synced := 0
	errored := 0
	for _, row := range pending {
		if err := w.export(ctx, row.UserID, row.Purchase); err != nil {
			w.logger.ErrorContext(ctx, "failed to sync purchase during startup",
				log.FieldPurchaseID, row.Purchase.ID,
				log.FieldError, err)
			errored++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", errored)
	return nil
}

func (w *SyncWorker) export(ctx context.Context, userID string, p core.Purchase) error {
	if err := w.exporter.AppendPurchase(ctx, userID, p); err != nil {
		if markErr := w.store.MarkSyncError(ctx, p.ID); markErr != nil {
			w.logger.ErrorContext(ctx, "failed to mark sync error",
				log.FieldPurchaseID, p.ID,
				log.FieldError, markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.store.MarkSynced(ctx, p.ID); err != nil {
		// The export itself worked; the sweep will re-export once more
		// at worst.
		w.logger.ErrorContext(ctx, "failed to mark as synced",
			log.FieldPurchaseID, p.ID,
			log.FieldError, err)
	}

	w.logger.InfoContext(ctx, "purchase synced",
		log.FieldPurchaseID, p.ID,
		log.FieldUserID, userID,
		log.FieldItemName, p.ItemName,
		log.FieldAmount, p.TotalCents)
	return nil
}
