package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mfachrulrazy/smartgotrack-app/internal/amqp"
	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/storage"
)

type fakeSyncStore struct {
	purchases map[string]storage.PendingPurchase
	statuses  map[string]string
	retried   int64
}

func newFakeSyncStore() *fakeSyncStore {
	return &fakeSyncStore{
		purchases: make(map[string]storage.PendingPurchase),
		statuses:  make(map[string]string),
	}
}

func (f *fakeSyncStore) add(userID string, p core.Purchase) {
	f.purchases[p.ID] = storage.PendingPurchase{Purchase: p, UserID: userID}
	f.statuses[p.ID] = storage.SyncPending
}

func (f *fakeSyncStore) GetPurchase(ctx context.Context, userID, id string) (core.Purchase, error) {
	row, ok := f.purchases[id]
	if !ok || row.UserID != userID {
		return core.Purchase{}, core.ErrPurchaseNotFound
	}
	return row.Purchase, nil
}

func (f *fakeSyncStore) SyncStatus(ctx context.Context, id string) (string, error) {
	status, ok := f.statuses[id]
	if !ok {
		return "", core.ErrPurchaseNotFound
	}
	return status, nil
}

func (f *fakeSyncStore) PendingSync(ctx context.Context, limit int) ([]storage.PendingPurchase, error) {
	var out []storage.PendingPurchase
	for id, status := range f.statuses {
		if status != storage.SyncPending {
			continue
		}
		out = append(out, f.purchases[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSyncStore) MarkSynced(ctx context.Context, id string) error {
	f.statuses[id] = storage.SyncSynced
	return nil
}

func (f *fakeSyncStore) MarkSyncError(ctx context.Context, id string) error {
	f.statuses[id] = storage.SyncError
	return nil
}

func (f *fakeSyncStore) RetryErrored(ctx context.Context) (int64, error) {
	var n int64
	for id, status := range f.statuses {
		if status == storage.SyncError {
			f.statuses[id] = storage.SyncPending
			n++
		}
	}
	f.retried += n
	return n, nil
}

type fakeExporter struct {
	exported []string
	err      error
}

func (f *fakeExporter) AppendPurchase(ctx context.Context, userID string, p core.Purchase) error {
	if f.err != nil {
		return f.err
	}
	f.exported = append(f.exported, p.ID)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func purchase(id string) core.Purchase {
	return core.Purchase{
		ID:         id,
		ItemID:     "milk",
		ItemName:   "Milk",
		StoreID:    "walmart",
		StoreName:  "Walmart",
		Date:       core.NewDate(2025, 3, 1),
		PriceCents: 349,
		Quantity:   1,
		Unit:       "gallon",
		TotalCents: 349,
	}
}

func TestHandleSyncMessage(t *testing.T) {
	store := newFakeSyncStore()
	store.add("u1", purchase("p-1"))
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, testLogger())

	msg := &amqp.PurchaseSyncMessage{PurchaseID: "p-1", UserID: "u1"}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(exporter.exported) != 1 || exporter.exported[0] != "p-1" {
		t.Fatalf("exported = %v", exporter.exported)
	}
	if store.statuses["p-1"] != storage.SyncSynced {
		t.Fatalf("status = %s, want synced", store.statuses["p-1"])
	}
}

func TestHandleSyncMessageAlreadySynced(t *testing.T) {
	store := newFakeSyncStore()
	store.add("u1", purchase("p-1"))
	store.statuses["p-1"] = storage.SyncSynced
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, testLogger())

	msg := &amqp.PurchaseSyncMessage{PurchaseID: "p-1", UserID: "u1"}
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncMessage: %v", err)
	}
	if len(exporter.exported) != 0 {
		t.Fatal("already synced purchase was re-exported")
	}
}

func TestHandleSyncMessageUnknownPurchase(t *testing.T) {
	w := NewSyncWorker(newFakeSyncStore(), &fakeExporter{}, 10, testLogger())
	msg := &amqp.PurchaseSyncMessage{PurchaseID: "missing", UserID: "u1"}
	if err := w.HandleSyncMessage(context.Background(), msg); !errors.Is(err, core.ErrPurchaseNotFound) {
		t.Fatalf("err = %v, want ErrPurchaseNotFound", err)
	}
}

func TestHandleSyncMessageExportFailure(t *testing.T) {
	store := newFakeSyncStore()
	store.add("u1", purchase("p-1"))
	exporter := &fakeExporter{err: errors.New("sheets unavailable")}
	w := NewSyncWorker(store, exporter, 10, testLogger())

	msg := &amqp.PurchaseSyncMessage{PurchaseID: "p-1", UserID: "u1"}
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected export error")
	}
	if store.statuses["p-1"] != storage.SyncError {
		t.Fatalf("status = %s, want error", store.statuses["p-1"])
	}
}

func TestProcessPending(t *testing.T) {
	store := newFakeSyncStore()
	store.add("u1", purchase("p-1"))
	store.add("u1", purchase("p-2"))
	store.statuses["p-2"] = storage.SyncSynced
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, testLogger())

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(exporter.exported) != 1 || exporter.exported[0] != "p-1" {
		t.Fatalf("exported = %v", exporter.exported)
	}
}

func TestStartupSyncCheckRetriesErrored(t *testing.T) {
	store := newFakeSyncStore()
	store.add("u1", purchase("p-1"))
	store.statuses["p-1"] = storage.SyncError
	exporter := &fakeExporter{}
	w := NewSyncWorker(store, exporter, 10, testLogger())

	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("StartupSyncCheck: %v", err)
	}
	if store.retried != 1 {
		t.Fatalf("retried = %d, want 1", store.retried)
	}
	if store.statuses["p-1"] != storage.SyncSynced {
		t.Fatalf("status = %s, want synced", store.statuses["p-1"])
	}
}
