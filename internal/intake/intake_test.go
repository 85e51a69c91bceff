package intake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/session"
)

type fakeStore struct {
	mu       sync.Mutex
	upserted []core.Purchase
	err      error
	done     chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{done: make(chan struct{}, 8)}
}

func (f *fakeStore) UpsertPurchase(ctx context.Context, userID string, p core.Purchase) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	defer func() { f.done <- struct{}{} }()
	if f.err != nil {
		return f.err
	}
	f.upserted = append(f.upserted, p)
	return nil
}

func (f *fakeStore) ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error) {
	return nil, nil
}

func (f *fakeStore) wait(t *testing.T) {
	t.Helper()
	select {
	case <-f.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for background persist")
	}
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakePublisher) PublishPurchaseSync(ctx context.Context, purchaseID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, purchaseID)
	return nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func fixedNow() time.Time {
	return time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		fallback string
		want     string
	}{
		{"Whole Foods", "unknown-store", "whole-foods"},
		{"  Milk  ", "unknown-item", "milk"},
		{"Chicken  Breast", "unknown-item", "chicken-breast"},
		{"", "unknown-item", "unknown-item"},
		{"   ", "unknown-store", "unknown-store"},
	}
	for _, tt := range tests {
		if got := Slug(tt.name, tt.fallback); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestBuildDefaults(t *testing.T) {
	p, err := Build(Input{ItemName: "Milk", StoreName: "Walmart", Price: 3.49}, fixedNow())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !strings.HasPrefix(p.ID, "p-") {
		t.Errorf("ID = %q, want p- prefix", p.ID)
	}
	if p.Quantity != 1 {
		t.Errorf("Quantity = %v, want 1", p.Quantity)
	}
	if p.Unit != "pcs" {
		t.Errorf("Unit = %q, want pcs", p.Unit)
	}
	if p.Date.Key() != "2025-03-15" {
		t.Errorf("Date = %s, want today", p.Date.Key())
	}
	if p.PriceCents != 349 {
		t.Errorf("PriceCents = %d, want 349", p.PriceCents)
	}
	if p.TotalCents != 349 {
		t.Errorf("TotalCents = %d, want 349", p.TotalCents)
	}
	if p.ItemID != "milk" || p.StoreID != "walmart" {
		t.Errorf("slugs = %q/%q", p.ItemID, p.StoreID)
	}
}

func TestBuildRejections(t *testing.T) {
	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{"negative price", Input{ItemName: "Milk", Price: -1}, core.ErrNegativePrice},
		{"negative quantity", Input{ItemName: "Milk", Price: 1, Quantity: -2}, core.ErrInvalidQuantity},
		{"bad date", Input{ItemName: "Milk", Price: 1, Date: "2023-02-29"}, core.ErrInvalidDate},
		{"empty item name", Input{Price: 1}, core.ErrEmptyItemName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.in, fixedNow())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildZeroPriceAllowed(t *testing.T) {
	p, err := Build(Input{ItemName: "Sample", Price: 0}, fixedNow())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.PriceCents != 0 || p.TotalCents != 0 {
		t.Fatalf("cents = %d/%d, want 0/0", p.PriceCents, p.TotalCents)
	}
}

func TestBuildUnknownSentinels(t *testing.T) {
	p, err := Build(Input{ItemName: "Milk", StoreName: "", Price: 2}, fixedNow())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if p.StoreID != "unknown-store" {
		t.Errorf("StoreID = %q, want unknown-store", p.StoreID)
	}
}

func TestServiceCreate(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := NewService(store, pub, testLogger())
	svc.now = fixedNow

	mgr := session.NewManager(store, testLogger())
	sess := mgr.Get(context.Background(), "u1")

	p, err := svc.Create(context.Background(), sess, Input{ItemName: "Eggs", StoreName: "Target", Price: 4.99})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Len() != 1 {
		t.Fatalf("session length = %d, want 1", sess.Len())
	}
	if sess.Snapshot()[0].ID != p.ID {
		t.Fatal("session does not hold the created purchase")
	}

	store.wait(t)
	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.upserted) != 1 || store.upserted[0].ID != p.ID {
		t.Fatalf("store upserts = %+v", store.upserted)
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.messages) != 1 || pub.messages[0] != p.ID {
		t.Fatalf("published = %v", pub.messages)
	}
}

func TestServiceCreateSurvivesStoreError(t *testing.T) {
	store := newFakeStore()
	store.err = errors.New("disk full")
	svc := NewService(store, nil, testLogger())
	svc.now = fixedNow

	mgr := session.NewManager(store, testLogger())
	sess := mgr.Get(context.Background(), "u1")

	_, err := svc.Create(context.Background(), sess, Input{ItemName: "Rice", Price: 9.99})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Len() != 1 {
		t.Fatal("session should keep the purchase even if persistence fails")
	}
	store.wait(t)
}

func TestServiceUpdate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, testLogger())
	svc.now = fixedNow

	mgr := session.NewManager(store, testLogger())
	sess := mgr.Get(context.Background(), "u1")

	created, err := svc.Create(context.Background(), sess, Input{ItemName: "Milk", StoreName: "Walmart", Price: 3.49})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	store.wait(t)

	updated, err := svc.Update(context.Background(), sess, created.ID, Input{
		ItemName: "Milk", StoreName: "Costco", Price: 2.99, Quantity: 2, Unit: "gal",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != created.ID {
		t.Fatalf("ID changed: %s -> %s", created.ID, updated.ID)
	}
	if updated.StoreID != "costco" || updated.TotalCents != 598 {
		t.Fatalf("updated = %+v", updated)
	}
	if sess.Snapshot()[0].StoreName != "Costco" {
		t.Fatal("session not updated in place")
	}
	store.wait(t)
}

func TestServiceUpdateUnknownID(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, nil, testLogger())
	svc.now = fixedNow

	mgr := session.NewManager(store, testLogger())
	sess := mgr.Get(context.Background(), "u1")

	_, err := svc.Update(context.Background(), sess, "p-missing", Input{ItemName: "Milk", Price: 1})
	if !errors.Is(err, core.ErrPurchaseNotFound) {
		t.Fatalf("err = %v, want ErrPurchaseNotFound", err)
	}

	_, err = svc.Update(context.Background(), sess, "  ", Input{ItemName: "Milk", Price: 1})
	if !errors.Is(err, core.ErrEmptyPurchaseID) {
		t.Fatalf("err = %v, want ErrEmptyPurchaseID", err)
	}
}
