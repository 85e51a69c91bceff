package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

type fakeLister struct {
	purchases map[string][]core.Purchase
	err       error
	calls     int
}

func (f *fakeLister) ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.purchases[userID], nil
}

func testLogger() *log.Logger {
	return log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func samplePurchase(t *testing.T, id string) core.Purchase {
	return core.Purchase{
		ID:         id,
		ItemID:     "milk",
		ItemName:   "Milk",
		StoreID:    "walmart",
		StoreName:  "Walmart",
		Date:       mustDate(t, "2025-03-01"),
		PriceCents: 349,
		Quantity:   1,
		Unit:       "gal",
		TotalCents: 349,
	}
}

func TestManagerGetLoadsOnce(t *testing.T) {
	lister := &fakeLister{purchases: map[string][]core.Purchase{
		"u1": {samplePurchase(t, "p-1"), samplePurchase(t, "p-2")},
	}}
	mgr := NewManager(lister, testLogger())

	s := mgr.Get(context.Background(), "u1")
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	again := mgr.Get(context.Background(), "u1")
	if again != s {
		t.Fatal("expected the same session on second Get")
	}
	if lister.calls != 1 {
		t.Fatalf("store called %d times, want 1", lister.calls)
	}
}

func TestManagerGetDegradesToEmptyOnError(t *testing.T) {
	lister := &fakeLister{err: errors.New("db down")}
	mgr := NewManager(lister, testLogger())

	s := mgr.Get(context.Background(), "u1")
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}
}

func TestSessionPrependAndSnapshot(t *testing.T) {
	mgr := NewManager(&fakeLister{}, testLogger())
	s := mgr.Get(context.Background(), "u1")

	s.Prepend(samplePurchase(t, "p-1"))
	s.Prepend(samplePurchase(t, "p-2"))

	snap := s.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snap))
	}
	if snap[0].ID != "p-2" || snap[1].ID != "p-1" {
		t.Fatalf("unexpected order: %s, %s", snap[0].ID, snap[1].ID)
	}

	// Mutating the snapshot must not leak into the session.
	snap[0].ItemName = "Changed"
	if s.Snapshot()[0].ItemName == "Changed" {
		t.Fatal("snapshot shares backing array with session")
	}
}

func TestSessionReplace(t *testing.T) {
	mgr := NewManager(&fakeLister{}, testLogger())
	s := mgr.Get(context.Background(), "u1")
	s.Prepend(samplePurchase(t, "p-1"))

	updated := samplePurchase(t, "p-1")
	updated.PriceCents = 299
	updated.TotalCents = 299
	if !s.Replace(updated) {
		t.Fatal("Replace reported no match")
	}
	if got := s.Snapshot()[0].PriceCents; got != 299 {
		t.Fatalf("PriceCents = %d, want 299", got)
	}

	missing := samplePurchase(t, "p-404")
	if s.Replace(missing) {
		t.Fatal("Replace matched a purchase that does not exist")
	}
}

func TestManagerDrop(t *testing.T) {
	lister := &fakeLister{}
	mgr := NewManager(lister, testLogger())

	mgr.Get(context.Background(), "u1")
	mgr.Drop("u1")
	mgr.Get(context.Background(), "u1")

	if lister.calls != 2 {
		t.Fatalf("store called %d times, want 2", lister.calls)
	}
}
