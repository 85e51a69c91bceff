// Package store defines the persistence ports and the backend factory
// that wires a concrete implementation from configuration.
package store

import (
	"context"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
)

// PurchaseLister reads a user's full purchase history, newest first.
type PurchaseLister interface {
	ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error)
}

// PurchaseUpserter writes a purchase, replacing any record with the
// same ID.
type PurchaseUpserter interface {
	UpsertPurchase(ctx context.Context, userID string, p core.Purchase) error
}

// CatalogReader serves the static item and store catalogs.
type CatalogReader interface {
	Catalog(ctx context.Context) ([]core.Item, []core.Store, error)
}

// Store is the full persistence surface the application needs.
type Store interface {
	PurchaseLister
	PurchaseUpserter
	CatalogReader
}
