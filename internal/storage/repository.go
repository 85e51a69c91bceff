// Package storage is the SQLite persistence backend. Each purchase row
// carries a sync_status column that drives the Google Sheets export
// pipeline: new and updated rows go back to pending until the worker
// exports them.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"

	_ "modernc.org/sqlite"
)

// Sync states for a purchase row.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

// PendingPurchase is a row waiting for export.
type PendingPurchase struct {
	Purchase  core.Purchase
	UserID    string
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, item_id, item_name, store_id, store_name,
		       purchase_date, price_cents, quantity, unit, total_cents
		FROM purchases
		WHERE user_id = ?
		ORDER BY purchase_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	var out []core.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetPurchase(ctx context.Context, userID, id string) (core.Purchase, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, item_id, item_name, store_id, store_name,
		       purchase_date, price_cents, quantity, unit, total_cents
		FROM purchases
		WHERE user_id = ? AND id = ?`, userID, id)

	p, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return core.Purchase{}, core.ErrPurchaseNotFound
	}
	if err != nil {
		return core.Purchase{}, err
	}
	return p, nil
}

// UpsertPurchase writes the purchase and resets its sync status so the
// exporter picks up the new version.
func (r *SQLiteRepository) UpsertPurchase(ctx context.Context, userID string, p core.Purchase) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, item_id, item_name, store_id, store_name,
		                       purchase_date, price_cents, quantity, unit, total_cents, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_id = excluded.item_id,
			item_name = excluded.item_name,
			store_id = excluded.store_id,
			store_name = excluded.store_name,
			purchase_date = excluded.purchase_date,
			price_cents = excluded.price_cents,
			quantity = excluded.quantity,
			unit = excluded.unit,
			total_cents = excluded.total_cents,
			sync_status = excluded.sync_status,
			updated_at = CURRENT_TIMESTAMP`,
		p.ID, userID, p.ItemID, p.ItemName, p.StoreID, p.StoreName,
		p.Date.Key(), p.PriceCents, p.Quantity, p.Unit, p.TotalCents, SyncPending)
	if err != nil {
		return fmt.Errorf("upsert purchase: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Catalog(ctx context.Context) ([]core.Item, []core.Store, error) {
	itemRows, err := r.db.QueryContext(ctx,
		`SELECT id, name, category, default_unit FROM items ORDER BY name`)
	if err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}
	defer itemRows.Close()

	var items []core.Item
	for itemRows.Next() {
		var it core.Item
		if err := itemRows.Scan(&it.ID, &it.Name, &it.Category, &it.DefaultUnit); err != nil {
			return nil, nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := itemRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("list items: %w", err)
	}

	storeRows, err := r.db.QueryContext(ctx, `SELECT id, name FROM stores ORDER BY name`)
	if err != nil {
		return nil, nil, fmt.Errorf("list stores: %w", err)
	}
	defer storeRows.Close()

	var stores []core.Store
	for storeRows.Next() {
		var st core.Store
		if err := storeRows.Scan(&st.ID, &st.Name); err != nil {
			return nil, nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, st)
	}
	if err := storeRows.Err(); err != nil {
		return nil, nil, fmt.Errorf("list stores: %w", err)
	}

	return items, stores, nil
}

// PendingSync returns up to limit purchases waiting for export, oldest
// first.
func (r *SQLiteRepository) PendingSync(ctx context.Context, limit int) ([]PendingPurchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, item_id, item_name, store_id, store_name,
		       purchase_date, price_cents, quantity, unit, total_cents, created_at
		FROM purchases
		WHERE sync_status = ?
		ORDER BY created_at ASC
		LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync purchases: %w", err)
	}
	defer rows.Close()

	var out []PendingPurchase
	for rows.Next() {
		var (
			p         core.Purchase
			userID    string
			dateKey   string
			createdAt time.Time
		)
		err := rows.Scan(&p.ID, &userID, &p.ItemID, &p.ItemName, &p.StoreID, &p.StoreName,
			&dateKey, &p.PriceCents, &p.Quantity, &p.Unit, &p.TotalCents, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan pending purchase: %w", err)
		}
		p.Date, err = core.ParseDate(dateKey)
		if err != nil {
			return nil, fmt.Errorf("parse purchase date %q: %w", dateKey, err)
		}
		out = append(out, PendingPurchase{Purchase: p, UserID: userID, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending sync purchases: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) SyncStatus(ctx context.Context, id string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT sync_status FROM purchases WHERE id = ?`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return "", core.ErrPurchaseNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get sync status: %w", err)
	}
	return status, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncSynced)
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	return r.setSyncStatus(ctx, id, SyncError)
}

// RetryErrored moves errored rows back to pending so the sweep retries
// them. Returns the number of rows reset.
func (r *SQLiteRepository) RetryErrored(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET sync_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE sync_status = ?`, SyncPending, SyncError)
	if err != nil {
		return 0, fmt.Errorf("retry errored purchases: %w", err)
	}
	return res.RowsAffected()
}

func (r *SQLiteRepository) setSyncStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE purchases SET sync_status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if n == 0 {
		return core.ErrPurchaseNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row scanner) (core.Purchase, error) {
	var (
		p       core.Purchase
		dateKey string
	)
	err := row.Scan(&p.ID, &p.ItemID, &p.ItemName, &p.StoreID, &p.StoreName,
		&dateKey, &p.PriceCents, &p.Quantity, &p.Unit, &p.TotalCents)
	if err != nil {
		return core.Purchase{}, err
	}
	p.Date, err = core.ParseDate(dateKey)
	if err != nil {
		return core.Purchase{}, fmt.Errorf("parse purchase date %q: %w", dateKey, err)
	}
	return p, nil
}
