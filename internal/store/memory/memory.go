// Package memory is the in-process backend. Purchases live only for
// the lifetime of the process; catalogs seed from data files.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
)

type Store struct {
	mu        sync.Mutex
	items     []core.Item
	stores    []core.Store
	purchases map[string][]core.Purchase
}

func New(items []core.Item, stores []core.Store) *Store {
	return &Store{
		items:     items,
		stores:    stores,
		purchases: make(map[string][]core.Purchase),
	}
}

// NewFromFiles seeds the catalogs from base/seed_items.txt and
// base/seed_stores.txt, falling back to built-in defaults when the
// files are missing or empty.
func NewFromFiles(base string) *Store {
	items := readItems(filepath.Join(base, "seed_items.txt"))
	stores := readStores(filepath.Join(base, "seed_stores.txt"))
	if len(items) == 0 {
		items = defaultItems()
	}
	if len(stores) == 0 {
		stores = defaultStores()
	}
	return New(items, stores)
}

func (s *Store) ListPurchases(_ context.Context, userID string) ([]core.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Purchase, len(s.purchases[userID]))
	copy(out, s.purchases[userID])
	return out, nil
}

func (s *Store) UpsertPurchase(_ context.Context, userID string, p core.Purchase) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.purchases[userID]
	for i := range list {
		if list[i].ID == p.ID {
			list[i] = p
			return nil
		}
	}
	s.purchases[userID] = append([]core.Purchase{p}, list...)
	return nil
}

func (s *Store) Catalog(_ context.Context) ([]core.Item, []core.Store, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]core.Item(nil), s.items...)
	stores := append([]core.Store(nil), s.stores...)
	return items, stores, nil
}

// readItems parses "Name|Category|DefaultUnit" lines. Missing fields
// take empty values; blank lines and # comments are skipped.
func readItems(path string) []core.Item {
	var out []core.Item
	for _, line := range readLines(path) {
		parts := strings.SplitN(line, "|", 3)
		item := core.Item{
			ID:   slug(parts[0]),
			Name: strings.TrimSpace(parts[0]),
		}
		if len(parts) > 1 {
			item.Category = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			item.DefaultUnit = strings.TrimSpace(parts[2])
		}
		out = append(out, item)
	}
	return out
}

func readStores(path string) []core.Store {
	var out []core.Store
	for _, line := range readLines(path) {
		out = append(out, core.Store{ID: slug(line), Name: line})
	}
	return out
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	seen := map[string]struct{}{}
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "-")
}

func defaultItems() []core.Item {
	return []core.Item{
		{ID: "milk", Name: "Milk", Category: "Dairy", DefaultUnit: "gallon"},
		{ID: "eggs", Name: "Eggs", Category: "Dairy", DefaultUnit: "dozen"},
		{ID: "rice", Name: "Rice", Category: "Pantry", DefaultUnit: "kg"},
		{ID: "chicken-breast", Name: "Chicken Breast", Category: "Meat", DefaultUnit: "lb"},
		{ID: "bananas", Name: "Bananas", Category: "Produce", DefaultUnit: "lb"},
	}
}

func defaultStores() []core.Store {
	return []core.Store{
		{ID: "walmart", Name: "Walmart"},
		{ID: "target", Name: "Target"},
		{ID: "whole-foods", Name: "Whole Foods"},
		{ID: "costco", Name: "Costco"},
		{ID: "kroger", Name: "Kroger"},
	}
}
