// Package session keeps the per-user working set of purchases that the
// HTTP layer reads from and the intake service mutates. Each session is
// loaded once from the backing store and then updated in place, so reads
// after a write see the new purchase without waiting for persistence.
package session

import (
	"context"
	"sync"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
)

// PurchaseLister is the slice of the store the manager needs to hydrate
// a session on first access.
type PurchaseLister interface {
	ListPurchases(ctx context.Context, userID string) ([]core.Purchase, error)
}

// Session owns one user's purchase list. All mutation goes through its
// methods; callers never hold a reference into the internal slice.
type Session struct {
	userID string

	mu        sync.RWMutex
	purchases []core.Purchase
}

// UserID returns the owner of this session.
func (s *Session) UserID() string {
	return s.userID
}

// Prepend inserts a purchase at the front of the list, matching the
// newest-first order the store returns.
func (s *Session) Prepend(p core.Purchase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchases = append([]core.Purchase{p}, s.purchases...)
}

// Replace swaps the purchase with the same ID in place. It reports
// whether a matching purchase was found.
func (s *Session) Replace(p core.Purchase) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.purchases {
		if s.purchases[i].ID == p.ID {
			s.purchases[i] = p
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current purchase list.
func (s *Session) Snapshot() []core.Purchase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Purchase, len(s.purchases))
	copy(out, s.purchases)
	return out
}

// Len returns the number of purchases in the session.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.purchases)
}

// Manager hands out sessions, creating and hydrating them lazily.
type Manager struct {
	store  PurchaseLister
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store PurchaseLister, logger *log.Logger) *Manager {
	return &Manager{
		store:    store,
		logger:   logger.WithComponent(log.ComponentSession),
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for userID, loading the purchase history from
// the store on first access. A load failure degrades to an empty session
// rather than blocking the user; the next restart retries the load.
func (m *Manager) Get(ctx context.Context, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[userID]; ok {
		return s
	}

	s := &Session{userID: userID}
	purchases, err := m.store.ListPurchases(ctx, userID)
	if err != nil {
		m.logger.Error("failed to load purchase history, starting empty",
			log.FieldUserID, userID,
			log.FieldError, err)
	} else {
		s.purchases = purchases
	}
	m.sessions[userID] = s
	return s
}

// Drop removes a user's session so the next Get reloads from the store.
func (m *Manager) Drop(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
