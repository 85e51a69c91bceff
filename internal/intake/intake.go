// Package intake turns raw purchase input into validated domain records
// and funnels every mutation through one path: the session is updated
// synchronously so the UI sees the change at once, while the durable
// write and the sync notification run in the background.
package intake

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mfachrulrazy/smartgotrack-app/internal/core"
	"github.com/mfachrulrazy/smartgotrack-app/internal/log"
	"github.com/mfachrulrazy/smartgotrack-app/internal/session"
)

const (
	defaultQuantity = 1.0
	defaultUnit     = "pcs"

	// Sentinel slugs for records the assistant could not fully resolve.
	unknownItemID  = "unknown-item"
	unknownStoreID = "unknown-store"
)

// PurchaseUpserter is the slice of the store the intake service writes to.
type PurchaseUpserter interface {
	UpsertPurchase(ctx context.Context, userID string, p core.Purchase) error
}

// SyncPublisher notifies the export pipeline that a purchase changed.
// A nil publisher disables sync notifications.
type SyncPublisher interface {
	PublishPurchaseSync(ctx context.Context, purchaseID, userID string) error
}

// Input is the raw purchase data before normalization. Zero values take
// defaults where the field has one.
type Input struct {
	ID        string
	ItemName  string
	StoreName string
	Date      string
	Price     float64
	Quantity  float64
	Unit      string
}

// Slug normalizes a display name into a stable lowercase identifier.
// Empty names map to the given fallback sentinel.
func Slug(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// Build normalizes an Input into a validated Purchase. Defaults: the ID
// is generated, quantity is 1, unit is "pcs" and the date is today.
func Build(in Input, now time.Time) (core.Purchase, error) {
	if in.Price < 0 {
		return core.Purchase{}, core.ErrNegativePrice
	}

	qty := in.Quantity
	if qty == 0 {
		qty = defaultQuantity
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = defaultUnit
	}

	var date core.Date
	if strings.TrimSpace(in.Date) == "" {
		date = core.DateOf(now)
	} else {
		var err error
		date, err = core.ParseDate(in.Date)
		if err != nil {
			return core.Purchase{}, err
		}
	}

	id := in.ID
	if id == "" {
		id = "p-" + uuid.NewString()
	}

	priceCents := core.CentsFromFloat(in.Price)
	p := core.Purchase{
		ID:         id,
		ItemID:     Slug(in.ItemName, unknownItemID),
		ItemName:   strings.TrimSpace(in.ItemName),
		StoreID:    Slug(in.StoreName, unknownStoreID),
		StoreName:  strings.TrimSpace(in.StoreName),
		Date:       date,
		PriceCents: priceCents,
		Quantity:   qty,
		Unit:       unit,
		TotalCents: core.TotalCents(priceCents, qty),
	}
	if err := p.Validate(); err != nil {
		return core.Purchase{}, err
	}
	return p, nil
}

// Service applies purchase mutations to a session and persists them.
type Service struct {
	store     PurchaseUpserter
	publisher SyncPublisher
	logger    *log.Logger
	timeout   time.Duration
	now       func() time.Time
}

func NewService(store PurchaseUpserter, publisher SyncPublisher, logger *log.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentIntake),
		timeout:   10 * time.Second,
		now:       time.Now,
	}
}

// Create builds a purchase from in, prepends it to the session and
// persists it in the background. The returned purchase is final; a
// failed background write is logged and retried by the sync sweep.
func (s *Service) Create(ctx context.Context, sess *session.Session, in Input) (core.Purchase, error) {
	in.ID = ""
	p, err := Build(in, s.now())
	if err != nil {
		return core.Purchase{}, err
	}

	sess.Prepend(p)
	s.persistAsync(sess.UserID(), p, log.OpCreate)
	return p, nil
}

// Update replaces an existing purchase in the session and persists the
// new version. The purchase keeps its identity; all other fields come
// from in.
func (s *Service) Update(ctx context.Context, sess *session.Session, id string, in Input) (core.Purchase, error) {
	if strings.TrimSpace(id) == "" {
		return core.Purchase{}, core.ErrEmptyPurchaseID
	}
	in.ID = id
	p, err := Build(in, s.now())
	if err != nil {
		return core.Purchase{}, err
	}

	if !sess.Replace(p) {
		return core.Purchase{}, core.ErrPurchaseNotFound
	}
	s.persistAsync(sess.UserID(), p, log.OpUpdate)
	return p, nil
}

func (s *Service) persistAsync(userID string, p core.Purchase, op string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.store.UpsertPurchase(ctx, userID, p); err != nil {
			s.logger.Error("failed to persist purchase",
				log.FieldOperation, op,
				log.FieldUserID, userID,
				log.FieldPurchaseID, p.ID,
				log.FieldError, err)
			return
		}

		if s.publisher == nil {
			return
		}
		if err := s.publisher.PublishPurchaseSync(ctx, p.ID, userID); err != nil {
			s.logger.Warn("failed to publish sync notification",
				log.FieldUserID, userID,
				log.FieldPurchaseID, p.ID,
				log.FieldError, err)
		}
	}()
}
