package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar day. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Purchase is one logged grocery purchase. ItemName and StoreName are
	// denormalized from the catalogs so views never need a join.
	Purchase struct {
		ID         string  `json:"id"`
		ItemID     string  `json:"itemId"`
		ItemName   string  `json:"itemName"`
		StoreID    string  `json:"storeId"`
		StoreName  string  `json:"storeName"`
		Date       Date    `json:"date"`
		PriceCents int64   `json:"priceCents"`
		Quantity   float64 `json:"quantity"`
		Unit       string  `json:"unit"`
		TotalCents int64   `json:"totalCents"`
	}

	// Item is an entry in the static item catalog.
	Item struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Category    string `json:"category"`
		DefaultUnit string `json:"defaultUnit"`
	}

	// Store is an entry in the static store catalog.
	Store struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

var (
	ErrEmptyItemName   = errors.New("empty item name")
	ErrNegativePrice   = errors.New("negative price")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrTotalMismatch   = errors.New("total does not match price times quantity")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyPurchaseID = errors.New("empty purchase id")

	ErrPurchaseNotFound = errors.New("purchase not found")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO date string. Timestamps with a time component are
// accepted and truncated to the day.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Key returns the canonical YYYY-MM-DD form used for bucketing and storage.
func (d Date) Key() string {
	return d.Format(dateLayout)
}

// AddDays returns the date n calendar days later. Month and year rollover,
// including leap days, follow the civil calendar.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// YearEarlier returns the same calendar day one year before. Feb 29 clamps
// to Feb 28 when the prior year is not a leap year.
func (d Date) YearEarlier() Date {
	prev := d.AddDate(-1, 0, 0)
	if prev.Month() != d.Time.Month() {
		// AddDate normalized an invalid day (Feb 29 -> Mar 1); back up to
		// the last day of the intended month.
		prev = prev.AddDate(0, 0, -prev.Day())
	}
	return Date{Time: prev}
}

// AfterDate reports whether d falls on a later calendar day than other.
func (d Date) AfterDate(other Date) bool {
	return d.Time.After(other.Time)
}

// BeforeDate reports whether d falls on an earlier calendar day than other.
func (d Date) BeforeDate(other Date) bool {
	return d.Time.Before(other.Time)
}

// MarshalJSON encodes the date as its ISO day string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Key() + `"`), nil
}

// UnmarshalJSON decodes an ISO date string, tolerating a time suffix.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Validate checks the purchase invariants. A zero price is allowed (free
// items, coupons down to zero); negative prices and non-positive quantities
// are not.
func (p Purchase) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return ErrEmptyPurchaseID
	}
	if strings.TrimSpace(p.ItemName) == "" {
		return ErrEmptyItemName
	}
	if p.PriceCents < 0 {
		return ErrNegativePrice
	}
	if p.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if err := p.Date.Validate(); err != nil {
		return err
	}
	if p.TotalCents != TotalCents(p.PriceCents, p.Quantity) {
		return ErrTotalMismatch
	}
	return nil
}
