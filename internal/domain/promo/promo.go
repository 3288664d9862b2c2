package promo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a referenced promotion does not exist.
	ErrNotFound = errors.New("promotion not found")
	// ErrInvalidDiscount is returned when a discount percent is outside [0, 100).
	ErrInvalidDiscount = errors.New("discount percent must be in [0, 100)")
	// ErrInvalidWindow is returned when a validity window ends before it starts.
	ErrInvalidWindow = errors.New("valid_from must not be after valid_to")
)

// Promotion is a time-bounded percentage discount. Products participate via
// assignments; one product may be covered by several overlapping promotions.
type Promotion struct {
	ID              int64
	Name            string
	DiscountPercent int
	ValidFrom       time.Time
	ValidTo         time.Time
}

// ActiveAt reports whether the promotion's validity window covers at.
// Both window bounds are inclusive.
func (p Promotion) ActiveAt(at time.Time) bool {
	return !at.Before(p.ValidFrom) && !at.After(p.ValidTo)
}

// Validate checks the promotion's structural invariants.
func (p Promotion) Validate() error {
	if p.DiscountPercent < 0 || p.DiscountPercent >= 100 {
		return ErrInvalidDiscount
	}
	if p.ValidFrom.After(p.ValidTo) {
		return ErrInvalidWindow
	}
	return nil
}

// Repository defines persistence operations for promotions and their
// product assignments.
type Repository interface {
	Create(ctx context.Context, p *Promotion) (int64, error)
	AssignProduct(ctx context.Context, promotionID, productID int64) error
	// ActiveFor returns all promotions assigned to the product whose
	// validity window covers at.
	ActiveFor(ctx context.Context, productID int64, at time.Time) ([]Promotion, error)
}
