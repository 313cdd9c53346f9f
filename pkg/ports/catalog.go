package ports

import (
	"context"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Matcher decides whether a listing satisfies a search.
type Matcher interface {
	Match(p domain.Property) bool
}

// Catalog is the read-only listing source.
type Catalog interface {
	// Search returns every listing accepted by m, in catalog order.
	Search(ctx context.Context, m Matcher) ([]domain.Property, error)

	// Details returns the expanded view of one listing.
	// Returns domain.ErrPropertyNotFound for unknown IDs.
	Details(ctx context.Context, id string) (*domain.Details, error)

	// Slots returns the bookable viewing times for one listing.
	// Returns domain.ErrPropertyNotFound for unknown IDs.
	Slots(ctx context.Context, id string) ([]domain.Slot, error)

	// Get returns a single listing.
	Get(ctx context.Context, id string) (*domain.Property, error)
}
