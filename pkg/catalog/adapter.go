package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
)

// DefaultDisplayLimit is the number of listings shown per search.
const DefaultDisplayLimit = 5

// Result is the outcome of one search.
type Result struct {
	// Cards is the outbound list: capped listings or a single NoMatch card.
	Cards []domain.Card
	// Matches are the listings shown, in catalog order.
	Matches []domain.Property
	// Total is the number of listings that matched before capping.
	Total int
	// NoMatch is set when filters were supplied and nothing matched.
	NoMatch bool
	// Unfiltered is set when no filter was supplied.
	Unfiltered bool
}

// Adapter runs searches against a catalog.
type Adapter struct {
	catalog ports.Catalog
	limit   int
	logger  *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithDisplayLimit caps the number of listings returned per search.
func WithDisplayLimit(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAdapter wraps a catalog.
func NewAdapter(c ports.Catalog, opts ...Option) *Adapter {
	a := &Adapter{
		catalog: c,
		limit:   DefaultDisplayLimit,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Search runs one query for the criteria. The catalog is a local lookup, so
// failures are returned as-is without retrying.
func (a *Adapter) Search(ctx context.Context, c domain.Criteria) (Result, error) {
	f := NewFilter(c)
	var m ports.Matcher = f
	if f.Empty() {
		m = matchAll{}
	}

	found, err := a.catalog.Search(ctx, m)
	if err != nil {
		return Result{}, fmt.Errorf("catalog search failed: %w", err)
	}

	res := Result{Total: len(found), Unfiltered: f.Empty()}
	if len(found) == 0 {
		if res.Unfiltered {
			res.Cards = []domain.Card{}
			return res, nil
		}
		res.NoMatch = true
		msg, err := a.noMatchMessage(ctx, f)
		if err != nil {
			return Result{}, err
		}
		res.Cards = []domain.Card{domain.NoMatchCard(msg)}
		a.logger.Debug("Search found nothing", "filters", strings.Join(c.Fields(), ","))
		return res, nil
	}

	shown := found
	if len(shown) > a.limit {
		shown = shown[:a.limit]
	}
	res.Matches = shown
	res.Cards = make([]domain.Card, len(shown))
	for i, p := range shown {
		res.Cards[i] = domain.PropertyCard(p)
	}
	if len(found) > a.limit {
		res.Cards[0].SearchMessage = RefinementMessage(a.limit, len(found), c)
	}
	a.logger.Debug("Search completed", "total", res.Total, "shown", len(shown))
	return res, nil
}

// Get returns one listing.
func (a *Adapter) Get(ctx context.Context, id string) (*domain.Property, error) {
	return a.catalog.Get(ctx, id)
}

// Details returns the expanded view of a listing.
func (a *Adapter) Details(ctx context.Context, id string) (*domain.Details, error) {
	return a.catalog.Details(ctx, id)
}

// Slots returns viewing times for a listing.
func (a *Adapter) Slots(ctx context.Context, id string) ([]domain.Slot, error) {
	return a.catalog.Slots(ctx, id)
}

func (a *Adapter) noMatchMessage(ctx context.Context, f Filter) (string, error) {
	if f.RentExact == nil {
		return "No properties match all of your criteria. Try widening your budget or changing the location or bedroom count.", nil
	}
	price := *f.RentExact
	below, err := a.catalog.Search(ctx, rentBelow(price))
	if err != nil {
		return "", fmt.Errorf("catalog search failed: %w", err)
	}
	above, err := a.catalog.Search(ctx, rentAbove(price))
	if err != nil {
		return "", fmt.Errorf("catalog search failed: %w", err)
	}
	return ExactPriceSuggestion(price, len(below), len(above)), nil
}

// ExactPriceSuggestion explains an empty exact-rent search and points at the
// directions where listings exist.
func ExactPriceSuggestion(price, under, above int) string {
	var options []string
	if under > 0 {
		options = append(options, fmt.Sprintf("under $%d", price))
	}
	if above > 0 {
		options = append(options, fmt.Sprintf("above $%d", price))
	}
	if len(options) == 0 {
		return fmt.Sprintf("We couldn't find properties at exactly $%d. Try specifying other criteria like location, bedrooms, or pet policy to find available options.", price)
	}
	return fmt.Sprintf("We couldn't find properties at exactly $%d. Try searching for properties %s, or specify other criteria like location, bedrooms, or pet policy to find more options.",
		price, strings.Join(options, " or "))
}

// RefinementMessage tells the user the list was capped and which criteria
// would narrow it.
func RefinementMessage(shown, total int, c domain.Criteria) string {
	var missing []string
	if c.Bedrooms == nil {
		missing = append(missing, "bedrooms")
	}
	if c.Pets == "" {
		missing = append(missing, "pet policy")
	}
	if c.RentMin == nil && c.RentMax == nil && c.RentExact == nil {
		missing = append(missing, "rent range")
	}
	if c.City == "" && c.Area == "" {
		missing = append(missing, "location")
	}
	msg := fmt.Sprintf("Showing %d of %d results.", shown, total)
	if len(missing) == 0 {
		return msg + " Try being more specific to find exactly what you need."
	}
	return fmt.Sprintf("%s Try adding %s to find exactly what you need.", msg, joinOr(missing))
}

func joinOr(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
