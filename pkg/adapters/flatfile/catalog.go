// Package flatfile serves listings from a JSON or YAML file held in memory.
package flatfile

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/catalog"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
	"gopkg.in/yaml.v3"
)

//go:embed listings.yaml
var sampleListings []byte

// Record is the on-disk shape of a listing. IDs may be numbers or strings.
type Record struct {
	ID             any      `json:"id" yaml:"id"`
	Address        string   `json:"address" yaml:"address"`
	Bedrooms       int      `json:"bedrooms" yaml:"bedrooms"`
	Bathrooms      int      `json:"bathrooms" yaml:"bathrooms"`
	Rent           int      `json:"rent" yaml:"rent"`
	Pets           string   `json:"pets" yaml:"pets"`
	AvailableDates []string `json:"available_dates" yaml:"available_dates"`
}

// Catalog implements ports.Catalog over a fixed listing set.
type Catalog struct {
	props  []domain.Property
	byID   map[string]int
	slots  catalog.SlotGenerator
	logger *slog.Logger
}

var _ ports.Catalog = (*Catalog)(nil)

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the clock used for availability months and viewing slots.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.slots.Now = now
	}
}

// WithLocation sets the timezone viewing slots are generated in.
func WithLocation(loc *time.Location) Option {
	return func(c *Catalog) {
		c.slots.Location = loc
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// Load reads listings from path. The format follows the extension: .yaml and
// .yml are YAML, anything else is JSON.
func Load(path string, opts ...Option) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read listings: %w", err)
	}
	var recs []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &recs)
	default:
		err = json.Unmarshal(data, &recs)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse listings %s: %w", path, err)
	}
	return New(recs, opts...), nil
}

// Sample returns the built-in demo listings.
func Sample(opts ...Option) (*Catalog, error) {
	var recs []Record
	if err := yaml.Unmarshal(sampleListings, &recs); err != nil {
		return nil, fmt.Errorf("failed to parse sample listings: %w", err)
	}
	return New(recs, opts...), nil
}

// New builds a catalog from decoded records. Records without an ID are skipped;
// pet policies are normalised and missing availability is synthesised.
func New(recs []Record, opts ...Option) *Catalog {
	c := &Catalog{
		byID:   make(map[string]int, len(recs)),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	now := time.Now
	if c.slots.Now != nil {
		now = c.slots.Now
	}

	for _, r := range recs {
		if r.ID == nil {
			continue
		}
		id := fmt.Sprint(r.ID)
		if _, dup := c.byID[id]; dup {
			c.logger.Warn("Duplicate listing skipped", "property_id", id)
			continue
		}
		dates := r.AvailableDates
		if len(dates) == 0 {
			dates = availabilityMonths(now(), stagger(id), 4)
		}
		c.byID[id] = len(c.props)
		c.props = append(c.props, domain.Property{
			ID:             id,
			Address:        strings.TrimSpace(r.Address),
			Bedrooms:       r.Bedrooms,
			Bathrooms:      r.Bathrooms,
			Rent:           r.Rent,
			Pets:           NormalizePets(r.Pets),
			AvailableDates: dates,
		})
	}
	c.logger.Info("Listings loaded", "count", len(c.props))
	return c
}

// Len returns the number of listings.
func (c *Catalog) Len() int {
	return len(c.props)
}

// Search returns the listings accepted by m, in file order.
func (c *Catalog) Search(ctx context.Context, m ports.Matcher) ([]domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.Property
	for _, p := range c.props {
		if m.Match(p) {
			out = append(out, clone(p))
		}
	}
	return out, nil
}

// Get returns one listing.
func (c *Catalog) Get(ctx context.Context, id string) (*domain.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return nil, domain.ErrPropertyNotFound
	}
	p := clone(c.props[i])
	return &p, nil
}

// Details returns the inquiry view of one listing.
func (c *Catalog) Details(ctx context.Context, id string) (*domain.Details, error) {
	p, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return catalog.BuildDetails(*p), nil
}

// Slots returns viewing times for one listing.
func (c *Catalog) Slots(ctx context.Context, id string) ([]domain.Slot, error) {
	if _, err := c.Get(ctx, id); err != nil {
		return nil, err
	}
	return c.slots.Slots(), nil
}

// NormalizePets maps free-form pet policies onto the four catalog labels.
func NormalizePets(v string) string {
	text := strings.ToLower(strings.TrimSpace(v))
	switch {
	case text == "":
		return "no pets allowed"
	case strings.Contains(text, "no pet"):
		return "no pets allowed"
	case strings.Contains(text, "cats and dogs"), strings.Contains(text, "dogs and cats"):
		return "cats and dogs allowed"
	case strings.Contains(text, "dog") && !strings.Contains(text, "cat"):
		return "dogs only"
	case strings.Contains(text, "cat") && !strings.Contains(text, "dog"):
		return "cats only"
	}
	return v
}

// stagger spreads first availability over the next three months so listings
// do not all open at once.
func stagger(id string) int {
	if n, err := strconv.Atoi(id); err == nil {
		if n < 0 {
			n = -n
		}
		return n % 3
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int(h.Sum32() % 3)
}

func availabilityMonths(now time.Time, offset, count int) []string {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	out := make([]string, 0, count)
	for i := 1 + offset; i < 1+offset+count; i++ {
		m := first.AddDate(0, i, 0)
		out = append(out, fmt.Sprintf("%s %d", m.Month(), m.Year()))
	}
	return out
}

func clone(p domain.Property) domain.Property {
	p.AvailableDates = append([]string(nil), p.AvailableDates...)
	return p
}
