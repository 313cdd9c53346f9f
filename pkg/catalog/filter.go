// Package catalog turns accumulated criteria into catalog queries.
//
// The Adapter is the only path from the conversation core to listings. It
// builds a Filter per search, applies the display cap and produces the
// no-match marker; the data itself comes from a ports.Catalog.
package catalog

import (
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Filter is the AND predicate derived from criteria for a single search. It
// is never persisted.
type Filter struct {
	City      string
	Area      string
	Bedrooms  *int
	RentMin   *int
	RentMax   *int
	RentExact *int
	Pets      string
}

// NewFilter derives a filter from criteria. Strings are lower-cased so Match
// can compare with substring semantics.
func NewFilter(c domain.Criteria) Filter {
	c = c.Clone()
	return Filter{
		City:      strings.ToLower(strings.TrimSpace(c.City)),
		Area:      strings.ToLower(strings.TrimSpace(c.Area)),
		Bedrooms:  c.Bedrooms,
		RentMin:   c.RentMin,
		RentMax:   c.RentMax,
		RentExact: c.RentExact,
		Pets:      strings.ToLower(strings.TrimSpace(c.Pets)),
	}
}

// Empty reports whether the filter imposes no constraint.
func (f Filter) Empty() bool {
	return f.City == "" && f.Area == "" && f.Bedrooms == nil &&
		f.RentMin == nil && f.RentMax == nil && f.RentExact == nil && f.Pets == ""
}

// Match reports whether p satisfies every supplied constraint. An exact rent
// takes precedence over the range.
func (f Filter) Match(p domain.Property) bool {
	addr := strings.ToLower(p.Address)
	if f.City != "" && !strings.Contains(addr, f.City) {
		return false
	}
	if f.Area != "" && !strings.Contains(addr, f.Area) {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms != *f.Bedrooms {
		return false
	}
	if f.RentExact != nil {
		if p.Rent != *f.RentExact {
			return false
		}
	} else {
		if f.RentMin != nil && p.Rent < *f.RentMin {
			return false
		}
		if f.RentMax != nil && p.Rent > *f.RentMax {
			return false
		}
	}
	if f.Pets != "" && !strings.Contains(strings.ToLower(p.Pets), f.Pets) {
		return false
	}
	return true
}

// matchAll accepts every listing.
type matchAll struct{}

func (matchAll) Match(domain.Property) bool { return true }

// rentBelow and rentAbove back the exact-price suggestion.
type rentBelow int

func (r rentBelow) Match(p domain.Property) bool { return p.Rent < int(r) }

type rentAbove int

func (r rentAbove) Match(p domain.Property) bool { return p.Rent > int(r) }
