// Package market decides whether a requested city is served.
//
// The gate runs before any catalog query so an out-of-market request is
// answered with a redirect instead of an empty result set.
package market

import (
	"fmt"
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

var supported = []string{"Houston", "Dallas", "Austin", "San Antonio"}

var stateSuffixes = []string{", tx", " tx", ", texas", " texas"}

// Supported returns the canonical market names in display order.
func Supported() []string {
	return append([]string(nil), supported...)
}

// Verdict is the outcome of a gate check.
type Verdict struct {
	// Passed is true when the search may proceed.
	Passed bool
	// City is the canonical city to filter on. Empty when no city was given.
	City string
	// Rejected holds the city as the user wrote it when Passed is false.
	Rejected string
	// Suggestions lists the supported markets on rejection.
	Suggestions []string
}

// Err returns a market_rejected error for a failed verdict and nil otherwise.
func (v Verdict) Err() error {
	if v.Passed {
		return nil
	}
	return domain.NewError(domain.KindMarketRejected, RejectionMessage(v.Rejected))
}

// Gate checks cities against an allow-list.
type Gate struct {
	canonical map[string]string
	order     []string
}

// NewGate builds a gate for the given markets. With no arguments it serves the
// default Texas markets.
func NewGate(markets ...string) *Gate {
	if len(markets) == 0 {
		markets = supported
	}
	g := &Gate{canonical: make(map[string]string, len(markets))}
	for _, m := range markets {
		g.canonical[normalize(m)] = m
		g.order = append(g.order, m)
	}
	return g
}

// Markets returns the served markets in display order.
func (g *Gate) Markets() []string {
	return append([]string(nil), g.order...)
}

// Check validates city. An empty city passes with no filter.
func (g *Gate) Check(city string) Verdict {
	key := normalize(city)
	if key == "" {
		return Verdict{Passed: true}
	}
	if name, ok := g.canonical[key]; ok {
		return Verdict{Passed: true, City: name}
	}
	return Verdict{
		Rejected:    strings.TrimSpace(city),
		Suggestions: g.Markets(),
	}
}

// RejectionMessage is the steering text shown for an unsupported city.
func RejectionMessage(city string) string {
	return fmt.Sprintf(
		"Sorry, we don't currently have listings in %s. We serve %s. Would you like to search in one of those cities?",
		city, joinMarkets(supported))
}

func joinMarkets(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}

func normalize(city string) string {
	s := strings.ToLower(strings.TrimSpace(city))
	for _, suffix := range stateSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}
	return strings.Join(strings.Fields(s), " ")
}
