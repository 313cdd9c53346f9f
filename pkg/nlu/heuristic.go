// Package nlu classifies utterances and phrases replies.
//
// Client talks to a language model through a ports.Generator. Heuristic is a
// keyword classifier with template replies that needs no network; Guarded
// bounds each model call and falls back to Heuristic when one fails.
package nlu

import (
	"context"
	"regexp"
	"strings"

	"github.com/propertytek/rentbot/pkg/criteria"
	"github.com/propertytek/rentbot/pkg/domain"
)

var (
	wordPattern = regexp.MustCompile(`[a-z0-9'-]+`)

	offTopicWords = set("tshirt", "t-shirt", "shirt", "jeans", "dress", "shoes", "sneakers", "cosmetics",
		"makeup", "lipstick", "foundation", "eyeliner", "mascara", "phone", "iphone", "android", "laptop",
		"macbook", "headphones", "earbuds", "charger", "grocery", "groceries", "fruits", "vegetables", "milk",
		"perfume", "shampoo", "soap", "toothpaste", "toys", "gaming", "electronics", "watch", "camera",
		"television", "tv", "weather", "recipe", "football", "movie", "movies")
	housingWords = set("apartment", "apartments", "house", "houses", "home", "homes", "condo", "condos",
		"rental", "rentals", "rent", "place", "places", "property", "properties", "listing", "listings",
		"bedroom", "bedrooms", "studio", "flat", "lease", "vacant", "pets", "pet", "budget")
	bookingWords  = set("book", "booking", "schedule", "tour", "visit", "viewing", "appointment")
	greetingWords = set("hi", "hello", "hey", "howdy", "greetings", "yo")
	questionWords = set("what", "how", "when", "where", "does", "is", "are", "can", "do", "which", "why")
)

var introPattern = regexp.MustCompile(`(?i)^\s*(i am|i'm|this is|my name is)\s+[a-z]+\s*[.!]?\s*$`)

// Heuristic is the offline understander.
type Heuristic struct{}

// Analyze classifies query with keyword rules and extracts criteria with
// criteria.Extract. Confidence is fixed and low.
func (Heuristic) Analyze(_ context.Context, query string) (domain.Analysis, error) {
	c := criteria.Extract(query)
	return domain.Analysis{
		Intent:     Classify(query, c),
		Entities:   c.Entities(),
		Confidence: 0.5,
	}, nil
}

// Summarize returns the locally composed reply.
func (Heuristic) Summarize(_ context.Context, in domain.SummaryInput) (domain.Summary, error) {
	s := Compose(in)
	if in.Fallback != "" {
		s.Message = in.Fallback
	}
	return s, nil
}

// Classify picks an intent for query. Housing signals win over off-topic
// words when both appear.
func Classify(query string, c domain.Criteria) domain.Intent {
	lower := strings.ToLower(strings.TrimSpace(query))
	words := wordPattern.FindAllString(lower, -1)

	has := func(vocab map[string]bool) bool {
		for _, w := range words {
			if vocab[w] {
				return true
			}
		}
		return false
	}

	switch {
	case has(bookingWords):
		return domain.IntentBooking
	case !c.IsEmpty() || has(housingWords):
		return domain.IntentPropertySearch
	case has(offTopicWords):
		return domain.IntentOffTopic
	case introPattern.MatchString(query):
		return domain.IntentGreeting
	case len(words) > 0 && len(words) <= 4 && greetingWords[words[0]]:
		return domain.IntentGreeting
	case len(words) > 0 && questionWords[words[0]], strings.HasSuffix(lower, "?"):
		return domain.IntentInquiry
	case len(words) == 0:
		return domain.IntentGreeting
	}
	return domain.IntentInquiry
}

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
