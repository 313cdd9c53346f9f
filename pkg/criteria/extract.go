package criteria

import (
	"math"
	"regexp"
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
)

var (
	studioWord   = regexp.MustCompile(`\bstudio\b`)
	placePhrase  = regexp.MustCompile(`\b(?:in|near|around|at)\s+([A-Z][a-zA-Z]+(?:\s[A-Z][a-zA-Z]+)?)`)
	areaWord     = regexp.MustCompile(`\b(downtown|midtown|uptown|suburbs?)\b`)
	moneyAmount  = `\$?\s?(\d{1,3}(?:,\d{3})+|\d{3,6})`
	rentBetween  = regexp.MustCompile(`\bbetween\s+` + moneyAmount + `\s+(?:and|to|-)\s+` + moneyAmount)
	rentBelow    = regexp.MustCompile(`\b(?:under|below|less than|max(?:imum)?|up to|no more than)\s+` + moneyAmount)
	rentAbove    = regexp.MustCompile(`\b(?:over|above|more than|min(?:imum)?|at least)\s+` + moneyAmount)
	rentAround   = regexp.MustCompile(`\b(?:around|about|approximately|roughly)\s+` + moneyAmount)
	rentDollar   = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})+|\d{3,6})\b`)
	rentPerMonth = regexp.MustCompile(`\b(\d{1,3}(?:,\d{3})+|\d{3,6})\s*(?:dollars|/mo\b|per month|a month)`)
	rentBudget   = regexp.MustCompile(`\b(?:budget(?: is| of)?|i want|pay|for)\s+\$?(\d{1,3}(?:,\d{3})+|\d{3,6})\b`)
	catWord      = regexp.MustCompile(`\bcats?\b`)
	dogWord      = regexp.MustCompile(`\bdogs?\b`)
	monthName    = regexp.MustCompile(`(?i)\b(january|february|march|april|june|july|august|september|october|november|december)\b`)
	notCityWords = map[string]bool{"The": true, "A": true, "My": true, "I": true}
)

// Extract pulls criteria out of raw text with keyword and pattern rules. It
// backs the offline classifier and fills gaps when a model returns nothing.
func Extract(query string) domain.Criteria {
	var c domain.Criteria
	lower := strings.ToLower(query)

	if m := bedroomPhrase.FindStringSubmatch(lower); m != nil {
		if n, ok := toInt(m[1]); ok {
			c.Bedrooms = &n
		}
	} else if studioWord.MatchString(lower) {
		c.Bedrooms = domain.IntPtr(0)
	}

	c.City = extractCity(query, lower)

	if m := areaWord.FindStringSubmatch(lower); m != nil {
		c.Area = m[1]
	}

	extractRent(lower, &c)
	c.Pets = extractPets(lower)

	if m := monthName.FindStringSubmatch(query); m != nil {
		month := strings.ToLower(m[1])
		c.AvailableDate = strings.ToUpper(month[:1]) + month[1:]
	}
	return c
}

func extractCity(query, lower string) string {
	for _, name := range market.Supported() {
		if strings.Contains(lower, strings.ToLower(name)) {
			return name
		}
	}
	m := placePhrase.FindStringSubmatch(query)
	if m == nil || notCityWords[m[1]] || monthName.MatchString(m[1]) {
		return ""
	}
	return m[1]
}

func extractRent(lower string, c *domain.Criteria) {
	if m := rentBetween.FindStringSubmatch(lower); m != nil {
		lo, ok1 := toInt(m[1])
		hi, ok2 := toInt(m[2])
		if ok1 && ok2 {
			if lo > hi {
				lo, hi = hi, lo
			}
			c.RentMin, c.RentMax = &lo, &hi
			return
		}
	}
	if m := rentAround.FindStringSubmatch(lower); m != nil {
		if v, ok := toInt(m[1]); ok {
			lo := int(math.Round(float64(v) * 0.95))
			hi := int(math.Round(float64(v) * 1.05))
			c.RentMin, c.RentMax = &lo, &hi
			return
		}
	}
	matched := false
	if m := rentBelow.FindStringSubmatch(lower); m != nil {
		if v, ok := toInt(m[1]); ok {
			v--
			c.RentMax = &v
			matched = true
		}
	}
	if m := rentAbove.FindStringSubmatch(lower); m != nil {
		if v, ok := toInt(m[1]); ok {
			v++
			c.RentMin = &v
			matched = true
		}
	}
	if matched {
		return
	}
	for _, re := range []*regexp.Regexp{rentDollar, rentPerMonth, rentBudget} {
		if m := re.FindStringSubmatch(lower); m != nil {
			if v, ok := toInt(m[1]); ok {
				c.RentExact = &v
				return
			}
		}
	}
}

func extractPets(lower string) string {
	switch {
	case strings.Contains(lower, "no pet"):
		return "no pets"
	case dogWord.MatchString(lower) && catWord.MatchString(lower):
		return "cats and dogs"
	case dogWord.MatchString(lower):
		return "dogs"
	case catWord.MatchString(lower):
		return "cats"
	case strings.Contains(lower, "pet friendly"), strings.Contains(lower, "pet-friendly"):
		return "dogs"
	}
	return ""
}
