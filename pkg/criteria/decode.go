package criteria

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/propertytek/rentbot/pkg/domain"
)

var (
	bedroomPhrase = regexp.MustCompile(`\b(\d+)\s*(bed|beds|bedroom|bedrooms|br)\b`)
	monthPrefix   = regexp.MustCompile(`(?i)^(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec|january|february|march|april|june|july|august|september|october|november|december)\b`)
	dateLike      = regexp.MustCompile(`^(\d{1,2}[./-]\d{1,2}[./-]\d{2,4}|\d{4}-\d{2}-\d{2})$`)
)

var notADate = map[string]bool{
	"vacant":        true,
	"available now": true,
	"now":           true,
	"immediate":     true,
	"immediately":   true,
	"available":     true,
}

// Decode converts the loose entity mapping produced by a language model into
// a Criteria record. Numbers may arrive as strings ("2", "$1,500"); "address"
// is accepted as an alias of "area". Null and empty values are skipped.
func Decode(entities map[string]any) (domain.Criteria, error) {
	clean := make(map[string]any, len(entities))
	for k, v := range entities {
		if v == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "address" || key == "location" || key == "neighborhood" {
			key = "area"
		}
		switch key {
		case "bedrooms", "rent_min", "rent_max", "rent_exact":
			n, ok := toInt(v)
			if !ok {
				continue
			}
			clean[key] = n
		default:
			s, ok := v.(string)
			if !ok {
				s = fmt.Sprint(v)
			}
			s = strings.TrimSpace(s)
			if s == "" || strings.EqualFold(s, "null") {
				continue
			}
			clean[key] = s
		}
	}

	var out domain.Criteria
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return domain.Criteria{}, fmt.Errorf("failed to build entity decoder: %w", err)
	}
	if err := dec.Decode(clean); err != nil {
		return domain.Criteria{}, fmt.Errorf("failed to decode entities: %w", err)
	}
	return out, nil
}

// Sanitize drops guesses the query does not support: bedrooms without a
// numeric bedroom phrase (or "studio") and availability dates that are not a
// month or a date.
func Sanitize(query string, c domain.Criteria) domain.Criteria {
	out := c.Clone()
	lower := strings.ToLower(query)
	if out.Bedrooms != nil && !bedroomPhrase.MatchString(lower) && !studioWord.MatchString(lower) {
		out.Bedrooms = nil
	}
	if out.AvailableDate != "" && !validAvailableDate(out.AvailableDate) {
		out.AvailableDate = ""
	}
	return out
}

func validAvailableDate(s string) bool {
	t := strings.TrimSpace(s)
	if t == "" || notADate[strings.ToLower(t)] {
		return false
	}
	return monthPrefix.MatchString(t) || dateLike.MatchString(t)
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case float32:
		return int(n), true
	case string:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(n)
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return i, true
	}
	return 0, false
}
