// Package intake collects and validates the contact record required to book a
// viewing.
//
// Fields are visited in domain.IntakeOrder. Each field tolerates MaxRetries
// failed attempts; the last one moves the intake into a recovery sub-state
// that only accepts the typed commands help, restart and cancel.
package intake

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/propertytek/rentbot/pkg/domain"
)

// MaxRetries is the number of failed attempts allowed per field.
const MaxRetries = 3

var (
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")
	phonePattern = regexp.MustCompile(`^(\+[1-9]\d{9,14}|0\d{9,14}|[1-9]\d{9,14})$`)
	emailInText  = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	namePrefix   = regexp.MustCompile(`(?i)^\s*(my name is|i'm|i am|name:)\s*`)
)

var prompts = map[domain.IntakeField]string{
	domain.FieldName:  "What's your full name?",
	domain.FieldEmail: "What's your email address?",
	domain.FieldPhone: "What's your phone number?",
	domain.FieldPets:  "Do you have any pets? If yes, please specify.",
}

var rules = map[domain.IntakeField]string{
	domain.FieldName:  "Your name needs at least 2 characters and may only contain letters, spaces, hyphens and apostrophes.",
	domain.FieldEmail: "Your email needs a single @ with a name before it and a domain containing a dot after it, e.g. john@example.com.",
	domain.FieldPhone: "Your phone number needs 10 to 15 digits. You may start with + and a country code or with a leading 0; spaces, dashes, dots and parentheses are ignored.",
	domain.FieldPets:  "Tell us about any pets, or answer \"none\".",
}

// Prompt returns the question asked for f.
func Prompt(f domain.IntakeField) string {
	return prompts[f]
}

// Rule returns the human-readable validation rule for f.
func Rule(f domain.IntakeField) string {
	return rules[f]
}

// Validate checks one value and returns it in normalised form. Failures are
// *domain.Error values of kind validation_failed.
func Validate(f domain.IntakeField, value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", invalid(fmt.Sprintf("%s is required", title(string(f))))
	}
	switch f {
	case domain.FieldName:
		return v, validateName(v)
	case domain.FieldEmail:
		return v, validateEmail(v)
	case domain.FieldPhone:
		return validatePhone(v)
	case domain.FieldPets:
		if utf8.RuneCountInString(v) > 200 {
			return "", invalid("Pet information is too long (maximum 200 characters)")
		}
		return v, nil
	}
	return "", invalid(fmt.Sprintf("unknown field %q", f))
}

func validateName(v string) error {
	n := utf8.RuneCountInString(v)
	if n < 2 {
		return invalid("Name must be at least 2 characters long")
	}
	if n > 100 {
		return invalid("Name is too long (maximum 100 characters)")
	}
	for _, r := range v {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return invalid("Name can only contain letters, spaces, hyphens, and apostrophes")
		}
	}
	return nil
}

func validateEmail(v string) error {
	const msg = "Please enter a valid email address (e.g., john@example.com)"
	if strings.ContainsAny(v, " \t") || strings.Count(v, "@") != 1 {
		return invalid(msg)
	}
	local, host, _ := strings.Cut(v, "@")
	if local == "" || host == "" || !strings.Contains(host, ".") {
		return invalid(msg)
	}
	if len(v) > 254 {
		return invalid("Email address is too long")
	}
	return nil
}

func validatePhone(v string) (string, error) {
	clean := phoneStrip.Replace(v)
	if !phonePattern.MatchString(clean) {
		return "", invalid("Please enter a valid phone number")
	}
	return clean, nil
}

// FromText picks the value for f out of a free-text answer such as
// "my name is Ada Lovelace".
func FromText(f domain.IntakeField, text string) string {
	t := strings.TrimSpace(text)
	switch f {
	case domain.FieldName:
		return strings.TrimSpace(namePrefix.ReplaceAllString(t, ""))
	case domain.FieldEmail:
		if m := emailInText.FindString(t); m != "" {
			return strings.TrimRight(m, ".,;!")
		}
	}
	return t
}

func invalid(msg string) error {
	return domain.NewError(domain.KindValidationFailed, msg)
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
