package intake

import (
	"strings"

	"github.com/propertytek/rentbot/pkg/domain"
)

var commandWords = map[string]domain.Command{
	"cancel":      domain.CommandCancel,
	"cancel it":   domain.CommandCancel,
	"stop":        domain.CommandCancel,
	"quit":        domain.CommandCancel,
	"exit":        domain.CommandCancel,
	"restart":     domain.CommandRestart,
	"start over":  domain.CommandRestart,
	"reset":       domain.CommandRestart,
	"help":        domain.CommandHelp,
	"?":           domain.CommandHelp,
	"help me":     domain.CommandHelp,
	"what's that": domain.CommandHelp,
}

// ParseCommand recognises a recovery command written as the whole message.
// Matching ignores case, surrounding whitespace and trailing punctuation;
// anything else is CommandNone.
func ParseCommand(text string) domain.Command {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "?" {
		return domain.CommandHelp
	}
	t = strings.TrimRight(t, ".!? ")
	t = strings.Join(strings.Fields(t), " ")
	return commandWords[t]
}

// ValidCommand reports whether c is a known command.
func ValidCommand(c domain.Command) bool {
	switch c {
	case domain.CommandCancel, domain.CommandRestart, domain.CommandHelp:
		return true
	}
	return false
}
