package ports

import (
	"context"

	"github.com/propertytek/rentbot/pkg/domain"
)

// Understander is the natural-language collaborator.
type Understander interface {
	Analyze(ctx context.Context, query string) (domain.Analysis, error)
	Summarize(ctx context.Context, in domain.SummaryInput) (domain.Summary, error)
}

// Generator is a raw text-completion backend returning JSON text.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}
