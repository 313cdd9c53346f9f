package nlu

import (
	"context"
	"log/slog"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/ports"
)

// Default per-call deadlines.
const (
	DefaultAnalyzeTimeout   = 30 * time.Second
	DefaultSummarizeTimeout = 30 * time.Second
)

// Guarded bounds each call to the primary understander and answers from the
// fallback when the call fails or times out. Analyze and Summarize are
// independent: a failed summary never discards an analysis.
type Guarded struct {
	primary          ports.Understander
	fallback         ports.Understander
	analyzeTimeout   time.Duration
	summarizeTimeout time.Duration
	onFallback       func(op string)
	logger           *slog.Logger
}

var _ ports.Understander = (*Guarded)(nil)

// GuardOption configures a Guarded understander.
type GuardOption func(*Guarded)

// WithTimeouts sets the analyze and summarize deadlines. Zero keeps the default.
func WithTimeouts(analyze, summarize time.Duration) GuardOption {
	return func(g *Guarded) {
		if analyze > 0 {
			g.analyzeTimeout = analyze
		}
		if summarize > 0 {
			g.summarizeTimeout = summarize
		}
	}
}

// WithFallback replaces the heuristic fallback.
func WithFallback(u ports.Understander) GuardOption {
	return func(g *Guarded) {
		if u != nil {
			g.fallback = u
		}
	}
}

// WithFallbackHook is called with "analyze" or "summarize" every time the
// fallback answers.
func WithFallbackHook(fn func(op string)) GuardOption {
	return func(g *Guarded) {
		g.onFallback = fn
	}
}

// WithGuardLogger sets the logger.
func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *Guarded) {
		if l != nil {
			g.logger = l
		}
	}
}

// Guard wraps primary. A nil primary always uses the fallback.
func Guard(primary ports.Understander, opts ...GuardOption) *Guarded {
	g := &Guarded{
		primary:          primary,
		fallback:         Heuristic{},
		analyzeTimeout:   DefaultAnalyzeTimeout,
		summarizeTimeout: DefaultSummarizeTimeout,
		logger:           logging.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Analyze implements ports.Understander.
func (g *Guarded) Analyze(ctx context.Context, query string) (domain.Analysis, error) {
	if g.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, g.analyzeTimeout)
		a, err := g.primary.Analyze(callCtx, query)
		cancel()
		if err == nil {
			return a, nil
		}
		g.degraded("analyze", err)
	}
	return g.fallback.Analyze(ctx, query)
}

// Summarize implements ports.Understander.
func (g *Guarded) Summarize(ctx context.Context, in domain.SummaryInput) (domain.Summary, error) {
	if g.primary != nil {
		callCtx, cancel := context.WithTimeout(ctx, g.summarizeTimeout)
		s, err := g.primary.Summarize(callCtx, in)
		cancel()
		if err == nil {
			return s, nil
		}
		g.degraded("summarize", err)
	}
	return g.fallback.Summarize(ctx, in)
}

func (g *Guarded) degraded(op string, err error) {
	g.logger.Warn("Language model call failed, using fallback", "op", op, "err", err)
	if g.onFallback != nil {
		g.onFallback(op)
	}
}
