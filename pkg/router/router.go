// Package router turns one inbound Turn into one Reply.
//
// A turn runs in three phases. Language analysis happens first, outside any
// lock. The session is then loaded, mutated and saved inside its critical
// section. Phrasing the reply, appending the transcript and dispatching a
// confirmed appointment happen last, again outside the lock, so a slow model
// never blocks another turn of the same user for longer than it must.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/booking"
	"github.com/propertytek/rentbot/pkg/catalog"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
	"github.com/propertytek/rentbot/pkg/nlu"
	"github.com/propertytek/rentbot/pkg/observability"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/propertytek/rentbot/pkg/session"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTurnTimeout bounds a whole turn.
	DefaultTurnTimeout = 120 * time.Second
	// DefaultHistoryWindow is how many transcript messages the model sees.
	DefaultHistoryWindow = 10
)

// Router is the conversation entry point. It is safe for concurrent use.
type Router struct {
	sessions      *session.Manager
	nlu           ports.Understander
	catalog       *catalog.Adapter
	booking       *booking.Controller
	gate          *market.Gate
	history       ports.HistoryStore
	metrics       *observability.Metrics
	turnTimeout   time.Duration
	historyWindow int
	maxQuery      int
	now           func() time.Time
	logger        *slog.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithGate replaces the default market gate.
func WithGate(g *market.Gate) Option {
	return func(r *Router) {
		if g != nil {
			r.gate = g
		}
	}
}

// WithHistory records the transcript of free-text turns.
func WithHistory(h ports.HistoryStore) Option {
	return func(r *Router) {
		r.history = h
	}
}

// WithHistoryWindow sets how many past messages are passed to the model.
func WithHistoryWindow(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.historyWindow = n
		}
	}
}

// WithMetrics records turn metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithTurnTimeout bounds a whole turn. Zero keeps the default.
func WithTurnTimeout(d time.Duration) Option {
	return func(r *Router) {
		if d > 0 {
			r.turnTimeout = d
		}
	}
}

// WithMaxQuerySize caps the query length in bytes.
func WithMaxQuerySize(n int) Option {
	return func(r *Router) {
		if n > 0 {
			r.maxQuery = n
		}
	}
}

// WithClock overrides time.Now for transcript timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) {
		if l != nil {
			r.logger = l
		}
	}
}

// New wires a router. u is usually an *nlu.Guarded so that model failures
// degrade instead of failing the turn.
func New(sessions *session.Manager, u ports.Understander, c *catalog.Adapter, b *booking.Controller, opts ...Option) *Router {
	r := &Router{
		sessions:      sessions,
		nlu:           u,
		catalog:       c,
		booking:       b,
		gate:          market.NewGate(),
		turnTimeout:   DefaultTurnTimeout,
		historyWindow: DefaultHistoryWindow,
		maxQuery:      DefaultMaxQuerySize,
		now:           time.Now,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle processes one turn. It returns domain.ErrInvalidTurn for turns that
// cannot be processed at all; every conversational failure is reported in
// the Reply instead.
func (r *Router) Handle(ctx context.Context, t domain.Turn) (*domain.Reply, error) {
	start := r.now()
	t.UserID = strings.TrimSpace(t.UserID)
	query, err := SanitizeQuery(t.Query, r.maxQuery)
	if err != nil {
		return nil, err
	}
	t.Query = query
	if err := validate(t); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.turnTimeout)
	defer cancel()

	res, err := r.handle(ctx, t)
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			r.logger.Error("Turn failed", "user_id", t.UserID, "err", err)
			return nil, err
		}
		r.logger.Warn("Turn timed out", "user_id", t.UserID, "timeout", r.turnTimeout)
		res = &result{reply: timeoutReply(), path: "timeout"}
	}

	intent := domain.Intent("")
	if res.reply.Intent != nil {
		intent = *res.reply.Intent
	}
	r.metrics.ObserveTurn(res.path, intent, res.reply.Error, r.now().Sub(start))
	r.logger.Info("Turn handled",
		"user_id", t.UserID,
		"path", res.path,
		"intent", intent,
		"error_kind", res.reply.Error,
		"step", stepOf(res.reply),
	)
	return res.reply, nil
}

// result is what the locked phase hands to the unlocked one.
type result struct {
	reply *domain.Reply
	path  string

	// summary is set when the reply text should be phrased by the model.
	summary *domain.SummaryInput
	// appointment is set when a booking completed during the turn.
	appointment *domain.Appointment
	// record is set for free-text turns kept in the transcript.
	record bool
}

func (r *Router) handle(ctx context.Context, t domain.Turn) (*result, error) {
	analysis, err := r.analyze(ctx, t)
	if err != nil {
		return nil, err
	}

	var res *result
	_, err = r.sessions.Update(ctx, t.UserID, func(ctx context.Context, s *domain.Session) error {
		s.Turns++
		res = &result{reply: domain.NewReply()}
		res.reply.SetStep(domain.StepPropertySearch)
		if err := r.route(ctx, s, t, analysis, res); err != nil {
			return asReply(err, res.reply)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update session %s: %w", t.UserID, err)
	}

	if res.appointment != nil {
		r.booking.Dispatch(ctx, *res.appointment)
	}
	r.finish(ctx, t, res)
	return res, nil
}

// analyze runs the language model before the lock is taken. Turns that never
// need it (explicit actions, intake answers, typed commands) skip it.
func (r *Router) analyze(ctx context.Context, t domain.Turn) (*domain.Analysis, error) {
	query := strings.TrimSpace(t.Query)
	if query == "" || t.IntakeCommand != "" {
		return nil, nil
	}
	switch t.Action() {
	case domain.ActionNone, domain.ActionNewSearch:
	default:
		return nil, nil
	}
	if t.Action() == domain.ActionNone {
		if s, err := r.sessions.Load(ctx, t.UserID); err == nil && s.Booking.State == domain.BookingIntake {
			return nil, nil
		}
	}

	a, err := r.nlu.Analyze(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// A bare understander may fail; the heuristic keeps the turn alive.
		r.logger.Warn("Analysis failed, using keyword rules", "user_id", t.UserID, "err", err)
		r.metrics.NLUFallback("analyze")
		a, _ = nlu.Heuristic{}.Analyze(ctx, query)
	}
	return &a, nil
}

// finish phrases the reply and records the transcript. The user message is
// appended while the model works; the assistant message follows.
func (r *Router) finish(ctx context.Context, t domain.Turn, res *result) {
	if res.summary == nil && !res.record {
		return
	}

	if res.summary != nil {
		res.summary.History = r.recent(ctx, t)
	}

	g, gctx := errgroup.WithContext(ctx)
	if res.summary != nil {
		g.Go(func() error {
			sum, err := r.nlu.Summarize(gctx, *res.summary)
			if err != nil {
				r.logger.Warn("Summarize failed, keeping local reply", "user_id", t.UserID, "err", err)
				r.metrics.NLUFallback("summarize")
				return nil
			}
			if msg := strings.TrimSpace(sum.Message); msg != "" {
				res.reply.Response = msg
			}
			if len(sum.SuggestedActions) > 0 {
				res.reply.SuggestedActions = sum.SuggestedActions
			}
			return nil
		})
	}
	if res.record {
		g.Go(func() error {
			r.appendHistory(gctx, t.UserID, domain.Message{Role: "user", Content: t.Query, At: r.now().Unix()})
			return nil
		})
	}
	_ = g.Wait()

	if res.record {
		r.appendHistory(ctx, t.UserID, domain.Message{Role: "assistant", Content: res.reply.Response, At: r.now().Unix()})
	}
}

func (r *Router) recent(ctx context.Context, t domain.Turn) []domain.Message {
	var msgs []domain.Message
	if t.ConversationHistory != nil && strings.TrimSpace(*t.ConversationHistory) != "" {
		msgs = append(msgs, domain.Message{Role: "context", Content: *t.ConversationHistory})
	}
	if r.history == nil {
		return msgs
	}
	past, err := r.history.Recent(ctx, t.UserID, r.historyWindow)
	if err != nil {
		r.logger.Warn("Failed to read history", "user_id", t.UserID, "err", err)
		return msgs
	}
	return append(msgs, past...)
}

func (r *Router) appendHistory(ctx context.Context, userID string, m domain.Message) {
	if r.history == nil {
		return
	}
	if err := r.history.Append(ctx, userID, m); err != nil {
		r.logger.Warn("Failed to append history", "user_id", userID, "err", err)
	}
}

func validate(t domain.Turn) error {
	if t.UserID == "" {
		return fmt.Errorf("%w: user_id is required", domain.ErrInvalidTurn)
	}
	switch t.Action() {
	case domain.ActionNone:
		if strings.TrimSpace(t.Query) == "" && t.IntakeCommand == "" {
			return fmt.Errorf("%w: query or action_type is required", domain.ErrInvalidTurn)
		}
	case domain.ActionInquire, domain.ActionBookSchedule, domain.ActionSelectSlot,
		domain.ActionProvideInfo, domain.ActionCancelBooking, domain.ActionNewSearch:
	default:
		return fmt.Errorf("%w: unknown action_type %q", domain.ErrInvalidTurn, t.ActionType)
	}
	return nil
}

// asReply folds a conversation error into the reply so the session is still
// saved. Any other error aborts the turn without saving.
func asReply(err error, reply *domain.Reply) error {
	var de *domain.Error
	if !errors.As(err, &de) {
		return err
	}
	reply.Error = de.Kind
	reply.Response = de.Message
	return nil
}

func timeoutReply() *domain.Reply {
	r := domain.NewReply()
	r.Response = nlu.MsgTimeout
	r.Error = domain.KindUpstreamUnavailable
	r.SuggestedActions = []string{"Try again"}
	r.SetStep(domain.StepPropertySearch)
	return r
}

func stepOf(r *domain.Reply) domain.Step {
	if r.CurrentStep == nil {
		return ""
	}
	return *r.CurrentStep
}
