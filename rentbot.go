package rentbot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/propertytek/rentbot/internal/config"
	"github.com/propertytek/rentbot/internal/logging"
	"github.com/propertytek/rentbot/pkg/adapters/flatfile"
	"github.com/propertytek/rentbot/pkg/adapters/gemini"
	"github.com/propertytek/rentbot/pkg/adapters/memory"
	"github.com/propertytek/rentbot/pkg/adapters/notify"
	redisstore "github.com/propertytek/rentbot/pkg/adapters/redis"
	"github.com/propertytek/rentbot/pkg/adapters/sqlite"
	"github.com/propertytek/rentbot/pkg/booking"
	"github.com/propertytek/rentbot/pkg/catalog"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/propertytek/rentbot/pkg/market"
	"github.com/propertytek/rentbot/pkg/nlu"
	"github.com/propertytek/rentbot/pkg/observability"
	"github.com/propertytek/rentbot/pkg/persistence/middleware"
	"github.com/propertytek/rentbot/pkg/ports"
	"github.com/propertytek/rentbot/pkg/router"
	"github.com/propertytek/rentbot/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// App is a fully wired assistant. The exported components are shared by the
// HTTP, MCP and terminal front ends.
type App struct {
	Config   *config.Config
	Router   *router.Router
	Sessions *session.Manager
	Catalog  *catalog.Adapter
	Gate     *market.Gate
	History  ports.HistoryStore
	Metrics  *observability.Metrics
	// Ledger is nil when booking.ledger_path is empty.
	Ledger *sqlite.Ledger
	Logger *slog.Logger

	understander ports.Understander
	listings     ports.Catalog
	store        ports.SessionStore
	redis        *backend.Client
	deliverer    notify.Deliverer
	now          func() time.Time
	closers      []io.Closer
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets the structured logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.Logger = logger
	}
}

// WithUnderstander replaces the configured language model. It is still
// guarded by the keyword fallback and the configured deadlines.
func WithUnderstander(u ports.Understander) Option {
	return func(a *App) {
		a.understander = u
	}
}

// WithCatalog injects a listing source instead of catalog.path.
func WithCatalog(c ports.Catalog) Option {
	return func(a *App) {
		a.listings = c
	}
}

// WithSessionStore injects a session store, bypassing store.backend. Store
// middleware from the security section still applies.
func WithSessionStore(s ports.SessionStore) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithRedisClient reuses an existing client for the redis backend. The App
// does not close it.
func WithRedisClient(c *backend.Client) Option {
	return func(a *App) {
		a.redis = c
	}
}

// WithDeliverer replaces the logging deliverer of the calendar and SMS sinks.
func WithDeliverer(d notify.Deliverer) Option {
	return func(a *App) {
		a.deliverer = d
	}
}

// WithMetrics registers collectors somewhere other than a private registry.
func WithMetrics(m *observability.Metrics) Option {
	return func(a *App) {
		a.Metrics = m
	}
}

// WithClock sets the clock for slots, eviction and appointment timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New validates cfg and builds the component graph. Close releases what it
// opened.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (app *App, err error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	a := &App{Config: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = loggerFor(cfg)
	}
	if a.Metrics == nil {
		a.Metrics = observability.NewMetrics()
	}
	if a.deliverer == nil {
		a.deliverer = notify.LogDeliverer{Logger: a.Logger.With("component", "notify")}
	}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	loc, err := time.LoadLocation(cfg.Catalog.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone: %w", err)
	}

	if err := a.buildCatalog(loc); err != nil {
		return nil, err
	}
	a.Gate = market.NewGate(cfg.Markets...)

	u, err := a.buildUnderstander(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.buildSessions(ctx); err != nil {
		return nil, err
	}

	sinks, err := a.buildSinks(loc)
	if err != nil {
		return nil, err
	}
	controller := booking.NewController(a.Catalog,
		booking.WithSinks(sinks...),
		booking.WithClock(a.now),
		booking.WithLogger(a.Logger.With("component", "booking")),
	)

	a.Router = router.New(a.Sessions, u, a.Catalog, controller,
		router.WithGate(a.Gate),
		router.WithHistory(a.History),
		router.WithHistoryWindow(cfg.Router.HistoryWindow),
		router.WithMetrics(a.Metrics),
		router.WithTurnTimeout(cfg.Router.TurnTimeout),
		router.WithMaxQuerySize(cfg.Router.MaxQuerySize),
		router.WithClock(a.now),
		router.WithLogger(a.Logger.With("component", "router")),
	)
	return a, nil
}

func loggerFor(cfg *config.Config) *slog.Logger {
	level, _ := logging.ParseLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

func (a *App) buildCatalog(loc *time.Location) error {
	listings := a.listings
	if listings == nil {
		opts := []flatfile.Option{
			flatfile.WithLocation(loc),
			flatfile.WithClock(a.now),
			flatfile.WithLogger(a.Logger.With("component", "catalog")),
		}
		var (
			c   *flatfile.Catalog
			err error
		)
		if a.Config.Catalog.Path != "" {
			c, err = flatfile.Load(a.Config.Catalog.Path, opts...)
		} else {
			c, err = flatfile.Sample(opts...)
		}
		if err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		a.Logger.Info("Catalog loaded", "path", a.Config.Catalog.Path, "listings", c.Len())
		listings = c
	}
	a.Catalog = catalog.NewAdapter(listings,
		catalog.WithDisplayLimit(a.Config.Catalog.DisplayLimit),
		catalog.WithLogger(a.Logger.With("component", "catalog")),
	)
	return nil
}

func (a *App) buildUnderstander(ctx context.Context) (ports.Understander, error) {
	cfg := a.Config.NLU
	primary := a.understander
	if primary == nil {
		switch cfg.Provider {
		case "gemini":
			gen, err := gemini.New(ctx, cfg.APIKey,
				gemini.WithModel(cfg.Model),
				gemini.WithTemperature(cfg.Temperature),
			)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, gen)
			primary = nlu.NewClient(gen, nlu.WithClientLogger(a.Logger.With("component", "nlu")))
		default:
			primary = nlu.Heuristic{}
		}
	}
	return nlu.Guard(primary,
		nlu.WithTimeouts(cfg.AnalyzeTimeout, cfg.SummarizeTimeout),
		nlu.WithFallbackHook(a.Metrics.NLUFallback),
		nlu.WithGuardLogger(a.Logger.With("component", "nlu")),
	), nil
}

func (a *App) buildSessions(ctx context.Context) error {
	cfg := a.Config
	store := a.store
	var sessionOpts []session.Option

	switch {
	case store != nil:
		a.History = memory.NewHistory(cfg.Store.HistoryLimit)
	case cfg.Store.Backend == "redis":
		client := a.redis
		if client == nil {
			client = backend.NewClient(&backend.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			a.closers = append(a.closers, client)
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		store = redisstore.NewFromClient(client,
			redisstore.WithTTL(cfg.Store.IdleTTL),
			redisstore.WithPrefix(cfg.Redis.Prefix),
			redisstore.WithClock(a.now),
		)
		a.History = redisstore.NewHistory(client, cfg.Store.HistoryLimit)
		if cfg.Store.DistributedLock {
			sessionOpts = append(sessionOpts,
				session.WithLocker(redisstore.NewLocker(client, cfg.Redis.Prefix)),
				session.WithLockTTL(cfg.Store.LockTTL),
			)
		}
	default:
		store = memory.NewStore(
			memory.WithIdleTTL(cfg.Store.IdleTTL),
			memory.WithCapacity(cfg.Store.Capacity),
			memory.WithClock(a.now),
		)
		a.History = memory.NewHistory(cfg.Store.HistoryLimit)
	}

	var mws []middleware.Middleware
	if cfg.Security.Redact {
		mws = append(mws, middleware.NewRedactionMiddleware())
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		return fmt.Errorf("invalid encryption keys: %w", err)
	}
	if active != nil {
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallback,
		}))
	}

	sessionOpts = append(sessionOpts,
		session.WithClock(a.now),
		session.WithEvictHook(a.Metrics.Evicted),
		session.WithLogger(a.Logger.With("component", "session")),
	)
	a.Sessions = session.NewManager(middleware.Chain(store, mws...), sessionOpts...)
	return nil
}

func (a *App) buildSinks(loc *time.Location) ([]ports.AppointmentSink, error) {
	cfg := a.Config.Booking
	var sinks []ports.AppointmentSink
	if cfg.LedgerPath != "" {
		ledger, err := sqlite.Open(cfg.LedgerPath, sqlite.WithLogger(a.Logger.With("component", "ledger")))
		if err != nil {
			return nil, fmt.Errorf("failed to open appointment ledger: %w", err)
		}
		a.Ledger = ledger
		a.closers = append(a.closers, ledger)
		sinks = append(sinks, ledger)
	}
	if cfg.Calendar {
		sinks = append(sinks, notify.NewCalendar(loc, a.deliverer))
	}
	if cfg.SMS {
		sinks = append(sinks, notify.NewSMS(a.deliverer, cfg.OfficePhone))
	}
	return sinks, nil
}

// Run sweeps idle sessions every store.sweep_interval until ctx is done.
func (a *App) Run(ctx context.Context) {
	a.Sessions.Run(ctx, a.Config.Store.SweepInterval)
}

// Handle processes one turn.
func (a *App) Handle(ctx context.Context, t domain.Turn) (*domain.Reply, error) {
	return a.Router.Handle(ctx, t)
}

// Close releases clients and files opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
