package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/teemow/autoagenda/internal/booking"
	"github.com/teemow/autoagenda/internal/calendar"
	"github.com/teemow/autoagenda/internal/config"
	"github.com/teemow/autoagenda/internal/google"
	"github.com/teemow/autoagenda/internal/instrumentation"
	"github.com/teemow/autoagenda/internal/lock"
	"github.com/teemow/autoagenda/internal/logging"
	"github.com/teemow/autoagenda/internal/records"
	"github.com/teemow/autoagenda/internal/scheduling"
)

// HealthCheck probes one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Options configures NewServerContext. Calendar, Records and Locker replace
// the components built from Config, which is how tests inject fakes.
type Options struct {
	Config      *config.Config
	Logger      *slog.Logger
	Metrics     *instrumentation.Metrics
	AuditLogger *instrumentation.AuditLogger

	// GoogleOptions skips credential loading and is passed to every Google
	// API client instead.
	GoogleOptions []option.ClientOption

	Calendar booking.CalendarService
	Records  booking.RecordStore
	Locker   lock.Locker
	Clock    func() time.Time
}

// ServerContext owns the scheduling components shared by every tool call.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	config      *config.Config
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	policy      *scheduling.BusinessHoursPolicy
	records     booking.RecordStore
	coordinator *booking.Coordinator

	checks  map[string]HealthCheck
	closers []func() error

	mu       sync.RWMutex
	shutdown bool
}

// NewServerContext builds the policy, the calendar client, the record store,
// the commit lock and the booking coordinator described by opts.Config.
func NewServerContext(ctx context.Context, opts Options) (_ *ServerContext, err error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Load()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy, err := cfg.BuildPolicy()
	if err != nil {
		return nil, fmt.Errorf("invalid business hours: %w", err)
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:         shutdownCtx,
		cancel:      cancel,
		config:      cfg,
		logger:      logger,
		metrics:     opts.Metrics,
		auditLogger: opts.AuditLogger,
		policy:      policy,
		checks:      make(map[string]HealthCheck),
	}
	defer func() {
		if err != nil {
			_ = sc.Shutdown()
		}
	}()

	googleOpts := opts.GoogleOptions
	needGoogle := opts.Calendar == nil || (opts.Records == nil && cfg.Store.Backend == config.StoreSheets)
	if needGoogle && googleOpts == nil {
		creds, err := google.LoadCredentials(ctx, google.Config{
			CredentialsFile: cfg.Google.CredentialsFile,
			Subject:         cfg.Google.Subject,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("loaded Google credentials", "credentials", creds.String())
		googleOpts = creds.ClientOptions(shutdownCtx)
	}

	cal := opts.Calendar
	if cal == nil {
		if cal, err = calendar.NewClient(shutdownCtx, calendar.Config{Logger: logger, Metrics: opts.Metrics}, googleOpts...); err != nil {
			return nil, err
		}
	}

	sc.records = opts.Records
	if sc.records == nil {
		if sc.records, err = sc.openRecords(googleOpts); err != nil {
			return nil, err
		}
	}

	locker := opts.Locker
	if locker == nil {
		locker = sc.openLocker()
	}

	coordOpts := []booking.Option{
		booking.WithLocker(locker),
		booking.WithLogger(logger),
		booking.WithMetrics(opts.Metrics),
	}
	if opts.Clock != nil {
		coordOpts = append(coordOpts, booking.WithClock(opts.Clock))
	}
	sc.coordinator, err = booking.NewCoordinator(policy, cal, sc.records, cfg.CoordinatorConfig(), coordOpts...)
	if err != nil {
		return nil, err
	}

	logger.Info("scheduling components ready",
		"policy", policy.String(),
		"store", cfg.Store.Backend,
		"lock", cfg.Lock.Backend,
		logging.Calendar(cfg.CalendarID))
	return sc, nil
}

func (sc *ServerContext) openRecords(googleOpts []option.ClientOption) (booking.RecordStore, error) {
	cfg := sc.config.Store

	switch cfg.Backend {
	case config.StoreSQL:
		store, err := records.OpenSQL(records.SQLConfig{
			Driver:  cfg.DatabaseDriver,
			DSN:     cfg.DatabaseDSN,
			Logger:  sc.logger,
			Metrics: sc.metrics,
		})
		if err != nil {
			return nil, err
		}
		sc.closers = append(sc.closers, store.Close)
		sc.checks["database"] = store.Ping
		return store, nil

	case config.StoreSheets:
		store, err := records.NewSheetStore(sc.ctx, records.SheetConfig{
			SpreadsheetID: cfg.SpreadsheetID,
			SheetName:     cfg.SheetName,
			Location:      sc.policy.Location(),
			Logger:        sc.logger,
			Metrics:       sc.metrics,
		}, googleOpts...)
		if err != nil {
			return nil, err
		}
		// Not fatal: the sheet may be reachable again by the first booking.
		if err := store.EnsureHeader(sc.ctx); err != nil {
			sc.logger.Warn("could not verify the booking sheet header", logging.Err(err))
		}
		return store, nil

	default:
		sc.logger.Warn("using the in-memory record store, bookings are lost on restart")
		return records.NewMemoryStore(sc.metrics), nil
	}
}

func (sc *ServerContext) openLocker() lock.Locker {
	cfg := sc.config.Lock
	if cfg.Backend != config.LockRedis {
		return lock.NewKeyedMutex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	locker := lock.NewRedisLocker(client, lock.RedisConfig{
		KeyPrefix:     cfg.KeyPrefix,
		LeaseDuration: cfg.LeaseDuration,
	}, logging.NewSlogAdapter(sc.logger))

	sc.closers = append(sc.closers, client.Close)
	sc.checks["redis"] = locker.Ping
	return locker
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the context was built from.
func (sc *ServerContext) Config() *config.Config {
	return sc.config
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, possibly nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, possibly nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Policy returns the business hours.
func (sc *ServerContext) Policy() *scheduling.BusinessHoursPolicy {
	return sc.policy
}

// Coordinator returns the booking coordinator.
func (sc *ServerContext) Coordinator() *booking.Coordinator {
	return sc.coordinator
}

// Records returns the record store.
func (sc *ServerContext) Records() booking.RecordStore {
	return sc.records
}

// CalendarID returns requested, or the configured calendar when it is empty.
func (sc *ServerContext) CalendarID(requested string) string {
	if requested != "" {
		return requested
	}
	return sc.config.CalendarID
}

// DefaultDurationMinutes returns the duration used when a caller gives none.
func (sc *ServerContext) DefaultDurationMinutes() int {
	return sc.config.DefaultDurationMinutes
}

// HealthChecks returns the dependency probes registered while wiring.
func (sc *ServerContext) HealthChecks() map[string]HealthCheck {
	return sc.checks
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context and closes the store and lock
// connections.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()

	var errs []error
	for i := len(sc.closers) - 1; i >= 0; i-- {
		if err := sc.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
