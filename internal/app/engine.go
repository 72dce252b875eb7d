// Package app wires together all adapters and domain logic: configuration,
// the history store, the alias table (with its optional overlay), import
// sessions and the retention scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/corey/colrecon/aliases"
	"github.com/corey/colrecon/internal/adapters/ahocorasick"
	"github.com/corey/colrecon/internal/adapters/registry"
	"github.com/corey/colrecon/internal/domain/dictionary"
	"github.com/corey/colrecon/internal/domain/field"
	"github.com/corey/colrecon/internal/domain/history"
	"github.com/corey/colrecon/internal/domain/resolver"
	"github.com/corey/colrecon/internal/ports"

	// Store adapters register themselves with the registry.
	_ "github.com/corey/colrecon/internal/adapters/bbolt"
	_ "github.com/corey/colrecon/internal/adapters/postgres"
	_ "github.com/corey/colrecon/internal/adapters/sqlite"
)

// pruneTimeout bounds one scheduled retention run.
const pruneTimeout = 5 * time.Minute

// Options holds the Engine's collaborators.
type Options struct {
	Store  ports.MappingStore
	Params resolver.Params
	// AliasDir is the operator overlay directory. Empty or missing means the
	// embedded table only.
	AliasDir string
	Logger   *slog.Logger
}

// Engine owns the history store and the active resolver. The resolver is
// swapped atomically on overlay reload; sessions keep the one they started with.
type Engine struct {
	store    ports.MappingStore
	recorder *history.Recorder
	base     *dictionary.Dictionary
	params   resolver.Params
	aliasDir string
	logger   *slog.Logger

	current atomic.Pointer[resolver.Resolver]

	mu        sync.Mutex
	watcher   ports.Watcher
	scheduler *cron.Cron
	closed    bool
}

// Open opens the configured store and builds an Engine on it. The Engine
// owns the store and closes it on Close.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	store, err := registry.Open(ctx, cfg.Store, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	e, err := New(Options{
		Store:    store,
		Params:   cfg.Params,
		AliasDir: cfg.AliasDir,
		Logger:   logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	return e, nil
}

// New loads the embedded alias table, layers the overlay, and validates
// params. Any failure here is a startup failure.
func New(opts Options) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	base, err := dictionary.Load(aliases.FS, "v1")
	if err != nil {
		return nil, fmt.Errorf("load alias table: %w", err)
	}

	e := &Engine{
		store:    opts.Store,
		recorder: history.NewRecorder(opts.Store, opts.Logger),
		base:     base,
		params:   opts.Params,
		aliasDir: opts.AliasDir,
		logger:   opts.Logger,
	}

	dict, err := e.withOverlay()
	if err != nil {
		return nil, err
	}
	res, err := e.build(dict)
	if err != nil {
		return nil, err
	}
	e.current.Store(res)

	e.logger.Debug("engine ready",
		"aliases", dict.Len(), "overlay", dict.Len()-base.Len())
	return e, nil
}

func (e *Engine) build(dict *dictionary.Dictionary) (*resolver.Resolver, error) {
	return resolver.New(resolver.Config{
		Dictionary: dict,
		NewScanner: ahocorasick.NewKeywordScanner,
		Params:     e.params,
	})
}

// withOverlay merges the overlay directory into the embedded table.
func (e *Engine) withOverlay() (*dictionary.Dictionary, error) {
	if e.aliasDir == "" {
		return e.base, nil
	}
	info, err := os.Stat(e.aliasDir)
	if errors.Is(err, fs.ErrNotExist) {
		return e.base, nil
	}
	if err != nil {
		return nil, fmt.Errorf("alias overlay: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("alias overlay %s: not a directory", e.aliasDir)
	}
	d, err := e.base.Merge(os.DirFS(e.aliasDir), ".")
	if err != nil {
		return nil, fmt.Errorf("alias overlay %s: %w", e.aliasDir, err)
	}
	return d, nil
}

// Reload rebuilds the resolver from the embedded table plus the current
// overlay contents. On error the previous resolver stays active.
func (e *Engine) Reload() error {
	dict, err := e.withOverlay()
	if err == nil {
		var res *resolver.Resolver
		if res, err = e.build(dict); err == nil {
			e.current.Store(res)
			e.logger.Info("alias table reloaded", "aliases", dict.Len())
			return nil
		}
	}
	e.logger.Warn("alias overlay rejected, keeping previous table", "dir", e.aliasDir, "err", err)
	return err
}

// WatchAliases reloads the alias table whenever a YAML file in the overlay
// directory changes. The Engine stops w on Close.
func (e *Engine) WatchAliases(w ports.Watcher) error {
	if e.aliasDir == "" {
		return errors.New("no alias overlay directory configured")
	}
	if err := os.MkdirAll(e.aliasDir, 0755); err != nil {
		return fmt.Errorf("create alias dir: %w", err)
	}
	if err := w.Watch(e.aliasDir, func(path string) {
		e.logger.Debug("alias file changed", "path", path)
		_ = e.Reload()
	}); err != nil {
		return fmt.Errorf("watch %s: %w", e.aliasDir, err)
	}

	e.mu.Lock()
	e.watcher = w
	e.mu.Unlock()
	return nil
}

// Dictionary returns the alias table new sessions will use.
func (e *Engine) Dictionary() *dictionary.Dictionary { return e.current.Load().Dictionary() }

// Params returns the resolver parameters.
func (e *Engine) Params() resolver.Params { return e.params }

// =============================================================================
// Sessions
// =============================================================================

// Session resolves the columns of one import for one tenant. It reads a
// snapshot of the alias table and the tenant's history taken at creation;
// mappings confirmed during the session apply to the next one.
type Session struct {
	tenant   string
	resolver *resolver.Resolver
	recorder *history.Recorder
	learned  int
}

// NewSession loads the tenant's history once. A store failure is not fatal:
// the session logs a warning and resolves without learned mappings.
func (e *Engine) NewSession(ctx context.Context, tenant string) (*Session, error) {
	if tenant == "" {
		return nil, history.ErrEmptyTenant
	}
	ix, err := history.Load(ctx, e.store, tenant)
	if err != nil {
		e.logger.Warn("history unavailable, resolving without learned mappings",
			"tenant", tenant, "err", err)
		ix = nil
	}
	return &Session{
		tenant:   tenant,
		resolver: e.current.Load().WithHistory(ix),
		recorder: e.recorder,
		learned:  ix.Len(),
	}, nil
}

// Tenant returns the session's tenant.
func (s *Session) Tenant() string { return s.tenant }

// Learned returns how many learned headers the session consults.
func (s *Session) Learned() int { return s.learned }

// Resolve maps one header.
func (s *Session) Resolve(header string, sample []string) field.MatchResult {
	return s.resolver.Resolve(header, sample)
}

// ResolveAll maps every column, results in input order.
func (s *Session) ResolveAll(columns []ports.Column) []field.MatchResult {
	return s.resolver.ResolveAll(columns)
}

// Confirm records a mapping the user accepted or corrected.
func (s *Session) Confirm(ctx context.Context, header string, f field.Field, confidence float64, source string) (ports.MappingRecord, error) {
	return s.recorder.Record(ctx, s.tenant, header, f, confidence, source)
}

// ResolveColumns opens a session and resolves columns in it.
func (e *Engine) ResolveColumns(ctx context.Context, tenant string, columns []ports.Column) ([]field.MatchResult, error) {
	s, err := e.NewSession(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return s.ResolveAll(columns), nil
}

// Confirm records a mapping outside of a session.
func (e *Engine) Confirm(ctx context.Context, tenant, header string, f field.Field, confidence float64, source string) (ports.MappingRecord, error) {
	return e.recorder.Record(ctx, tenant, header, f, confidence, source)
}

// Mappings lists a tenant's learned mappings newest first, optionally for
// one header.
func (e *Engine) Mappings(ctx context.Context, tenant, header string) ([]ports.MappingRecord, error) {
	return history.List(ctx, e.store, tenant, header)
}

// =============================================================================
// Retention
// =============================================================================

// Prune applies p to one tenant.
func (e *Engine) Prune(ctx context.Context, tenant string, p history.Policy, now time.Time) (int, error) {
	n, err := history.Prune(ctx, e.store, tenant, p, now)
	if err != nil {
		return n, err
	}
	if n > 0 {
		e.logger.Info("history pruned", "tenant", tenant, "removed", n)
	}
	return n, nil
}

// PruneAll applies p to every tenant the store knows. The store must
// implement ports.TenantLister. Errors for one tenant do not stop the others.
func (e *Engine) PruneAll(ctx context.Context, p history.Policy, now time.Time) (int, error) {
	lister, ok := e.store.(ports.TenantLister)
	if !ok {
		return 0, errors.New("store cannot list tenants")
	}
	tenants, err := lister.Tenants(ctx)
	if err != nil {
		return 0, fmt.Errorf("list tenants: %w", err)
	}

	total := 0
	var errs []error
	for _, t := range tenants {
		n, err := e.Prune(ctx, t, p, now)
		total += n
		if err != nil {
			errs = append(errs, fmt.Errorf("tenant %s: %w", t, err))
		}
	}
	return total, errors.Join(errs...)
}

// StartRetention runs PruneAll on a standard 5-field cron schedule (UTC)
// until Close.
func (e *Engine) StartRetention(schedule string, p history.Policy) error {
	if !p.Enabled() {
		return errors.New("retention policy removes nothing")
	}
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		if _, err := e.PruneAll(ctx, p, time.Now().UTC()); err != nil {
			e.logger.Warn("scheduled prune failed", "err", err)
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule retention: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scheduler != nil {
		e.scheduler.Stop()
	}
	e.scheduler = c
	c.Start()
	e.logger.Info("retention scheduler started", "schedule", schedule,
		"max_age", p.MaxAge, "keep_per_header", p.KeepPerHeader)
	return nil
}

// Close stops the watcher and scheduler and closes the store. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	if e.scheduler != nil {
		<-e.scheduler.Stop().Done()
	}
	if e.watcher != nil {
		e.watcher.Stop()
	}
	return e.store.Close()
}
