// Package tenantrouter resolves tenant identifiers to live database handles.
package tenantrouter

import (
	"context"
	"strings"
	"sync"

	"github.com/staffhubhq/staffhub/pkg/db"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// Router maps tenant identifiers to logical database handles. The cache is
// additive-only: a handle opened for a tenant is reused for the lifetime of
// the process. Resolving a handle is not authorization; an identifier that
// was never registered still resolves to an (empty) logical database, and a
// registry lookup is required before trusting results.
type Router struct {
	cfg     db.Config
	log     *zap.Logger
	models  []any
	opener  func(db.Config, string) (*gorm.DB, error)
	group   singleflight.Group
	mu      sync.RWMutex
	handles map[string]*gorm.DB
}

// Option configures a Router.
type Option func(*Router)

// WithModels sets the tenant-scoped models migrated when a handle is first
// opened.
func WithModels(models []any) Option {
	return func(r *Router) { r.models = models }
}

// WithOpener overrides how a logical database is opened. Tests use this to
// substitute in-memory databases.
func WithOpener(open func(cfg db.Config, tenantID string) (*gorm.DB, error)) Option {
	return func(r *Router) { r.opener = open }
}

func New(cfg db.Config, log *zap.Logger, opts ...Option) *Router {
	r := &Router{
		cfg:     cfg,
		log:     log.Named("tenantrouter"),
		opener:  openTenantDB,
		handles: make(map[string]*gorm.DB),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the database handle for a tenant, opening it on first
// access. Concurrent first accesses for the same tenant share one open
// (single flight); repeated calls return the same handle.
func (r *Router) Resolve(ctx context.Context, tenantID string) (*gorm.DB, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, ErrEmptyTenantID
	}

	r.mu.RLock()
	handle, ok := r.handles[tenantID]
	r.mu.RUnlock()
	if ok {
		return handle, nil
	}

	v, err, _ := r.group.Do(tenantID, func() (any, error) {
		r.mu.RLock()
		cached, ok := r.handles[tenantID]
		r.mu.RUnlock()
		if ok {
			return cached, nil
		}

		opened, err := r.opener(r.cfg, tenantID)
		if err != nil {
			return nil, err
		}
		if len(r.models) > 0 {
			if err := opened.WithContext(ctx).AutoMigrate(r.models...); err != nil {
				return nil, err
			}
		}

		r.mu.Lock()
		r.handles[tenantID] = opened
		r.mu.Unlock()

		r.log.Info("tenant database opened",
			zap.String("tenant", tenantID),
			zap.String("database", db.TenantDatabaseName(r.cfg.TenantPrefix, tenantID)),
		)
		return opened, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB), nil
}

// Size reports the number of cached handles.
func (r *Router) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handles)
}

func openTenantDB(cfg db.Config, tenantID string) (*gorm.DB, error) {
	dialect, err := db.TenantDialect(cfg, tenantID)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialect, &gorm.Config{})
}
