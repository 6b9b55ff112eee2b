// Package replicated implements the dual-write store: every mutation is
// applied to the owning tenant's logical database and to the shared/global
// database under the same identifier. The two writes are not wrapped in a
// transaction; a divergent pair surfaces as *PartialReplicationError.
package replicated

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Replicable is an entity that carries the shared identifier and the owning
// tenant reference across both copies.
type Replicable interface {
	GetID() snowflake.ID
	SetID(id snowflake.ID)
	TenantRef() string
	SetTenantRef(slug string)
}

// Entity constrains a pointer type to a Replicable model.
type Entity[T any] interface {
	*T
	Replicable
}

// Store performs dual writes for one model type.
type Store[T any, PT Entity[T]] struct {
	router *tenantrouter.Router
	global *gorm.DB
	genID  *snowflake.Node
	log    *zap.Logger
	met    *metrics.Metrics
}

func NewStore[T any, PT Entity[T]](router *tenantrouter.Router, global *gorm.DB, genID *snowflake.Node, log *zap.Logger, met *metrics.Metrics) *Store[T, PT] {
	return &Store[T, PT]{
		router: router,
		global: global,
		genID:  genID,
		log:    log.Named("replicated"),
		met:    met,
	}
}

// Create writes the tenant-scoped copy first, then the global copy, using
// one generated identifier for both. If the global write fails the tenant
// copy stays readable and the error is a *PartialReplicationError.
func (s *Store[T, PT]) Create(ctx context.Context, tenantID string, entity PT) error {
	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return err
	}

	if entity.GetID() == 0 {
		entity.SetID(s.genID.Generate())
	}
	entity.SetTenantRef(tenantID)

	if err := tenantDB.WithContext(ctx).Create(entity).Error; err != nil {
		return err
	}

	if err := s.global.WithContext(ctx).Create(entity).Error; err != nil {
		return s.partial(ctx, "create", tenantID, entity.GetID(), err)
	}
	return nil
}

// Update patches the tenant copy, then re-patches the global copy with the
// same fields. The updated tenant copy is returned even when the global
// write failed, alongside the partial-replication error.
func (s *Store[T, PT]) Update(ctx context.Context, tenantID string, id snowflake.ID, patch map[string]any) (PT, error) {
	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if patch == nil {
		patch = map[string]any{}
	}
	patch["updated_at"] = time.Now().UTC()

	tx := tenantDB.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(patch)
	if tx.Error != nil {
		return nil, tx.Error
	}
	if tx.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	updated, err := s.FindTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.global.WithContext(ctx).Model(PT(new(T))).Where("id = ?", id).Updates(patch).Error; err != nil {
		return updated, s.partial(ctx, "update", tenantID, id, err)
	}
	return updated, nil
}

// Remove deletes the tenant copy, then the global copy, returning the entity
// as it was before deletion.
func (s *Store[T, PT]) Remove(ctx context.Context, tenantID string, id snowflake.ID) (PT, error) {
	removed, err := s.FindTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := tenantDB.WithContext(ctx).Where("id = ?", id).Delete(PT(new(T))).Error; err != nil {
		return nil, err
	}

	if err := s.global.WithContext(ctx).Where("id = ?", id).Delete(PT(new(T))).Error; err != nil {
		return removed, s.partial(ctx, "remove", tenantID, id, err)
	}
	return removed, nil
}

// FindTenant reads the tenant-scoped copy. Callers pick the copy explicitly;
// there is no automatic routing by freshness.
func (s *Store[T, PT]) FindTenant(ctx context.Context, tenantID string, id snowflake.ID) (PT, error) {
	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.findOne(ctx, tenantDB, id)
}

// FindGlobal reads the shared/global copy, used for cross-tenant lookups by
// identifier alone.
func (s *Store[T, PT]) FindGlobal(ctx context.Context, id snowflake.ID) (PT, error) {
	return s.findOne(ctx, s.global, id)
}

// ListTenant reads every tenant-scoped row for a tenant.
func (s *Store[T, PT]) ListTenant(ctx context.Context, tenantID string) ([]T, error) {
	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	var result []T
	err = tenantDB.WithContext(ctx).Order("created_at ASC").Find(&result).Error
	return result, err
}

// CountTenant reports the number of tenant-scoped rows for a tenant.
func (s *Store[T, PT]) CountTenant(ctx context.Context, tenantID string) (int64, error) {
	tenantDB, err := s.router.Resolve(ctx, tenantID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = tenantDB.WithContext(ctx).Model(PT(new(T))).Count(&count).Error
	return count, err
}

func (s *Store[T, PT]) findOne(ctx context.Context, gdb *gorm.DB, id snowflake.ID) (PT, error) {
	var result T
	err := gdb.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &result, nil
}

func (s *Store[T, PT]) partial(ctx context.Context, op, tenantID string, id snowflake.ID, cause error) error {
	_ = ctx
	err := &PartialReplicationError{
		Op:       op,
		Phase:    "global",
		Tenant:   tenantID,
		EntityID: id,
		Err:      cause,
	}
	s.met.PartialReplicated.Inc()
	s.log.Error("dual write diverged",
		zap.String("op", op),
		zap.String("tenant", tenantID),
		zap.String("id", id.String()),
		zap.Error(cause),
	)
	return err
}
