// Package admission checks per-tenant resource usage against the tenant's
// subscription plan limits before a mutating operation proceeds.
package admission

import (
	"context"

	"github.com/staffhubhq/staffhub/internal/metrics"
	"github.com/staffhubhq/staffhub/internal/staff"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Gate is a read-only admission check. It is not atomic with the creation
// it guards: two concurrent requests can both pass at limit-1 and both
// create, exceeding the limit by one.
type Gate struct {
	db         *gorm.DB
	router     *tenantrouter.Router
	tenantRepo tenantdomain.Repository
	planRepo   subscriptiondomain.Repository
	counts     *CountCache
	log        *zap.Logger
	met        *metrics.Metrics
}

func NewGate(db *gorm.DB, router *tenantrouter.Router, tenantRepo tenantdomain.Repository, planRepo subscriptiondomain.Repository, counts *CountCache, log *zap.Logger, met *metrics.Metrics) *Gate {
	return &Gate{
		db:         db,
		router:     router,
		tenantRepo: tenantRepo,
		planRepo:   planRepo,
		counts:     counts,
		log:        log.Named("admission"),
		met:        met,
	}
}

// Allowed reports whether the tenant may create one more resource of kind.
// No active subscription fails closed; a zero limit for a kind the plan does
// not meter fails open.
func (g *Gate) Allowed(ctx context.Context, tenantID string, kind staff.ResourceKind) (bool, error) {
	tenant, err := g.tenantRepo.FindBySlug(ctx, g.db, tenantID)
	if err != nil {
		return false, err
	}
	if tenant == nil {
		return false, tenantdomain.ErrTenantNotFound
	}

	if tenant.SubscriptionID == nil {
		g.met.AdmissionDenied.WithLabelValues(string(kind)).Inc()
		return false, nil
	}

	plan, err := g.planRepo.FindByID(ctx, g.db, *tenant.SubscriptionID)
	if err != nil {
		return false, err
	}
	if plan == nil || !plan.Active {
		g.met.AdmissionDenied.WithLabelValues(string(kind)).Inc()
		return false, nil
	}

	limit := plan.LimitFor(kind)
	if limit <= 0 {
		g.met.AdmissionAllowed.WithLabelValues(string(kind)).Inc()
		return true, nil
	}

	count, err := g.currentCount(ctx, tenantID, kind)
	if err != nil {
		return false, err
	}

	if count >= limit {
		g.met.AdmissionDenied.WithLabelValues(string(kind)).Inc()
		g.log.Info("admission denied",
			zap.String("tenant", tenantID),
			zap.String("kind", string(kind)),
			zap.Int64("count", count),
			zap.Int64("limit", limit),
		)
		return false, nil
	}

	g.met.AdmissionAllowed.WithLabelValues(string(kind)).Inc()
	return true, nil
}

// Check is Allowed with the rejection surfaced as
// ErrSubscriptionLimitExceeded.
func (g *Gate) Check(ctx context.Context, tenantID string, kind staff.ResourceKind) error {
	allowed, err := g.Allowed(ctx, tenantID, kind)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrSubscriptionLimitExceeded
	}
	return nil
}

// Invalidate drops the cached count for a tenant/kind after a mutation.
func (g *Gate) Invalidate(ctx context.Context, tenantID string, kind staff.ResourceKind) {
	if g.counts != nil {
		g.counts.Invalidate(ctx, tenantID, kind)
	}
}

func (g *Gate) currentCount(ctx context.Context, tenantID string, kind staff.ResourceKind) (int64, error) {
	if g.counts != nil {
		if count, ok := g.counts.Get(ctx, tenantID, kind); ok {
			return count, nil
		}
	}

	model := staff.ModelFor(kind)
	if model == nil {
		return 0, nil
	}

	tenantDB, err := g.router.Resolve(ctx, tenantID)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := tenantDB.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return 0, err
	}

	if g.counts != nil {
		g.counts.Set(ctx, tenantID, kind, count)
	}
	return count, nil
}
