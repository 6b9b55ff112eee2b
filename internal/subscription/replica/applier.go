// Package replica maintains this service's local copy of tenant
// subscriptions, applied from fan-out events.
package replica

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/broker"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Applier appends a tenant_subscriptions row per applied event. Without
// consumer-side dedupe a redelivered event appends again; the duplicate rows
// are the observable cost of at-least-once delivery.
type Applier struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewApplier(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) *Applier {
	return &Applier{
		db:    db,
		log:   log.Named("subscription.replica"),
		genID: genID,
	}
}

func (a *Applier) Apply(ctx context.Context, data broker.SubscriptionData) error {
	planID, err := snowflake.ParseString(data.PlanID)
	if err != nil {
		return err
	}

	row := subscriptiondomain.TenantSubscription{
		ID:                  a.genID.Generate(),
		TenantSlug:          data.TenantSlug,
		PlanID:              planID,
		PlanName:            data.PlanName,
		PlanType:            data.PlanType,
		EmployeeLimit:       data.EmployeeLimit,
		ManagerLimit:        data.ManagerLimit,
		ServiceRequestLimit: data.ServiceRequestLimit,
	}
	if err := a.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	a.log.Info("subscription replica updated",
		zap.String("tenant", data.TenantSlug),
		zap.String("plan", data.PlanID),
	)
	return nil
}

// Current returns the newest replica row for a tenant, or nil when no event
// has been applied yet.
func (a *Applier) Current(ctx context.Context, tenantSlug string) (*subscriptiondomain.TenantSubscription, error) {
	var row subscriptiondomain.TenantSubscription
	err := a.db.WithContext(ctx).
		Where("tenant_slug = ?", tenantSlug).
		Order("applied_at DESC, id DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
