// Package seed bootstraps the default subscription plans on first startup so
// a fresh deployment can assign tenants a plan immediately.
package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func defaultPlans(node *snowflake.Node) []subscriptiondomain.Plan {
	return []subscriptiondomain.Plan{
		{
			ID:                  node.Generate(),
			Name:                "Trial",
			PlanType:            subscriptiondomain.PlanTypeTrial,
			DurationDays:        14,
			EmployeeLimit:       3,
			ManagerLimit:        1,
			ServiceRequestLimit: 10,
			Active:              true,
		},
		{
			ID:                  node.Generate(),
			Name:                "Basic",
			PlanType:            subscriptiondomain.PlanTypeBasic,
			PriceCents:          4900,
			DurationDays:        30,
			EmployeeLimit:       25,
			ManagerLimit:        5,
			ServiceRequestLimit: 100,
			Active:              true,
		},
		{
			// Zero limits: premium tenants are not metered.
			ID:           node.Generate(),
			Name:         "Premium",
			PlanType:     subscriptiondomain.PlanTypePremium,
			PriceCents:   19900,
			DurationDays: 30,
			Active:       true,
		},
	}
}

// EnsureDefaultPlans inserts the stock plans when the plans table is empty.
// Existing plans are never touched.
func EnsureDefaultPlans(db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
	ctx := context.Background()

	var count int64
	if err := db.WithContext(ctx).Model(&subscriptiondomain.Plan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	plans := defaultPlans(node)
	if err := db.WithContext(ctx).Create(&plans).Error; err != nil {
		return err
	}

	log.Info("default plans seeded", zap.Int("count", len(plans)))
	return nil
}

var Module = fx.Module("seed",
	fx.Invoke(func(db *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
		return EnsureDefaultPlans(db, node, log.Named("seed"))
	}),
)
