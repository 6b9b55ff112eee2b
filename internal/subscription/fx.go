package subscription

import (
	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/broker"
	"github.com/staffhubhq/staffhub/internal/subscription/replica"
	"github.com/staffhubhq/staffhub/internal/subscription/repository"
	"github.com/staffhubhq/staffhub/internal/subscription/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideApplier(db *gorm.DB, log *zap.Logger, genID *snowflake.Node) *replica.Applier {
	return replica.NewApplier(db, log, genID)
}

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(provideApplier),
	fx.Provide(func(a *replica.Applier) broker.SubscriptionApplier { return a }),
)
