package tenantrouter

import (
	"github.com/staffhubhq/staffhub/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// TenantModels lists the models migrated into each tenant database on first
// open. The package owning the tenant-scoped tables provides it.
type TenantModels []any

func provide(cfg db.Config, log *zap.Logger, models TenantModels) *Router {
	return New(cfg, log, WithModels(models))
}

var Module = fx.Module("tenantrouter",
	fx.Provide(provide),
)
