package staff

import (
	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"github.com/staffhubhq/staffhub/internal/replicated"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// EmployeeStore and friends name the replicated store instantiations so fx
// can wire them.
type (
	EmployeeStore       = replicated.Store[Employee, *Employee]
	ManagerStore        = replicated.Store[Manager, *Manager]
	ServiceRequestStore = replicated.Store[ServiceRequest, *ServiceRequest]
)

func provideStores(router *tenantrouter.Router, global *gorm.DB, genID *snowflake.Node, log *zap.Logger, met *metrics.Metrics) (*EmployeeStore, *ManagerStore, *ServiceRequestStore) {
	return replicated.NewStore[Employee, *Employee](router, global, genID, log, met),
		replicated.NewStore[Manager, *Manager](router, global, genID, log, met),
		replicated.NewStore[ServiceRequest, *ServiceRequest](router, global, genID, log, met)
}

func provideModels() tenantrouter.TenantModels {
	return tenantrouter.TenantModels(Models())
}

var Module = fx.Module("staff",
	fx.Provide(provideStores),
	fx.Provide(provideModels),
)
