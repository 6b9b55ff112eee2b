package sessionguard

import (
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"go.uber.org/fx"
)

func provide(tenants tenantdomain.Service) Guard {
	return NewRegistryGuard(tenants)
}

var Module = fx.Module("sessionguard",
	fx.Provide(provide),
)
