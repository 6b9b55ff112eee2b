package tenant

import (
	"github.com/staffhubhq/staffhub/internal/tenant/repository"
	"github.com/staffhubhq/staffhub/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
