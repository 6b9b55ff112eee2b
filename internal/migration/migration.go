// Package migration migrates the shared/global database schema. Tenant
// logical databases are migrated lazily by the router on first resolution.
package migration

import (
	"github.com/staffhubhq/staffhub/internal/staff"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"gorm.io/gorm"
)

// GlobalModels lists every model persisted in the shared/global database:
// the tenant registry, plan catalog, the consumer's subscription replica,
// and the global copies of replicated tenant resources.
func GlobalModels() []any {
	models := []any{
		&tenantdomain.Tenant{},
		&subscriptiondomain.Plan{},
		&subscriptiondomain.TenantSubscription{},
	}
	return append(models, staff.Models()...)
}

// Run migrates the global schema.
func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(GlobalModels()...)
}
