package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/gosimple/slug"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Dialect builds the dialector for the shared/global database.
func Dialect(cfg Config) (gorm.Dialector, error) {
	return dialectFor(cfg, cfg.Name)
}

// TenantDialect builds the dialector for a tenant-scoped logical database.
// The database name is derived from the tenant identifier; selecting a
// database by name always succeeds, even for an identifier that was never
// registered. Resolution is not authorization.
func TenantDialect(cfg Config, tenantID string) (gorm.Dialector, error) {
	return dialectFor(cfg, TenantDatabaseName(cfg.TenantPrefix, tenantID))
}

// TenantDatabaseName derives the logical database name for a tenant.
func TenantDatabaseName(prefix, tenantID string) string {
	if prefix == "" {
		prefix = "tenant"
	}
	return fmt.Sprintf("%s_%s", prefix, slug.Make(tenantID))
}

func dialectFor(cfg Config, name string) (gorm.Dialector, error) {
	switch cfg.Type {
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case "sqlite":
		if cfg.Host == ":memory:" {
			return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), nil
		}
		return sqlite.Open(fmt.Sprintf("%s.db", name)), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}
