package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tenant *Tenant) error
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Tenant, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tenant, error)
	List(ctx context.Context, db *gorm.DB) ([]Tenant, error)
	SetBlocked(ctx context.Context, db *gorm.DB, slug string, blocked bool) (int64, error)
	SetSubscription(ctx context.Context, db *gorm.DB, slug string, subscriptionID snowflake.ID) (int64, error)
}
