package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tenantdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tenant *tenantdomain.Tenant) error {
	return db.WithContext(ctx).Create(tenant).Error
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := db.WithContext(ctx).Where("id = ?", id).First(&tenant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tenant, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tenantdomain.Tenant, error) {
	var tenants []tenantdomain.Tenant
	err := db.WithContext(ctx).Order("created_at ASC").Find(&tenants).Error
	return tenants, err
}

func (r *repo) SetBlocked(ctx context.Context, db *gorm.DB, slug string, blocked bool) (int64, error) {
	tx := db.WithContext(ctx).Model(&tenantdomain.Tenant{}).
		Where("slug = ?", slug).
		Update("blocked", blocked)
	return tx.RowsAffected, tx.Error
}

func (r *repo) SetSubscription(ctx context.Context, db *gorm.DB, slug string, subscriptionID snowflake.ID) (int64, error) {
	tx := db.WithContext(ctx).Model(&tenantdomain.Tenant{}).
		Where("slug = ?", slug).
		Update("subscription_id", subscriptionID)
	return tx.RowsAffected, tx.Error
}
