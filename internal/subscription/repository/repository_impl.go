package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, plan *subscriptiondomain.Plan) error {
	return db.WithContext(ctx).Create(plan).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Plan, error) {
	var plan subscriptiondomain.Plan
	err := db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]subscriptiondomain.Plan, error) {
	stmt := db.WithContext(ctx).Order("created_at ASC")
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	var plans []subscriptiondomain.Plan
	err := stmt.Find(&plans).Error
	return plans, err
}

func (r *repo) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool) (int64, error) {
	tx := db.WithContext(ctx).Model(&subscriptiondomain.Plan{}).
		Where("id = ?", id).
		Update("active", active)
	return tx.RowsAffected, tx.Error
}
