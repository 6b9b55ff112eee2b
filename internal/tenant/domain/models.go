// Package domain contains persistence models for the tenant registry.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tenant represents a business account. Tenants are never hard-deleted;
// Blocked is the terminal state.
type Tenant struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	Slug           string            `gorm:"type:text;not null;uniqueIndex:ux_tenants_slug" json:"slug"`
	Name           string            `gorm:"type:text;not null" json:"name"`
	SubscriptionID *snowflake.ID     `gorm:"index" json:"subscription_id,omitempty"`
	Blocked        bool              `gorm:"not null;default:false" json:"blocked"`
	Verified       bool              `gorm:"not null;default:false" json:"verified"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Tenant) TableName() string { return "tenants" }
