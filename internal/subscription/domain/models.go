// Package domain contains persistence models for subscription plans.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/staff"
	"gorm.io/datatypes"
)

// PlanType classifies a subscription plan.
type PlanType string

const (
	PlanTypeTrial   PlanType = "TRIAL"
	PlanTypeBasic   PlanType = "BASIC"
	PlanTypePremium PlanType = "PREMIUM"
)

// Plan is a subscription plan definition. Read-mostly; referenced by the
// admission gate and copied into the tenant row at assignment time.
type Plan struct {
	ID                  snowflake.ID                `gorm:"primaryKey" json:"id"`
	Name                string                      `gorm:"type:text;not null" json:"name"`
	PlanType            PlanType                    `gorm:"type:text;not null" json:"plan_type"`
	PriceCents          int64                       `gorm:"not null;default:0" json:"price_cents"`
	DurationDays        int                         `gorm:"not null;default:30" json:"duration_days"`
	Features            datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"features,omitempty"`
	EmployeeLimit       int64                       `gorm:"not null;default:0" json:"employee_limit"`
	ManagerLimit        int64                       `gorm:"not null;default:0" json:"manager_limit"`
	ServiceRequestLimit int64                       `gorm:"not null;default:0" json:"service_request_limit"`
	Active              bool                        `gorm:"not null;default:true" json:"active"`
	CreatedAt           time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

// LimitFor returns the plan limit for a resource kind. Zero means the kind
// is not metered by this plan and admission treats it as unlimited.
func (p Plan) LimitFor(kind staff.ResourceKind) int64 {
	switch kind {
	case staff.KindEmployee:
		return p.EmployeeLimit
	case staff.KindManager:
		return p.ManagerLimit
	case staff.KindServiceRequest:
		return p.ServiceRequestLimit
	default:
		return 0
	}
}

// TenantSubscription is this service's local replica of a tenant's current
// subscription, maintained by the event consumer. Each applied event appends
// a row; the newest row per tenant is the current view.
type TenantSubscription struct {
	ID                  snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantSlug          string       `gorm:"type:text;not null;index" json:"tenant_slug"`
	PlanID              snowflake.ID `gorm:"not null" json:"plan_id"`
	PlanName            string       `gorm:"type:text;not null" json:"plan_name"`
	PlanType            string       `gorm:"type:text;not null" json:"plan_type"`
	EmployeeLimit       int64        `gorm:"not null;default:0" json:"employee_limit"`
	ManagerLimit        int64        `gorm:"not null;default:0" json:"manager_limit"`
	ServiceRequestLimit int64        `gorm:"not null;default:0" json:"service_request_limit"`
	AppliedAt           time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"applied_at"`
}

// TableName sets the database table name.
func (TenantSubscription) TableName() string { return "tenant_subscriptions" }
