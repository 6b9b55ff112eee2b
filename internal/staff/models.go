// Package staff contains the tenant-scoped resource models. Every model here
// lives in the owning tenant's logical database and is replicated into the
// shared store under the same identifier.
package staff

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ResourceKind identifies a metered tenant resource.
type ResourceKind string

const (
	KindEmployee       ResourceKind = "employee"
	KindManager        ResourceKind = "manager"
	KindServiceRequest ResourceKind = "servicerequest"
)

// Employee is a staff member of a tenant.
type Employee struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantSlug string            `gorm:"type:text;not null;index" json:"tenant_slug"`
	FirstName  string            `gorm:"type:text;not null" json:"first_name"`
	LastName   string            `gorm:"type:text" json:"last_name"`
	Email      string            `gorm:"type:text;not null" json:"email"`
	Position   string            `gorm:"type:text" json:"position"`
	ManagerID  *snowflake.ID     `gorm:"index" json:"manager_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Employee) TableName() string { return "employees" }

func (e *Employee) GetID() snowflake.ID      { return e.ID }
func (e *Employee) SetID(id snowflake.ID)    { e.ID = id }
func (e *Employee) TenantRef() string        { return e.TenantSlug }
func (e *Employee) SetTenantRef(slug string) { e.TenantSlug = slug }

// Manager is a staff member with reports.
type Manager struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantSlug string            `gorm:"type:text;not null;index" json:"tenant_slug"`
	FirstName  string            `gorm:"type:text;not null" json:"first_name"`
	LastName   string            `gorm:"type:text" json:"last_name"`
	Email      string            `gorm:"type:text;not null" json:"email"`
	Department string            `gorm:"type:text" json:"department"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Manager) TableName() string { return "managers" }

func (m *Manager) GetID() snowflake.ID      { return m.ID }
func (m *Manager) SetID(id snowflake.ID)    { m.ID = id }
func (m *Manager) TenantRef() string        { return m.TenantSlug }
func (m *Manager) SetTenantRef(slug string) { m.TenantSlug = slug }

// ServiceRequest is an HR service ticket raised inside a tenant.
type ServiceRequest struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantSlug  string            `gorm:"type:text;not null;index" json:"tenant_slug"`
	EmployeeID  *snowflake.ID     `gorm:"index" json:"employee_id,omitempty"`
	Subject     string            `gorm:"type:text;not null" json:"subject"`
	Description string            `gorm:"type:text" json:"description"`
	Status      string            `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (ServiceRequest) TableName() string { return "service_requests" }

func (r *ServiceRequest) GetID() snowflake.ID      { return r.ID }
func (r *ServiceRequest) SetID(id snowflake.ID)    { r.ID = id }
func (r *ServiceRequest) TenantRef() string        { return r.TenantSlug }
func (r *ServiceRequest) SetTenantRef(slug string) { r.TenantSlug = slug }

// Models lists every tenant-scoped model, in migration order.
func Models() []any {
	return []any{&Employee{}, &Manager{}, &ServiceRequest{}}
}

// ModelFor returns an empty model value for a resource kind, or nil for a
// kind the platform does not meter.
func ModelFor(kind ResourceKind) any {
	switch kind {
	case KindEmployee:
		return &Employee{}
	case KindManager:
		return &Manager{}
	case KindServiceRequest:
		return &ServiceRequest{}
	default:
		return nil
	}
}
