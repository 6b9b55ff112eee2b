package domain

import "context"

type CreatePlanRequest struct {
	Name                string   `json:"name"`
	PlanType            PlanType `json:"plan_type"`
	PriceCents          int64    `json:"price_cents"`
	DurationDays        int      `json:"duration_days"`
	Features            []string `json:"features,omitempty"`
	EmployeeLimit       int64    `json:"employee_limit"`
	ManagerLimit        int64    `json:"manager_limit"`
	ServiceRequestLimit int64    `json:"service_request_limit"`
}

type AssignPlanRequest struct {
	TenantSlug string `json:"tenant_slug"`
	PlanID     string `json:"plan_id"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Create(ctx context.Context, req CreatePlanRequest) (Plan, error)
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	GetByID(ctx context.Context, id string) (Plan, error)
	Deactivate(ctx context.Context, id string) error
	// Assign stores the plan reference on the tenant row and fans the change
	// out to dependent services. The fan-out is fire-and-forget: a broker
	// outage never fails the assignment.
	Assign(ctx context.Context, req AssignPlanRequest) (Plan, error)
}
