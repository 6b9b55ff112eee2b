package domain

import "context"

type CreateTenantRequest struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	Create(ctx context.Context, req CreateTenantRequest) (Tenant, error)
	Get(ctx context.Context, slug string) (Tenant, error)
	List(ctx context.Context) ([]Tenant, error)
	Block(ctx context.Context, slug string) error
	Unblock(ctx context.Context, slug string) error
	IsBlocked(ctx context.Context, slug string) (bool, error)
}
