// Package sessionguard declares the collaborator contract for token
// verification and tenant block checks. Token cryptography is implemented by
// the auth service; this core only depends on these operations being
// available synchronously per request.
package sessionguard

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken = errors.New("invalid_token")
	ErrExpiredToken = errors.New("expired_token")
)

// Claims are the verified contents of an access token.
type Claims struct {
	Subject    string
	TenantSlug string
	Role       string
}

// Guard is the collaborator surface consumed by the gate/auth layer.
type Guard interface {
	Verify(ctx context.Context, token string) (Claims, error)
	IsBlocked(ctx context.Context, tenantID string) (bool, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
}

// BlockChecker answers tenant block lookups; the tenant service satisfies
// it.
type BlockChecker interface {
	IsBlocked(ctx context.Context, slug string) (bool, error)
}

// registryGuard backs IsBlocked with the tenant registry and passes tokens
// through opaque. It stands in until the auth service is wired.
type registryGuard struct {
	tenants BlockChecker
}

func NewRegistryGuard(tenants BlockChecker) Guard {
	return &registryGuard{tenants: tenants}
}

func (g *registryGuard) Verify(ctx context.Context, token string) (Claims, error) {
	_ = ctx
	if token == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: token}, nil
}

func (g *registryGuard) IsBlocked(ctx context.Context, tenantID string) (bool, error) {
	return g.tenants.IsBlocked(ctx, tenantID)
}

func (g *registryGuard) Refresh(ctx context.Context, refreshToken string) (string, error) {
	_ = ctx
	if refreshToken == "" {
		return "", ErrExpiredToken
	}
	return refreshToken, nil
}
