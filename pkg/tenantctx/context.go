package tenantctx

import (
	"context"
	"strings"
)

type keyType string

const (
	// TenantIDKey is the request context key for the active tenant identifier.
	TenantIDKey keyType = "tenant_id"
)

// WithTenantID stores the tenant identifier in the context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, TenantIDKey, tenantID)
}

// TenantID returns the tenant identifier from context, if set and non-empty.
func TenantID(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(TenantIDKey).(string)
	if !ok {
		return "", false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", false
	}
	return id, true
}
