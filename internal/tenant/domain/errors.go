package domain

import "errors"

var (
	// ErrTenantNotFound is returned when the registry has no row for the
	// requested identifier. Handle resolution never raises this; only a
	// registry lookup against the resolved handle can.
	ErrTenantNotFound = errors.New("tenant_not_found")

	ErrTenantBlocked = errors.New("tenant_blocked")
	ErrInvalidTenant = errors.New("invalid_tenant")
)
