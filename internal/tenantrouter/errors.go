package tenantrouter

import "errors"

// ErrEmptyTenantID is returned when Resolve is called without a tenant
// identifier.
var ErrEmptyTenantID = errors.New("empty_tenant_id")
