package replicated

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ErrNotFound is returned when the targeted copy has no row for the
// requested identifier.
var ErrNotFound = errors.New("resource_not_found")

// PartialReplicationError reports a dual write that diverged: one of the two
// copies was written and the other write failed. The completed write is not
// rolled back; callers observe the divergence instead of a masked success.
type PartialReplicationError struct {
	Op       string
	Phase    string
	Tenant   string
	EntityID snowflake.ID
	Err      error
}

func (e *PartialReplicationError) Error() string {
	return fmt.Sprintf("partial replication: %s failed on %s store (tenant=%s id=%s): %v",
		e.Op, e.Phase, e.Tenant, e.EntityID, e.Err)
}

func (e *PartialReplicationError) Unwrap() error { return e.Err }
