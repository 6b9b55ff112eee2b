package admission

import "errors"

// ErrSubscriptionLimitExceeded rejects a mutating operation whose resource
// kind is at the plan limit. Maps to a client-visible conflict.
var ErrSubscriptionLimitExceeded = errors.New("subscription_limit_exceeded")
