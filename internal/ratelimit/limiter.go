package ratelimit

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Limiter is the per-tenant request limiter. A nil Limiter admits every
// request, which is the mode without redis or with a zero configured rate.
type Limiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLimiter(bucket *TokenBucket, rate, burst int, log *zap.Logger) *Limiter {
	if bucket == nil || rate <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = rate
	}
	return &Limiter{
		bucket: bucket,
		rate:   float64(rate),
		burst:  burst,
		log:    log.Named("ratelimit"),
	}
}

// Allow takes one token from the tenant's bucket. A redis failure admits the
// request; throttling is best effort and must not take the API down with the
// cache.
func (l *Limiter) Allow(ctx context.Context, tenantID string) *Result {
	if l == nil {
		return &Result{Allowed: true}
	}

	res, err := l.bucket.Allow(ctx, tenantKey(tenantID), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limit check failed, admitting", zap.Error(err))
		return &Result{Allowed: true}
	}
	return res
}

func tenantKey(tenantID string) string {
	return fmt.Sprintf("ratelimit:tenant:%s", tenantID)
}
