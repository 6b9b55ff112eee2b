package admission

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/staffhubhq/staffhub/internal/staff"
	"go.uber.org/zap"
)

// CountCache keeps per-tenant resource counts in redis with a short TTL so
// hot admission checks skip the tenant-database count query. A miss or a
// redis error falls through to the database.
type CountCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewCountCache(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *CountCache {
	return &CountCache{
		rdb: rdb,
		ttl: ttl,
		log: log.Named("admission.cache"),
	}
}

func (c *CountCache) Get(ctx context.Context, tenantID string, kind staff.ResourceKind) (int64, bool) {
	val, err := c.rdb.Get(ctx, countKey(tenantID, kind)).Result()
	if err != nil {
		return 0, false
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return count, true
}

func (c *CountCache) Set(ctx context.Context, tenantID string, kind staff.ResourceKind, count int64) {
	if err := c.rdb.Set(ctx, countKey(tenantID, kind), count, c.ttl).Err(); err != nil {
		c.log.Warn("count cache set failed", zap.Error(err))
	}
}

// Invalidate drops the cached count after a mutation.
func (c *CountCache) Invalidate(ctx context.Context, tenantID string, kind staff.ResourceKind) {
	if err := c.rdb.Del(ctx, countKey(tenantID, kind)).Err(); err != nil {
		c.log.Warn("count cache invalidate failed", zap.Error(err))
	}
}

func countKey(tenantID string, kind staff.ResourceKind) string {
	return fmt.Sprintf("admission:count:%s:%s", tenantID, kind)
}
