package admission

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/staffhubhq/staffhub/internal/config"
	"github.com/staffhubhq/staffhub/internal/metrics"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func provideGate(cfg config.Config, db *gorm.DB, rdb *redis.Client, router *tenantrouter.Router, tenantRepo tenantdomain.Repository, planRepo subscriptiondomain.Repository, log *zap.Logger, met *metrics.Metrics) *Gate {
	var counts *CountCache
	if rdb != nil {
		counts = NewCountCache(rdb, time.Duration(cfg.AdmissionCacheTTL)*time.Second, log)
	}
	return NewGate(db, router, tenantRepo, planRepo, counts, log, met)
}

var Module = fx.Module("admission",
	fx.Provide(provideGate),
)
