package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/admission"
	"github.com/staffhubhq/staffhub/internal/broker"
	"github.com/staffhubhq/staffhub/internal/cache"
	"github.com/staffhubhq/staffhub/internal/config"
	"github.com/staffhubhq/staffhub/internal/logger"
	"github.com/staffhubhq/staffhub/internal/metrics"
	"github.com/staffhubhq/staffhub/internal/migration"
	"github.com/staffhubhq/staffhub/internal/ratelimit"
	"github.com/staffhubhq/staffhub/internal/seed"
	"github.com/staffhubhq/staffhub/internal/server"
	"github.com/staffhubhq/staffhub/internal/sessionguard"
	"github.com/staffhubhq/staffhub/internal/staff"
	"github.com/staffhubhq/staffhub/internal/subscription"
	"github.com/staffhubhq/staffhub/internal/tenant"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"github.com/staffhubhq/staffhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		seed.Module,
		cache.Module,
		ratelimit.Module,
		tenantrouter.Module,
		broker.Module,

		// Functional domains
		tenant.Module,
		staff.Module,
		subscription.Module,
		admission.Module,
		sessionguard.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
