package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/staffhubhq/staffhub/internal/admission"
	"github.com/staffhubhq/staffhub/internal/config"
	"github.com/staffhubhq/staffhub/internal/ratelimit"
	"github.com/staffhubhq/staffhub/internal/sessionguard"
	"github.com/staffhubhq/staffhub/internal/staff"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	"github.com/staffhubhq/staffhub/internal/subscription/replica"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Server carries the HTTP surface dependencies.
type Server struct {
	engine *gin.Engine
	log    *zap.Logger
	cfg    config.Config

	tenants  tenantdomain.Service
	plans    subscriptiondomain.Service
	gate     *admission.Gate
	guard    sessionguard.Guard
	replicas *replica.Applier
	limiter  *ratelimit.Limiter

	employees       *staff.EmployeeStore
	managers        *staff.ManagerStore
	serviceRequests *staff.ServiceRequestStore
}

type ServerParam struct {
	fx.In

	Engine *gin.Engine
	Log    *zap.Logger
	Cfg    config.Config

	Tenants  tenantdomain.Service
	Plans    subscriptiondomain.Service
	Gate     *admission.Gate
	Guard    sessionguard.Guard
	Replicas *replica.Applier
	Limiter  *ratelimit.Limiter

	Employees       *staff.EmployeeStore
	Managers        *staff.ManagerStore
	ServiceRequests *staff.ServiceRequestStore
}

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(ErrorHandlingMiddleware())
	return r
}

func NewServer(p ServerParam) *Server {
	s := &Server{
		engine:          p.Engine,
		log:             p.Log.Named("server"),
		cfg:             p.Cfg,
		tenants:         p.Tenants,
		plans:           p.Plans,
		gate:            p.Gate,
		guard:           p.Guard,
		replicas:        p.Replicas,
		limiter:         p.Limiter,
		employees:       p.Employees,
		managers:        p.Managers,
		serviceRequests: p.ServiceRequests,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")

	v1.POST("/tenants", s.createTenant)
	v1.GET("/tenants", s.listTenants)
	v1.GET("/tenants/:slug", s.getTenant)
	v1.POST("/tenants/:slug/block", s.blockTenant)
	v1.POST("/tenants/:slug/unblock", s.unblockTenant)
	v1.POST("/tenants/:slug/subscription", s.assignPlan)
	v1.GET("/tenants/:slug/subscription/replica", s.getReplica)

	v1.POST("/plans", s.createPlan)
	v1.GET("/plans", s.listPlans)
	v1.GET("/plans/:id", s.getPlan)
	v1.DELETE("/plans/:id", s.deactivatePlan)

	// Cross-tenant lookups target the global copy by identifier alone.
	v1.GET("/lookup/employees/:id", s.lookupEmployee)
	v1.GET("/lookup/managers/:id", s.lookupManager)

	scoped := v1.Group("", s.TenantContext(), ratelimit.Middleware(s.limiter))
	scoped.POST("/employees", s.createEmployee)
	scoped.GET("/employees", s.listEmployees)
	scoped.GET("/employees/:id", s.getEmployee)
	scoped.PATCH("/employees/:id", s.updateEmployee)
	scoped.DELETE("/employees/:id", s.removeEmployee)

	scoped.POST("/managers", s.createManager)
	scoped.GET("/managers", s.listManagers)
	scoped.GET("/managers/:id", s.getManager)
	scoped.PATCH("/managers/:id", s.updateManager)
	scoped.DELETE("/managers/:id", s.removeManager)

	scoped.POST("/service-requests", s.createServiceRequest)
	scoped.GET("/service-requests", s.listServiceRequests)
	scoped.PATCH("/service-requests/:id", s.updateServiceRequest)
	scoped.DELETE("/service-requests/:id", s.removeServiceRequest)
}

func run(lc fx.Lifecycle, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				log.Info("http server listening", zap.String("addr", s.cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(run),
)
