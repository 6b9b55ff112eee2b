package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID *snowflake.Node
	repo  tenantdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  tenantdomain.Repository
}

func NewService(p ServiceParam) tenantdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tenant.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

// Create registers a tenant in the global store. The tenant-scoped database
// is not opened here; the router opens it lazily on first resolution.
func (s *Service) Create(ctx context.Context, req tenantdomain.CreateTenantRequest) (tenantdomain.Tenant, error) {
	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		return tenantdomain.Tenant{}, tenantdomain.ErrInvalidTenant
	}

	tenant := tenantdomain.Tenant{
		ID:   s.genID.Generate(),
		Slug: slug,
		Name: strings.TrimSpace(req.Name),
	}
	if err := s.repo.Insert(ctx, s.db, &tenant); err != nil {
		return tenantdomain.Tenant{}, err
	}

	s.log.Info("tenant registered", zap.String("slug", tenant.Slug))
	return tenant, nil
}

func (s *Service) Get(ctx context.Context, slug string) (tenantdomain.Tenant, error) {
	tenant, err := s.repo.FindBySlug(ctx, s.db, slug)
	if err != nil {
		return tenantdomain.Tenant{}, err
	}
	if tenant == nil {
		return tenantdomain.Tenant{}, tenantdomain.ErrTenantNotFound
	}
	return *tenant, nil
}

func (s *Service) List(ctx context.Context) ([]tenantdomain.Tenant, error) {
	return s.repo.List(ctx, s.db)
}

func (s *Service) Block(ctx context.Context, slug string) error {
	return s.setBlocked(ctx, slug, true)
}

func (s *Service) Unblock(ctx context.Context, slug string) error {
	return s.setBlocked(ctx, slug, false)
}

func (s *Service) IsBlocked(ctx context.Context, slug string) (bool, error) {
	tenant, err := s.Get(ctx, slug)
	if err != nil {
		return false, err
	}
	return tenant.Blocked, nil
}

func (s *Service) setBlocked(ctx context.Context, slug string, blocked bool) error {
	affected, err := s.repo.SetBlocked(ctx, s.db, slug, blocked)
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenantdomain.ErrTenantNotFound
	}
	s.log.Info("tenant blocked flag updated",
		zap.String("slug", slug),
		zap.Bool("blocked", blocked),
	)
	return nil
}
