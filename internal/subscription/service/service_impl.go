package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/staffhubhq/staffhub/internal/broker"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID      *snowflake.Node
	repo       subscriptiondomain.Repository
	tenantRepo tenantdomain.Repository
	publisher  broker.Publisher
}

type ServiceParam struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Repo       subscriptiondomain.Repository
	TenantRepo tenantdomain.Repository
	Publisher  broker.Publisher
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("subscription.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		tenantRepo: p.TenantRepo,
		publisher:  p.Publisher,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreatePlanRequest) (subscriptiondomain.Plan, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return subscriptiondomain.Plan{}, subscriptiondomain.ErrInvalidPlan
	}
	switch req.PlanType {
	case subscriptiondomain.PlanTypeTrial, subscriptiondomain.PlanTypeBasic, subscriptiondomain.PlanTypePremium:
	default:
		return subscriptiondomain.Plan{}, subscriptiondomain.ErrInvalidPlan
	}

	plan := subscriptiondomain.Plan{
		ID:                  s.genID.Generate(),
		Name:                name,
		PlanType:            req.PlanType,
		PriceCents:          req.PriceCents,
		DurationDays:        req.DurationDays,
		Features:            req.Features,
		EmployeeLimit:       req.EmployeeLimit,
		ManagerLimit:        req.ManagerLimit,
		ServiceRequestLimit: req.ServiceRequestLimit,
		Active:              true,
	}
	if plan.DurationDays <= 0 {
		plan.DurationDays = 30
	}

	if err := s.repo.Insert(ctx, s.db, &plan); err != nil {
		return subscriptiondomain.Plan{}, err
	}
	return plan, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]subscriptiondomain.Plan, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func (s *Service) GetByID(ctx context.Context, id string) (subscriptiondomain.Plan, error) {
	planID, err := s.parseID(id)
	if err != nil {
		return subscriptiondomain.Plan{}, err
	}
	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return subscriptiondomain.Plan{}, err
	}
	if plan == nil {
		return subscriptiondomain.Plan{}, subscriptiondomain.ErrPlanNotFound
	}
	return *plan, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	planID, err := s.parseID(id)
	if err != nil {
		return err
	}
	affected, err := s.repo.SetActive(ctx, s.db, planID, false)
	if err != nil {
		return err
	}
	if affected == 0 {
		return subscriptiondomain.ErrPlanNotFound
	}
	return nil
}

// Assign stores the plan reference on the tenant row, then fans the change
// out. The publish is fire-and-forget: a broker outage is logged and counted
// but never fails the assignment, so the local write can succeed while
// dependent services miss the update.
func (s *Service) Assign(ctx context.Context, req subscriptiondomain.AssignPlanRequest) (subscriptiondomain.Plan, error) {
	if strings.TrimSpace(req.TenantSlug) == "" {
		return subscriptiondomain.Plan{}, subscriptiondomain.ErrInvalidRequest
	}

	plan, err := s.GetByID(ctx, req.PlanID)
	if err != nil {
		return subscriptiondomain.Plan{}, err
	}
	if !plan.Active {
		return subscriptiondomain.Plan{}, subscriptiondomain.ErrInactivePlan
	}

	affected, err := s.tenantRepo.SetSubscription(ctx, s.db, req.TenantSlug, plan.ID)
	if err != nil {
		return subscriptiondomain.Plan{}, err
	}
	if affected == 0 {
		return subscriptiondomain.Plan{}, tenantdomain.ErrTenantNotFound
	}

	event := broker.NewSubscriptionEvent(broker.SubscriptionData{
		TenantSlug:          req.TenantSlug,
		PlanID:              plan.ID.String(),
		PlanName:            plan.Name,
		PlanType:            string(plan.PlanType),
		EmployeeLimit:       plan.EmployeeLimit,
		ManagerLimit:        plan.ManagerLimit,
		ServiceRequestLimit: plan.ServiceRequestLimit,
		Features:            plan.Features,
	})
	if err := s.publisher.Publish(ctx, event); err != nil {
		if errors.Is(err, broker.ErrBrokerUnavailable) {
			s.log.Error("subscription change not fanned out",
				zap.String("tenant", req.TenantSlug),
				zap.String("plan", plan.ID.String()),
				zap.Error(err),
			)
		} else {
			s.log.Error("subscription event publish failed", zap.Error(err))
		}
	}

	s.log.Info("plan assigned",
		zap.String("tenant", req.TenantSlug),
		zap.String("plan", plan.ID.String()),
		zap.String("plan_type", string(plan.PlanType)),
	)
	return plan, nil
}

func (s *Service) parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, subscriptiondomain.ErrInvalidPlanID
	}
	return id, nil
}
