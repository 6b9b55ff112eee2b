package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
)

func (s *Server) createTenant(c *gin.Context) {
	var req tenantdomain.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	tenant, err := s.tenants.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

func (s *Server) listTenants(c *gin.Context) {
	tenants, err := s.tenants.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tenants": tenants})
}

func (s *Server) getTenant(c *gin.Context) {
	tenant, err := s.tenants.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}

func (s *Server) blockTenant(c *gin.Context) {
	if err := s.tenants.Block(c.Request.Context(), c.Param("slug")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) unblockTenant(c *gin.Context) {
	if err := s.tenants.Unblock(c.Request.Context(), c.Param("slug")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) assignPlan(c *gin.Context) {
	var body struct {
		PlanID string `json:"plan_id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	plan, err := s.plans.Assign(c.Request.Context(), subscriptiondomain.AssignPlanRequest{
		TenantSlug: c.Param("slug"),
		PlanID:     body.PlanID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) getReplica(c *gin.Context) {
	current, err := s.replicas.Current(c.Request.Context(), c.Param("slug"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if current == nil {
		AbortWithError(c, tenantdomain.ErrTenantNotFound)
		return
	}
	c.JSON(http.StatusOK, current)
}
