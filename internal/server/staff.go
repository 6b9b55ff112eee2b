package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/staffhubhq/staffhub/internal/replicated"
	"github.com/staffhubhq/staffhub/internal/staff"
	"github.com/staffhubhq/staffhub/pkg/tenantctx"
)

// createResource runs the admission check, then the dual write. The check
// and the write are not atomic: two concurrent requests can both pass at
// limit-1 and both create.
func createResource[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT], kind staff.ResourceKind) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := s.gate.Check(ctx, tenantID, kind); err != nil {
		AbortWithError(c, err)
		return
	}

	var entity T
	if err := c.ShouldBindJSON(&entity); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	if err := store.Create(ctx, tenantID, PT(&entity)); err != nil {
		AbortWithError(c, err)
		return
	}

	s.gate.Invalidate(ctx, tenantID, kind)
	c.JSON(http.StatusCreated, &entity)
}

func listResources[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT], key string) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	items, err := store.ListTenant(ctx, tenantID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: items})
}

func getResource[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT]) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	id, err := parseResourceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entity, err := store.FindTenant(ctx, tenantID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func updateResource[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT]) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	id, err := parseResourceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	delete(patch, "id")
	delete(patch, "tenant_slug")
	delete(patch, "created_at")

	entity, err := store.Update(ctx, tenantID, id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func removeResource[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT], kind staff.ResourceKind) {
	ctx := c.Request.Context()
	tenantID, ok := tenantctx.TenantID(ctx)
	if !ok {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	id, err := parseResourceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entity, err := store.Remove(ctx, tenantID, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.gate.Invalidate(ctx, tenantID, kind)
	c.JSON(http.StatusOK, entity)
}

func lookupResource[T any, PT replicated.Entity[T]](s *Server, c *gin.Context, store *replicated.Store[T, PT]) {
	id, err := parseResourceID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entity, err := store.FindGlobal(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func parseResourceID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		return 0, ErrInvalidRequest
	}
	return id, nil
}

func (s *Server) createEmployee(c *gin.Context) {
	createResource(s, c, s.employees, staff.KindEmployee)
}
func (s *Server) listEmployees(c *gin.Context)  { listResources(s, c, s.employees, "employees") }
func (s *Server) getEmployee(c *gin.Context)    { getResource(s, c, s.employees) }
func (s *Server) updateEmployee(c *gin.Context) { updateResource(s, c, s.employees) }
func (s *Server) removeEmployee(c *gin.Context) {
	removeResource(s, c, s.employees, staff.KindEmployee)
}
func (s *Server) lookupEmployee(c *gin.Context) { lookupResource(s, c, s.employees) }

func (s *Server) createManager(c *gin.Context) {
	createResource(s, c, s.managers, staff.KindManager)
}
func (s *Server) listManagers(c *gin.Context)  { listResources(s, c, s.managers, "managers") }
func (s *Server) getManager(c *gin.Context)    { getResource(s, c, s.managers) }
func (s *Server) updateManager(c *gin.Context) { updateResource(s, c, s.managers) }
func (s *Server) removeManager(c *gin.Context) {
	removeResource(s, c, s.managers, staff.KindManager)
}
func (s *Server) lookupManager(c *gin.Context) { lookupResource(s, c, s.managers) }

func (s *Server) createServiceRequest(c *gin.Context) {
	createResource(s, c, s.serviceRequests, staff.KindServiceRequest)
}
func (s *Server) listServiceRequests(c *gin.Context) {
	listResources(s, c, s.serviceRequests, "service_requests")
}
func (s *Server) updateServiceRequest(c *gin.Context) { updateResource(s, c, s.serviceRequests) }
func (s *Server) removeServiceRequest(c *gin.Context) {
	removeResource(s, c, s.serviceRequests, staff.KindServiceRequest)
}
