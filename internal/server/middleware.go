package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"github.com/staffhubhq/staffhub/pkg/tenantctx"
)

const (
	HeaderTenant    = "X-Tenant-ID"
	HeaderRequestID = "X-Request-ID"
)

// RequestID propagates or generates a request identifier.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Header(HeaderRequestID, rid)
		c.Next()
	}
}

// TenantContext reads the tenant identifier header into the request context.
// Routes under it require the header; resolution itself never validates
// tenant existence.
func (s *Server) TenantContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := strings.TrimSpace(c.GetHeader(HeaderTenant))
		if tenantID == "" {
			AbortWithError(c, ErrInvalidRequest)
			return
		}

		blocked, err := s.guard.IsBlocked(c.Request.Context(), tenantID)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		if blocked {
			AbortWithError(c, tenantdomain.ErrTenantBlocked)
			return
		}

		c.Request = c.Request.WithContext(
			tenantctx.WithTenantID(c.Request.Context(), tenantID),
		)
		c.Next()
	}
}
