package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/staffhubhq/staffhub/internal/admission"
	"github.com/staffhubhq/staffhub/internal/replicated"
	subscriptiondomain "github.com/staffhubhq/staffhub/internal/subscription/domain"
	tenantdomain "github.com/staffhubhq/staffhub/internal/tenant/domain"
	"github.com/staffhubhq/staffhub/internal/tenantrouter"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware maps domain errors collected on the gin context to
// HTTP responses.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var partial *replicated.PartialReplicationError
	if errors.As(err, &partial) {
		return http.StatusInternalServerError, errorPayload{
			Type:    "partial_replication",
			Message: partial.Error(),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, tenantdomain.ErrTenantBlocked):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, admission.ErrSubscriptionLimitExceeded):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "subscription limit exceeded",
		}
	case errors.Is(err, tenantdomain.ErrTenantNotFound),
		errors.Is(err, subscriptiondomain.ErrPlanNotFound),
		errors.Is(err, replicated.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, subscriptiondomain.ErrInvalidPlan),
		errors.Is(err, subscriptiondomain.ErrInvalidPlanID),
		errors.Is(err, subscriptiondomain.ErrInvalidRequest),
		errors.Is(err, tenantrouter.ErrEmptyTenantID):
		return http.StatusBadRequest, errorPayload{
			Type:    "invalid_request",
			Message: "invalid request",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}
