package accrual

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	runs := r.Group("/accruals")
	runs.Use(authn)
	{
		runs.POST("/monthly", rbac.Authorize(resolver, "leave.config"), h.RunMonthly)
		runs.POST("/yearly", rbac.Authorize(resolver, "leave.config"), h.RunYearly)
	}
}
