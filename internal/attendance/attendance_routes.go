package attendance

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	attendances := r.Group("/attendances")
	attendances.Use(authn)
	{
		attendances.POST("/clock-in", rbac.Authorize(resolver, "attendance.clock_in"), h.ClockIn)
		attendances.POST("/clock-out", rbac.Authorize(resolver, "attendance.clock_in"), h.ClockOut)
		attendances.GET("/today", h.Today)
		attendances.POST("/manual", h.CreateManual)
		attendances.PUT("/:id", h.Regularize)
		attendances.POST("/:id/decision", h.Decide)
		attendances.GET("/pending", h.PendingApprovals)
		attendances.GET("/user/:userId", h.ListForUser)
		attendances.GET("", h.ListForCompany)
	}
}
