package timesheet

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	timesheets := r.Group("/timesheets")
	timesheets.Use(authn)
	{
		timesheets.GET("/current", h.GetCurrent)
		timesheets.POST("/entries", h.LogWork)
		timesheets.PUT("/entries/:id", h.UpdateEntry)
		timesheets.DELETE("/entries/:id", h.DeleteEntry)
		timesheets.POST("/submit", rbac.Authorize(resolver, "timesheet.submit"), h.Submit)
		timesheets.POST("/:id/decision", h.Decide)
		timesheets.GET("/pending", h.PendingApprovals)
	}
}
