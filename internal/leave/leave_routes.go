package leave

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	leaves := r.Group("/leaves")
	leaves.Use(authn)
	{
		leaves.PUT("/configs", rbac.Authorize(resolver, "leave.config"), h.UpsertConfig)
		leaves.GET("/configs", h.ListConfigs)

		leaves.POST("/holidays", rbac.Authorize(resolver, "leave.config"), h.AddHoliday)
		leaves.GET("/holidays", h.ListHolidays)
		leaves.DELETE("/holidays/:id", rbac.Authorize(resolver, "leave.config"), h.DeleteHoliday)

		leaves.POST("", rbac.Authorize(resolver, "leave.apply"), h.Apply)
		leaves.GET("/mine", h.MyLeaves)
		leaves.GET("/balances", h.MyBalances)
		leaves.GET("/pending", h.ManagerApprovals)
		leaves.POST("/:id/decision", h.Decide)
		leaves.POST("/:id/cancel", h.Cancel)
	}
}
