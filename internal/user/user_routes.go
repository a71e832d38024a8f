package user

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	users := r.Group("/users")
	users.Use(authn)
	{
		users.GET("", rbac.Authorize(resolver, "user.read"), handler.GetAll)
		users.GET("/:id", rbac.Authorize(resolver, "user.read"), handler.GetByID)
		users.POST("", rbac.Authorize(resolver, "user.create"), handler.Create)
		users.PUT("/:id", rbac.Authorize(resolver, "user.update"), handler.Update)
		users.PUT("/:id/roles", rbac.Authorize(resolver, "role.update"), handler.SetRoles)
		users.PUT("/:id/managers", rbac.Authorize(resolver, "user.update"), handler.SetManagers)
		users.DELETE("/:id", rbac.Authorize(resolver, "user.delete"), handler.Deactivate)
	}
}
