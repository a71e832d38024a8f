package rbac

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, resolver Resolver, authn gin.HandlerFunc) {
	roles := r.Group("/roles")
	roles.Use(authn)
	{
		roles.GET("", Authorize(resolver, "role.read"), handler.GetRoles)
		roles.GET("/:id", Authorize(resolver, "role.read"), handler.GetRole)
		roles.POST("", Authorize(resolver, "role.create"), handler.CreateRole)
		roles.PUT("/:id", Authorize(resolver, "role.update"), handler.UpdateRole)
	}

	perms := r.Group("/permissions")
	perms.Use(authn)
	{
		perms.GET("", Authorize(resolver, "role.read"), handler.GetPermissions)
	}
}
