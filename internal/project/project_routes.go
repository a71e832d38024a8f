package project

import (
	"github.com/gin-gonic/gin"

	"hrms/internal/rbac"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, resolver rbac.Resolver, authn gin.HandlerFunc) {
	projects := r.Group("/projects")
	projects.Use(authn)
	{
		projects.GET("", rbac.Authorize(resolver, "project.read"), h.ListProjects)
		projects.POST("", rbac.Authorize(resolver, "project.create"), h.CreateProject)
		projects.PUT("/:id", rbac.Authorize(resolver, "project.update"), h.UpdateProject)
		projects.GET("/:id/tasks", rbac.Authorize(resolver, "task.read"), h.ListTasks)
	}

	tasks := r.Group("/tasks")
	tasks.Use(authn)
	{
		tasks.POST("", rbac.Authorize(resolver, "task.create"), h.CreateTask)
		tasks.PUT("/:id", rbac.Authorize(resolver, "task.update"), h.UpdateTask)
	}
}
