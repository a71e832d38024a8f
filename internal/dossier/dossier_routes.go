package dossier

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, h *Handler, authn gin.HandlerFunc) {
	// Authorization is per-target here, so the gate runs in the service
	// rather than as a route middleware.
	profiles := r.Group("/profiles")
	profiles.Use(authn)
	{
		profiles.GET("/me", h.Get)
		profiles.PUT("/me/sections/:section", h.UpdateSection)
		profiles.POST("/me/submit", h.Submit)
		profiles.POST("/me/documents", h.AddDocument)
		profiles.DELETE("/me/documents/:docId", h.DeleteDocument)

		profiles.GET("/pending", h.PendingApprovals)
		profiles.POST("/:id/decision", h.Decide)

		profiles.GET("/user/:userId", h.Get)
		profiles.PUT("/user/:userId/sections/:section", h.UpdateSection)
		profiles.POST("/user/:userId/submit", h.Submit)
		profiles.POST("/user/:userId/documents", h.AddDocument)
		profiles.DELETE("/user/:userId/documents/:docId", h.DeleteDocument)
	}
}
