package auth

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hrms/internal/middleware"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler) {
	authGroup := r.Group("/auth")
	{
		// Brute-force protection on the credential endpoint.
		authGroup.POST("/login", middleware.RateLimitByIP(rate.Limit(5), 10), handler.Login)
	}
}
