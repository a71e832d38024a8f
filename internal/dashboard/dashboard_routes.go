package dashboard

import (
	"github.com/gin-gonic/gin"
)

// The overview is gated in the service on attendance.view, same as the
// company attendance listing it summarizes.
func RegisterRoutes(r *gin.RouterGroup, h *Handler, authn gin.HandlerFunc) {
	r.GET("/dashboard", authn, h.Overview)
}
