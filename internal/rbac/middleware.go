package rbac

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrms/internal/shared/apperror"
	"hrms/internal/shared/response"
)

const principalContextKey = "principal"

// SetPrincipal stores the authenticated principal on the gin context. Done
// by the auth middleware after token verification.
func SetPrincipal(c *gin.Context, p Principal) {
	c.Set(principalContextKey, p)
	c.Set("user_id", p.UserID)
	c.Set("company_id", p.CompanyID)
}

// PrincipalFrom returns the principal stored by the auth middleware.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// Authorize guards a route behind a single permission key. System admins
// pass unconditionally; everyone else needs the key in their resolved set.
// Ownership and manager rules live in the services via Gate.Can, not here.
func Authorize(resolver Resolver, key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, apperror.CodeUnauthorized, "missing auth context", nil)
			c.Abort()
			return
		}

		capability, err := resolver.Resolve(c.Request.Context(), p)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, apperror.CodeInternalError, "permission resolution failed", nil)
			c.Abort()
			return
		}

		if capability.IsSystemAdmin || capability.Has(key) {
			c.Next()
			return
		}

		denial := apperror.MissingPermission(key)
		response.Error(c, denial.HTTPStatus, denial.Code, denial.Message, nil)
		c.Abort()
	}
}
