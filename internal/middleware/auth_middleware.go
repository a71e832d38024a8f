package middleware

import (
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	autherrors "hrms/internal/auth/errors"
	"hrms/internal/rbac"
	"hrms/internal/shared/apperror"
	"hrms/internal/shared/contextutil"
	"hrms/internal/shared/response"
	"hrms/internal/user"
)

// AuthMiddleware verifies the bearer token, reloads the principal with roles
// and permissions, and rejects stale sessions whose token_version no longer
// matches the user row.
func AuthMiddleware(users user.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}
		if tokenString == "" {
			abortUnauthorized(c, autherrors.ErrInvalidToken)
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})
		if err != nil || !token.Valid {
			errObj := autherrors.ErrInvalidToken
			if err != nil && strings.Contains(err.Error(), "expired") {
				errObj = autherrors.ErrTokenExpired
			}
			abortUnauthorized(c, errObj)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			abortUnauthorized(c, autherrors.ErrInvalidToken)
			return
		}

		userID, _ := claims["user_id"].(string)
		companyID, _ := claims["company_id"].(string)
		tokenVersion, versionOK := claims["token_version"].(float64)
		if userID == "" || companyID == "" || !versionOK {
			abortUnauthorized(c, autherrors.ErrInvalidToken)
			return
		}

		u, err := users.FindByID(c.Request.Context(), companyID, userID)
		if err != nil {
			abortUnauthorized(c, autherrors.ErrInvalidToken)
			return
		}
		if !u.IsActive {
			abortUnauthorized(c, autherrors.ErrInactiveUser)
			return
		}
		// A bumped token_version means roles changed after this token was
		// issued; force a fresh login to pick up the new permission set.
		if int(tokenVersion) != u.TokenVersion {
			abortUnauthorized(c, autherrors.ErrStaleToken)
			return
		}

		rbac.SetPrincipal(c, user.AsPrincipal(u))
		c.Request = c.Request.WithContext(
			contextutil.WithUserID(c.Request.Context(), userID),
		)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, nil)
	c.Abort()
}
