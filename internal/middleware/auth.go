package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/response"
	"github.com/d60-Lab/yatube/pkg/token"
)

// APIAuth 校验 Authorization: Bearer <jwt>
func APIAuth(tm *token.Manager, users service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		claims, err := tm.Parse(raw)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			return
		}
		u, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			response.Unauthorized(c, "unknown user")
			return
		}
		SetCurrentUser(c, u)
		c.Next()
	}
}
