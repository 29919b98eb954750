package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/pos-terminal-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-terminal-api/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	ContextOperatorID          = "operator_id"
	ContextOperatorName        = "operator_name"
	ContextOperatorRoles       = "operator_roles"
	ContextOperatorPermissions = "operator_permissions"
	ContextAccessToken         = "access_token"
)

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]

		claims, err := jwtManager.ValidateAccessToken(tokenString)
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextOperatorID, claims.OperatorID)
		c.Set(ContextOperatorName, claims.Name)
		c.Set(ContextOperatorRoles, claims.Roles)
		c.Set(ContextOperatorPermissions, claims.Permissions)
		// forwarded to the remote sales service
		c.Set(ContextAccessToken, tokenString)

		c.Next()
	}
}

// RequirePermission creates a middleware that requires a specific permission
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		permissions, exists := c.Get(ContextOperatorPermissions)
		if !exists {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		operatorPermissions, ok := permissions.([]string)
		if !ok {
			response.Forbidden(c, "Access denied")
			c.Abort()
			return
		}

		hasPermission := false
		for _, p := range operatorPermissions {
			if p == permission {
				hasPermission = true
				break
			}
		}

		if !hasPermission {
			response.Forbidden(c, "You do not have permission to perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
