package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/machinetrade/pos-api/internal/presentation/http/dto/response"
	"github.com/machinetrade/pos-api/pkg/utils"
)

// Context keys set by AuthMiddleware
const (
	UserIDKey   = "user_id"
	IdentityKey = "user_identity"
)

// AuthMiddleware validates externally issued bearer tokens
func AuthMiddleware(jwtManager *utils.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(IdentityKey, claims.Identity())
		c.Next()
	}
}

// GetUserID returns the authenticated subject, empty when unauthenticated
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}

// GetIdentity returns the display identity of the authenticated caller
func GetIdentity(c *gin.Context) string {
	return c.GetString(IdentityKey)
}
