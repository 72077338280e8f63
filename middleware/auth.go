package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// ValidateToken requires a valid bearer token and stores user_id and role on the context.
func ValidateToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is missing"})
			return
		}

		claims, err := auth.ParseToken(secret, tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireUser rejects guest tokens.
func RequireUser(c *gin.Context) {
	if c.GetString(ContextRole) == auth.RoleGuest {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Please sign in to continue"})
		return
	}
	c.Next()
}
