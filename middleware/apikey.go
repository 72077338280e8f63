package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/auth"
)

// RequireStaff admits a staff bearer token or a matching X-API-KEY header.
func RequireStaff(secret, apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.GetHeader("X-API-KEY"); apiKey != "" && key != "" &&
			subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1 {
			c.Set(ContextUserID, "api-key")
			c.Set(ContextRole, auth.RoleStaff)
			c.Next()
			return
		}

		claims, err := auth.ParseToken(secret, c.GetHeader("Authorization"))
		if err != nil || !claims.IsStaff() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or missing API key"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}
