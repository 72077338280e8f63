package auth

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const guestTTL = 24 * time.Hour

// POST /auth/guest
func CreateGuestUser(db *gorm.DB, secret string, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		suffix, err := randomHex(16)
		if err != nil {
			log.Error("guest id generation failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}
		guestID := "guest_" + suffix

		guest := models.GuestUser{
			ID:        guestID,
			ExpiresAt: time.Now().Add(guestTTL),
		}
		if err := db.WithContext(c.Request.Context()).Create(&guest).Error; err != nil {
			log.Error("guest insert failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create guest"})
			return
		}

		// Issue JWT for guest
		token, err := IssueToken(secret, guestID, RoleGuest, guestTTL)
		if err != nil {
			log.Error("guest token failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"guest_id":   guestID,
			"token":      token,
			"expires_at": guest.ExpiresAt,
		})
	}
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
