package userControllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpdateUserInput struct {
	Name    *string         `json:"name"`
	Email   *string         `json:"email" binding:"omitempty,email"`
	Phone   *string         `json:"phone" binding:"omitempty,max=20"`
	Address *models.Address `json:"address"`
}

const recentOrders = 10

// GET /user
func GetUser(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		q := db.WithContext(c.Request.Context())

		user := models.User{ID: userID}
		if err := q.First(&user, "id = ?", userID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			apierror.Respond(c, log, err)
			return
		}

		var orders []models.Order
		if err := q.Where("user_id = ?", userID).
			Order("created_at DESC").
			Limit(recentOrders).
			Find(&orders).Error; err != nil {
			apierror.Respond(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"user": user, "orders": orders})
	}
}

// UpdateUser edits the caller's profile, creating it on first use. Orders
// keep the shipping details they were placed with.
// PUT /user
func UpdateUser(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")

		var input UpdateUserInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		updates := make(map[string]interface{})
		if input.Name != nil {
			updates["name"] = strings.TrimSpace(*input.Name)
		}
		if input.Email != nil {
			updates["email"] = strings.TrimSpace(*input.Email)
		}
		if input.Phone != nil {
			updates["phone"] = strings.TrimSpace(*input.Phone)
		}
		if input.Address != nil {
			updates["line1"] = input.Address.Line1
			updates["line2"] = input.Address.Line2
			updates["city"] = input.Address.City
			updates["state"] = input.Address.State
			updates["postal_code"] = input.Address.PostalCode
			updates["country"] = input.Address.Country
		}

		var user models.User
		err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.User{ID: userID}).Error; err != nil {
				return err
			}
			if len(updates) > 0 {
				if err := tx.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
					return err
				}
			}
			return tx.First(&user, "id = ?", userID).Error
		})
		if err != nil {
			apierror.Respond(c, log, err)
			return
		}

		log.Info("profile updated", zap.String("user_id", userID))
		c.JSON(http.StatusOK, user)
	}
}
