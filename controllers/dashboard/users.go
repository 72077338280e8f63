package dashboardControllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/controllers/apierror"
	"github.com/junaidrashid-git/storefront-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GET /admin/users
func GetAllUsers(db *gorm.DB, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
		if page < 1 {
			page = 1
		}

		q := db.WithContext(c.Request.Context()).Model(&models.User{})
		if s := strings.TrimSpace(c.Query("search")); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
		}

		var users []models.User
		if err := q.Order("created_at desc").
			Offset((page - 1) * PageSize).
			Limit(PageSize).
			Find(&users).Error; err != nil {
			apierror.Respond(c, log, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"users": users, "page": page, "page_size": PageSize})
	}
}
