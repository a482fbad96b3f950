package users

import (
	"net/http"

	"coursehaven/database"
	"coursehaven/internal/domain/purchases"
	"coursehaven/internal/domain/users"

	"github.com/gin-gonic/gin"
)

// GET /api/v1/user/me
func GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": "Unauthorized"})
		return
	}

	var user users.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GET /api/v1/user/purchases
// The storefront renders the purchases view from this: each purchase with
// its course preloaded.
func GetPurchases(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": "Unauthorized"})
		return
	}

	var list []purchases.Purchase
	if err := database.DB.
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "Failed to load purchases"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"purchases": list})
}
