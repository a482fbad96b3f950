package admin

import (
	"net/http"
	"time"

	"coursehaven/database"
	"coursehaven/internal/domain/billing"
	"coursehaven/internal/domain/users"

	"github.com/gin-gonic/gin"
)

type AdminUser struct {
	ID        uint   `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type AdminPayment struct {
	ID            uint    `json:"id"`
	UserID        uint    `json:"user_id"`
	CourseTitle   *string `json:"course_title,omitempty"`
	Amount        float64 `json:"amount"`
	CardLastFour  string  `json:"card_last_four"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	CreatedAt     string  `json:"created_at"`
}

type AdminStats struct {
	TotalUsers         int            `json:"total_users"`
	TotalRevenue       float64        `json:"total_revenue"`
	RecentRevenue      float64        `json:"recent_revenue"`
	PurchasesPerCourse map[string]int `json:"purchases_per_course"`
}

func AdminDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the admin dashboard 👑",
	})
}

// GET /api/v1/admin/users
func ListAllUsers(c *gin.Context) {
	var all []users.User
	if err := database.DB.Find(&all).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "Failed to load users"})
		return
	}

	var out []AdminUser
	for _, u := range all {
		out = append(out, AdminUser{
			ID:        u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Email:     u.Email,
			Role:      u.Role,
			CreatedAt: u.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, out)
}

// GET /api/v1/admin/payments
func ListAllPayments(c *gin.Context) {
	type row struct {
		billing.Payment
		CourseTitle *string
	}

	var rows []row
	err := database.DB.
		Table("payments").
		Select("payments.*, courses.title AS course_title").
		Joins("LEFT JOIN courses ON courses.id = payments.course_id").
		Order("payments.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "Failed to load payments"})
		return
	}

	var out []AdminPayment
	for _, r := range rows {
		out = append(out, AdminPayment{
			ID:            r.ID,
			UserID:        r.UserID,
			CourseTitle:   r.CourseTitle,
			Amount:        r.Amount,
			CardLastFour:  r.CardLastFour,
			TransactionID: r.TransactionID,
			Status:        r.Status,
			CreatedAt:     r.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	c.JSON(http.StatusOK, out)
}

// GET /api/v1/admin/stats
func GetAdminStats(c *gin.Context) {
	var stats AdminStats

	var totalUsers int64
	var totalRevenue float64
	var recentRevenue float64

	database.DB.Model(&users.User{}).Count(&totalUsers)
	database.DB.Model(&billing.Payment{}).
		Where("status = ?", billing.StatusSuccess).
		Select("COALESCE(SUM(amount), 0)").Scan(&totalRevenue)

	thirtyDaysAgo := time.Now().AddDate(0, 0, -30)
	database.DB.Model(&billing.Payment{}).
		Where("status = ? AND created_at >= ?", billing.StatusSuccess, thirtyDaysAgo).
		Select("COALESCE(SUM(amount), 0)").Scan(&recentRevenue)

	stats.TotalUsers = int(totalUsers)
	stats.TotalRevenue = totalRevenue
	stats.RecentRevenue = recentRevenue

	type CourseCount struct {
		Title *string
		Count int
	}
	var counts []CourseCount

	database.DB.
		Table("purchases").
		Select("courses.title, COUNT(purchases.id) as count").
		Joins("LEFT JOIN courses ON purchases.course_id = courses.id").
		Group("courses.title").
		Scan(&counts)

	stats.PurchasesPerCourse = map[string]int{}
	for _, cc := range counts {
		title := "Deleted Course"
		if cc.Title != nil {
			title = *cc.Title
		}
		stats.PurchasesPerCourse[title] = cc.Count
	}

	c.JSON(http.StatusOK, stats)
}
