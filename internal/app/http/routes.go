package routes

import (
	adminapi "coursehaven/internal/api/admin"
	authapi "coursehaven/internal/api/auth"
	"coursehaven/internal/api/courses"
	"coursehaven/internal/api/payments"
	usersapi "coursehaven/internal/api/users"
	"coursehaven/internal/app/http/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func RegisterRoutes(r *gin.Engine, ph *payments.Handler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// ✅ input sanitization on public signup/login only
	public := v1.Group("/")
	public.Use(middleware.SanitizeAndCleanInputMiddleware())

	public.POST("/user/signup", authapi.Signup)
	public.POST("/user/login", authapi.Login)
	public.POST("/admin/signup", authapi.AdminSignup)
	public.POST("/admin/login", authapi.AdminLogin)

	v1.GET("/user/auth/google", authapi.GoogleStart)
	v1.GET("/user/auth/google/callback", authapi.GoogleCallback)
	v1.GET("/admin/logout", authapi.Logout)

	// catalog is public reading
	v1.GET("/course/courses", courses.GetCourses)
	v1.GET("/course/:courseId", courses.CourseDetails)

	// Authenticated users
	user := v1.Group("/")
	user.Use(middleware.AuthMiddleware())
	user.GET("/user/me", usersapi.GetCurrentUser)
	user.GET("/user/purchases", usersapi.GetPurchases)
	user.POST("/user/change-password", authapi.ChangePassword)
	user.POST("/payment/process", ph.ProcessPayment)

	// Admin routes
	admin := v1.Group("/")
	admin.Use(middleware.AuthMiddleware(), middleware.RequireRole("admin"))
	admin.GET("/admin/dashboard", adminapi.AdminDashboard)
	admin.GET("/admin/users", adminapi.ListAllUsers)
	admin.GET("/admin/payments", adminapi.ListAllPayments)
	admin.GET("/admin/stats", adminapi.GetAdminStats)
	admin.POST("/course/create", courses.CreateCourse)
	admin.PUT("/course/update/:courseId", courses.UpdateCourse)
	admin.DELETE("/course/delete/:courseId", courses.DeleteCourse)
}
