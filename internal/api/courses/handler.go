package courses

import (
	"errors"
	"net/http"
	"strconv"

	"coursehaven/database"
	"coursehaven/internal/domain/catalog"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// course detail cache; nil (disabled) unless wired from main
var courseCache *Cache

func UseCache(c *Cache) {
	courseCache = c
}

func mustAdminID(c *gin.Context) (uint, bool) {
	adminID := c.GetUint("user_id")
	if adminID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"errors": "Unauthorized"})
		return 0, false
	}
	return adminID, true
}

func courseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("courseId"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Invalid course id"})
		return 0, false
	}
	return uint(id), true
}

type courseImage struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type createCourseRequest struct {
	Title       string      `json:"title" binding:"required"`
	Description string      `json:"description" binding:"required"`
	Price       float64     `json:"price" binding:"required"`
	Image       courseImage `json:"image" binding:"required"`
}

// POST /api/v1/course/create  (admin only)
func CreateCourse(c *gin.Context) {
	adminID, ok := mustAdminID(c)
	if !ok {
		return
	}

	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "All fields are required"})
		return
	}
	if req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Price must be positive"})
		return
	}

	course := catalog.Course{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		ImagePublicID: req.Image.PublicID,
		ImageURL:      req.Image.URL,
		CreatorID:     adminID,
	}

	if err := database.DB.Create(&course).Error; err != nil {
		log.Error().Err(err).Msg("course insert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "error creating the course"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Course created successfully",
		"course":  course,
	})
}

type updateCourseRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Price       *float64     `json:"price"`
	Image       *courseImage `json:"image"`
}

// PUT /api/v1/course/update/:courseId  (creator only)
func UpdateCourse(c *gin.Context) {
	adminID, ok := mustAdminID(c)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Invalid body"})
		return
	}
	if req.Price != nil && *req.Price <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Price must be positive"})
		return
	}

	var course catalog.Course
	if err := database.DB.First(&course, courseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "Course not found"})
		return
	}
	if course.CreatorID != adminID {
		c.JSON(http.StatusForbidden, gin.H{"errors": "Only the creator can update this course"})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		// price changes only affect future purchases; committed payments
		// keep their snapshot
		updates["price"] = *req.Price
	}
	if req.Image != nil {
		updates["image_public_id"] = req.Image.PublicID
		updates["image_url"] = req.Image.URL
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Nothing to update"})
		return
	}

	if err := database.DB.Model(&course).Updates(updates).Error; err != nil {
		log.Error().Err(err).Uint("course_id", courseID).Msg("course update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "error updating the course"})
		return
	}
	courseCache.Invalidate(c.Request.Context(), courseID)

	c.JSON(http.StatusOK, gin.H{
		"message": "Course updated successfully",
		"course":  course,
	})
}

// DELETE /api/v1/course/delete/:courseId  (creator only)
func DeleteCourse(c *gin.Context) {
	adminID, ok := mustAdminID(c)
	if !ok {
		return
	}
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	var course catalog.Course
	if err := database.DB.First(&course, courseID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"errors": "Course not found"})
		return
	}
	if course.CreatorID != adminID {
		c.JSON(http.StatusForbidden, gin.H{"errors": "Only the creator can delete this course"})
		return
	}

	if err := database.DB.Delete(&course).Error; err != nil {
		log.Error().Err(err).Uint("course_id", courseID).Msg("course delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "error deleting the course"})
		return
	}
	courseCache.Invalidate(c.Request.Context(), courseID)

	c.JSON(http.StatusOK, gin.H{"message": "Course deleted successfully"})
}

// GET /api/v1/course/courses
func GetCourses(c *gin.Context) {
	var list []catalog.Course
	if err := database.DB.Order("created_at DESC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "error loading courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": list})
}

// GET /api/v1/course/:courseId
func CourseDetails(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	if course, hit := courseCache.Get(c.Request.Context(), courseID); hit {
		c.JSON(http.StatusOK, gin.H{"course": course})
		return
	}

	var course catalog.Course
	if err := database.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"errors": "Course not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"errors": "error loading the course"})
		return
	}
	courseCache.Set(c.Request.Context(), &course)

	c.JSON(http.StatusOK, gin.H{"course": course})
}
