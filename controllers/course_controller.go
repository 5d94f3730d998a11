package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/catalog"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
)

// courseSummary là khoá học trong danh sách, không kèm cây nội dung
type courseSummary struct {
	ID          uuid.UUID         `json:"id"`
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    models.Category   `json:"category"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Duration    string            `json:"duration,omitempty"`
	AreaID      *uuid.UUID        `json:"area_id"`
	Status      string            `json:"status"`
	Chapters    int               `json:"chapter_count"`
}

func summarize(c models.Course) courseSummary {
	return courseSummary{
		ID:          c.ID,
		Slug:        c.Slug,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		Difficulty:  c.Difficulty,
		Duration:    c.Duration,
		AreaID:      c.AreaID,
		Status:      c.Status,
		Chapters:    len(c.Chapters),
	}
}

// GET /api/courses?search=&category=&page=&limit=
func (ctl *Controller) GetCourses(c *gin.Context) {
	viewer := middleware.ViewerFrom(c)
	courses, err := ctl.Store.ListCourses(c.Request.Context())
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	courses = catalog.FilterVisible(courses, viewer)

	search := strings.ToLower(strings.TrimSpace(c.Query("search")))
	category := models.Category(c.Query("category"))

	out := make([]courseSummary, 0, len(courses))
	for _, course := range courses {
		// learner chỉ thấy khoá học đã xuất bản
		if !viewer.IsAdmin() && course.Status != models.CoursePublished {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(course.Title), search) {
			continue
		}
		if category != "" && course.Category != category {
			continue
		}
		out = append(out, summarize(course))
	}
	c.JSON(http.StatusOK, paginate(out, readPage(c)))
}

// GET /api/courses/:id: khoá học ngoài tầm nhìn trả 404 như không tồn tại
func (ctl *Controller) GetCourseDetail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	viewer := middleware.ViewerFrom(c)
	course, err := ctl.Store.GetCourse(c.Request.Context(), id)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	if !catalog.Visible(course, viewer) || (!viewer.IsAdmin() && course.Status != models.CoursePublished) {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": course})
}

// DELETE /api/admin/courses/:id
func (ctl *Controller) DeleteCourse(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	if err := ctl.Store.DeleteCourse(c.Request.Context(), id); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "course deleted"})
}
