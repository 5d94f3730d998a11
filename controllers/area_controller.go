package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AreaInput struct {
	Name string `json:"name" binding:"required"`
}

// GET /api/areas
func (ctl *Controller) GetAreas(c *gin.Context) {
	areas, err := ctl.Areas.ListAreas(c.Request.Context())
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": areas, "total": len(areas)})
}

// POST /api/admin/areas
func (ctl *Controller) CreateArea(c *gin.Context) {
	var input AreaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	area, err := ctl.Areas.CreateArea(c.Request.Context(), input.Name)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "area created", "data": area})
}

// PATCH /api/admin/areas/:id
func (ctl *Controller) RenameArea(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area id"})
		return
	}
	var input AreaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	area, err := ctl.Areas.RenameArea(c.Request.Context(), id, input.Name)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "area updated", "data": area})
}

// DELETE /api/admin/areas/:id: nội dung và user thuộc khu vực trở về Public
func (ctl *Controller) DeleteArea(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area id"})
		return
	}
	if err := ctl.Areas.DeleteArea(c.Request.Context(), id); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "area deleted"})
}
