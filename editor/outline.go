package editor

import (
	"strings"

	"github.com/vnkhanh/scl-academy-backend/models"
)

// Outline là khung khoá học do AI gợi ý
type Outline struct {
	Title       string
	Description string
	Category    models.Category
	Difficulty  models.Difficulty
	Modules     []OutlineModule
}

type OutlineModule struct {
	Title    string
	Duration string
}

// CourseFromOutline dựng khoá học nháp: một chương, mỗi module gợi ý thành một trang
func CourseFromOutline(o Outline) models.Course {
	c := NewCourse()
	if t := strings.TrimSpace(o.Title); t != "" {
		c.Title = t
	}
	c.Description = strings.TrimSpace(o.Description)
	if o.Category.Valid() {
		c.Category = o.Category
	}
	if o.Difficulty.Valid() {
		c.Difficulty = o.Difficulty
	}
	var pages []models.Module
	for _, om := range o.Modules {
		title := strings.TrimSpace(om.Title)
		if title == "" {
			continue
		}
		duration := om.Duration
		if duration == "" {
			duration = "10 min"
		}
		pages = append(pages, models.Module{
			ID:       newID(),
			Title:    title,
			Type:     models.ModuleMixed,
			Duration: duration,
			Blocks: []models.ContentBlock{
				{ID: newID(), Type: models.BlockHeading, Content: title},
				{ID: newID(), Type: models.BlockText},
			},
		})
	}
	if len(pages) > 0 {
		c.Chapters[0].Modules = pages
	}
	return c
}
