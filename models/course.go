package models

import (
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategorySustainability Category = "Sustainability"
	CategoryLogistics      Category = "Logistics"
	CategorySafety         Category = "Safety"
	CategoryCompliance     Category = "Compliance"
	CategoryInnovation     Category = "Innovation"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySustainability, CategoryLogistics, CategorySafety, CategoryCompliance, CategoryInnovation:
		return true
	}
	return false
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

type ModuleType string

const (
	ModuleMixed ModuleType = "mixed"
	ModuleQuiz  ModuleType = "quiz"
)

func (t ModuleType) Valid() bool {
	return t == ModuleMixed || t == ModuleQuiz
}

const (
	CourseDraft     = "draft"
	CoursePublished = "published"
)

// Course là một khoá học. Cây chương/trang/khối được lưu nguyên khối.
type Course struct {
	ID          uuid.UUID  `json:"id"`
	Slug        string     `json:"slug"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	Duration    string     `json:"duration,omitempty"`
	AreaID      *uuid.UUID `json:"area_id"` // nil: Public
	Status      string     `json:"status"`
	AuthorID    *uuid.UUID `json:"author_id,omitempty"`
	Chapters    []Chapter  `json:"chapters"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Chapter struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	SourceContent string   `json:"source_content,omitempty"` // tài liệu nguồn làm ngữ cảnh cho AI
	Modules       []Module `json:"modules"`
}

// Module là một "trang" trong chương
type Module struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Type      ModuleType     `json:"type"`
	Duration  string         `json:"duration"`
	Completed bool           `json:"completed"`
	Blocks    []ContentBlock `json:"blocks"`
}

// Clone sao chép sâu, không chia sẻ slice với bản gốc
func (c Course) Clone() Course {
	out := c
	if c.AreaID != nil {
		id := *c.AreaID
		out.AreaID = &id
	}
	out.Chapters = make([]Chapter, len(c.Chapters))
	for i, ch := range c.Chapters {
		out.Chapters[i] = ch.Clone()
	}
	return out
}

func (ch Chapter) Clone() Chapter {
	out := ch
	out.Modules = make([]Module, len(ch.Modules))
	for i, m := range ch.Modules {
		out.Modules[i] = m.Clone()
	}
	return out
}

func (m Module) Clone() Module {
	out := m
	out.Blocks = make([]ContentBlock, len(m.Blocks))
	for i, b := range m.Blocks {
		out.Blocks[i] = b.Clone()
	}
	return out
}
