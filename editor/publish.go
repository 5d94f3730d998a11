package editor

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"

	"github.com/vnkhanh/scl-academy-backend/models"
)

// CourseSaver là kho nội dung nhận khoá học khi xuất bản
type CourseSaver interface {
	SaveCourse(ctx context.Context, course models.Course) (models.Course, error)
}

// Publish giao bản chụp khoá học cho kho nội dung rồi đóng phiên. Không kiểm tra nội dung.
func Publish(ctx context.Context, sessions *Sessions, saver CourseSaver, id string) (models.Course, error) {
	s, err := sessions.Get(id)
	if err != nil {
		return models.Course{}, err
	}
	var course models.Course
	s.Read(func(d *Document) {
		course = d.Snapshot()
	})

	now := time.Now()
	course.Status = models.CoursePublished
	course.PublishedAt = &now
	if course.Slug == "" {
		course.Slug = slug.Make(course.Title)
	}
	if course.AuthorID == nil {
		owner := s.OwnerID
		course.AuthorID = &owner
	}

	saved, err := saver.SaveCourse(ctx, course)
	if err != nil {
		return models.Course{}, fmt.Errorf("save course: %w", err)
	}
	sessions.Close(id)
	return saved, nil
}
