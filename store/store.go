package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store là kho nội dung: khu vực, khoá học, podcast và người dùng.
// MemoryStore giữ mọi thứ trong bộ nhớ; GormStore lưu xuống PostgreSQL.
type Store interface {
	InsertArea(ctx context.Context, area models.Area) (models.Area, error)
	ListAreas(ctx context.Context) ([]models.Area, error)
	GetArea(ctx context.Context, id uuid.UUID) (models.Area, error)
	UpdateArea(ctx context.Context, area models.Area) (models.Area, error)
	// DeleteArea gỡ tham chiếu khỏi khoá học, podcast và user (trở về Public) rồi xoá khu vực
	DeleteArea(ctx context.Context, id uuid.UUID) error

	SaveCourse(ctx context.Context, course models.Course) (models.Course, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id uuid.UUID) (models.Course, error)
	DeleteCourse(ctx context.Context, id uuid.UUID) error

	PublishPodcast(ctx context.Context, podcast models.Podcast) (models.Podcast, error)
	// ListPodcasts trả về podcast mới nhất trước
	ListPodcasts(ctx context.Context) ([]models.Podcast, error)

	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUserArea(ctx context.Context, id uuid.UUID, areaID *uuid.UUID) (models.User, error)

	Ping(ctx context.Context) error
}
