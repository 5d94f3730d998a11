package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
)

// courseRecord là dòng trong bảng courses; cây chương được lưu dạng JSONB
type courseRecord struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Slug        string     `gorm:"size:255;index"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	Category    string     `gorm:"size:30"`
	Difficulty  string     `gorm:"size:30"`
	Duration    string     `gorm:"size:30"`
	AreaID      *uuid.UUID `gorm:"type:uuid;index"`
	Status      string     `gorm:"type:VARCHAR(20);default:'draft'"` // draft | published
	AuthorID    *uuid.UUID `gorm:"type:uuid"`
	Chapters    datatypes.JSONType[[]models.Chapter]
	PublishedAt *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (courseRecord) TableName() string { return "courses" }

func toRecord(c models.Course) courseRecord {
	return courseRecord{
		ID:          c.ID,
		Slug:        c.Slug,
		Title:       c.Title,
		Description: c.Description,
		Category:    string(c.Category),
		Difficulty:  string(c.Difficulty),
		Duration:    c.Duration,
		AreaID:      c.AreaID,
		Status:      c.Status,
		AuthorID:    c.AuthorID,
		Chapters:    datatypes.NewJSONType(c.Chapters),
		PublishedAt: c.PublishedAt,
		CreatedAt:   c.CreatedAt,
	}
}

func (r courseRecord) toCourse() models.Course {
	chapters := r.Chapters.Data()
	if chapters == nil {
		chapters = []models.Chapter{}
	}
	return models.Course{
		ID:          r.ID,
		Slug:        r.Slug,
		Title:       r.Title,
		Description: r.Description,
		Category:    models.Category(r.Category),
		Difficulty:  models.Difficulty(r.Difficulty),
		Duration:    r.Duration,
		AreaID:      r.AreaID,
		Status:      r.Status,
		AuthorID:    r.AuthorID,
		Chapters:    chapters,
		PublishedAt: r.PublishedAt,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type GormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGormStore(db *gorm.DB, log *logger.Logger) *GormStore {
	return &GormStore{db: db, log: log.With("repo", "GormStore")}
}

// AutoMigrate tạo/cập nhật bảng
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(
		&models.Area{},
		&models.User{},
		&courseRecord{},
		&models.Podcast{},
	)
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("cannot get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) InsertArea(ctx context.Context, area models.Area) (models.Area, error) {
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&area).Error; err != nil {
		return models.Area{}, fmt.Errorf("create area: %w", err)
	}
	return area, nil
}

func (s *GormStore) ListAreas(ctx context.Context) ([]models.Area, error) {
	var areas []models.Area
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

func (s *GormStore) GetArea(ctx context.Context, id uuid.UUID) (models.Area, error) {
	var area models.Area
	if err := s.db.WithContext(ctx).First(&area, "id = ?", id).Error; err != nil {
		return models.Area{}, notFound(err)
	}
	return area, nil
}

func (s *GormStore) UpdateArea(ctx context.Context, area models.Area) (models.Area, error) {
	res := s.db.WithContext(ctx).Model(&models.Area{}).Where("id = ?", area.ID).
		Updates(map[string]interface{}{"name": area.Name, "code": area.Code})
	if res.Error != nil {
		return models.Area{}, fmt.Errorf("update area: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.Area{}, ErrNotFound
	}
	return s.GetArea(ctx, area.ID)
}

func (s *GormStore) DeleteArea(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := orphanAreaRefs(tx, id); err != nil {
			return err
		}
		res := tx.Delete(&models.Area{}, "id = ?", id)
		if res.Error != nil {
			return fmt.Errorf("delete area: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		s.log.Info("area deleted, references moved to public", "area_id", id)
		return nil
	})
}

// orphanAreaRefs chuyển khoá học, podcast và người dùng của khu vực về Public
func orphanAreaRefs(tx *gorm.DB, id uuid.UUID) error {
	for _, table := range []interface{}{&courseRecord{}, &models.Podcast{}, &models.User{}} {
		if err := tx.Model(table).Where("area_id = ?", id).Update("area_id", nil).Error; err != nil {
			return fmt.Errorf("orphan area references: %w", err)
		}
	}
	return nil
}

func (s *GormStore) SaveCourse(ctx context.Context, course models.Course) (models.Course, error) {
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	rec := toRecord(course)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Save(&rec).Error; err != nil {
		return models.Course{}, fmt.Errorf("save course: %w", err)
	}
	return rec.toCourse(), nil
}

func (s *GormStore) ListCourses(ctx context.Context) ([]models.Course, error) {
	var recs []courseRecord
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	out := make([]models.Course, len(recs))
	for i, r := range recs {
		out[i] = r.toCourse()
	}
	return out, nil
}

func (s *GormStore) GetCourse(ctx context.Context, id uuid.UUID) (models.Course, error) {
	var rec courseRecord
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return models.Course{}, notFound(err)
	}
	return rec.toCourse(), nil
}

func (s *GormStore) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&courseRecord{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete course: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) PublishPodcast(ctx context.Context, podcast models.Podcast) (models.Podcast, error) {
	if podcast.ID == uuid.Nil {
		podcast.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&podcast).Error; err != nil {
		return models.Podcast{}, fmt.Errorf("create podcast: %w", err)
	}
	return podcast, nil
}

func (s *GormStore) ListPodcasts(ctx context.Context) ([]models.Podcast, error) {
	var podcasts []models.Podcast
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&podcasts).Error; err != nil {
		return nil, fmt.Errorf("list podcasts: %w", err)
	}
	return podcasts, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(user.Email)).Count(&count).Error; err != nil {
		return models.User{}, fmt.Errorf("check user email: %w", err)
	}
	if count > 0 {
		return models.User{}, ErrDuplicate
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *GormStore) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func (s *GormStore) UpdateUserArea(ctx context.Context, id uuid.UUID, areaID *uuid.UUID) (models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("area_id", areaID)
	if res.Error != nil {
		return models.User{}, fmt.Errorf("update user area: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return models.User{}, ErrNotFound
	}
	return s.GetUser(ctx, id)
}
