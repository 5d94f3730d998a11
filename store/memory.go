package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
)

// MemoryStore lưu nội dung trong bộ nhớ tiến trình
type MemoryStore struct {
	mu       sync.RWMutex
	areas    []models.Area
	courses  []models.Course
	podcasts []models.Podcast
	users    []models.User
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) InsertArea(ctx context.Context, area models.Area) (models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if area.ID == uuid.Nil {
		area.ID = uuid.New()
	}
	now := s.now()
	area.CreatedAt, area.UpdatedAt = now, now
	s.areas = append(s.areas, area)
	return area, nil
}

func (s *MemoryStore) ListAreas(ctx context.Context) ([]models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Area(nil), s.areas...), nil
}

func (s *MemoryStore) GetArea(ctx context.Context, id uuid.UUID) (models.Area, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.areas {
		if a.ID == id {
			return a, nil
		}
	}
	return models.Area{}, ErrNotFound
}

func (s *MemoryStore) UpdateArea(ctx context.Context, area models.Area) (models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.areas {
		if s.areas[i].ID == area.ID {
			s.areas[i].Name = area.Name
			s.areas[i].Code = area.Code
			s.areas[i].UpdatedAt = s.now()
			return s.areas[i], nil
		}
	}
	return models.Area{}, ErrNotFound
}

func (s *MemoryStore) DeleteArea(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i, a := range s.areas {
		if a.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}
	s.areas = append(s.areas[:idx], s.areas[idx+1:]...)

	for i := range s.courses {
		if refersTo(s.courses[i].AreaID, id) {
			s.courses[i].AreaID = nil
		}
	}
	for i := range s.podcasts {
		if refersTo(s.podcasts[i].AreaID, id) {
			s.podcasts[i].AreaID = nil
		}
	}
	for i := range s.users {
		if refersTo(s.users[i].AreaID, id) {
			s.users[i].AreaID = nil
		}
	}
	return nil
}

func refersTo(ref *uuid.UUID, id uuid.UUID) bool {
	return ref != nil && *ref == id
}

// SaveCourse thêm mới hoặc ghi đè khoá học cùng ID
func (s *MemoryStore) SaveCourse(ctx context.Context, course models.Course) (models.Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	now := s.now()
	course.UpdatedAt = now
	for i := range s.courses {
		if s.courses[i].ID == course.ID {
			course.CreatedAt = s.courses[i].CreatedAt
			s.courses[i] = course.Clone()
			return course, nil
		}
	}
	course.CreatedAt = now
	s.courses = append(s.courses, course.Clone())
	return course, nil
}

func (s *MemoryStore) ListCourses(ctx context.Context) ([]models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Course, len(s.courses))
	for i, c := range s.courses {
		out[i] = c.Clone()
	}
	return out, nil
}

func (s *MemoryStore) GetCourse(ctx context.Context, id uuid.UUID) (models.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.courses {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return models.Course{}, ErrNotFound
}

func (s *MemoryStore) DeleteCourse(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.courses {
		if c.ID == id {
			s.courses = append(s.courses[:i], s.courses[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) PublishPodcast(ctx context.Context, podcast models.Podcast) (models.Podcast, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if podcast.ID == uuid.Nil {
		podcast.ID = uuid.New()
	}
	now := s.now()
	podcast.CreatedAt, podcast.UpdatedAt = now, now
	s.podcasts = append([]models.Podcast{podcast}, s.podcasts...)
	return podcast, nil
}

func (s *MemoryStore) ListPodcasts(ctx context.Context) ([]models.Podcast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Podcast(nil), s.podcasts...), nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return models.User{}, ErrDuplicate
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users = append(s.users, user)
	return user, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return models.User{}, ErrNotFound
}

func (s *MemoryStore) UpdateUserArea(ctx context.Context, id uuid.UUID, areaID *uuid.UUID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.users {
		if s.users[i].ID == id {
			s.users[i].AreaID = areaID
			s.users[i].UpdatedAt = s.now()
			return s.users[i], nil
		}
	}
	return models.User{}, ErrNotFound
}
