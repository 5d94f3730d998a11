package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
)

func TestMemoryStoreAreasKeepInsertionOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	for _, name := range []string{"München", "Berlin", "Hamburg"} {
		if _, err := s.InsertArea(ctx, models.Area{Name: name, Code: models.AreaCode(name)}); err != nil {
			t.Fatalf("InsertArea: %v", err)
		}
	}
	areas, _ := s.ListAreas(ctx)
	if len(areas) != 3 || areas[0].Name != "München" || areas[2].Name != "Hamburg" {
		t.Fatalf("unexpected order: %+v", areas)
	}
}

func TestMemoryStoreDeleteAreaOrphansToPublic(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	area, _ := s.InsertArea(ctx, models.Area{Name: "Berlin", Code: "BE1"})
	other, _ := s.InsertArea(ctx, models.Area{Name: "Hamburg", Code: "HA1"})

	c, _ := s.SaveCourse(ctx, models.Course{Title: "Berlin regs", AreaID: &area.ID})
	keep, _ := s.SaveCourse(ctx, models.Course{Title: "Hamburg port", AreaID: &other.ID})
	p, _ := s.PublishPodcast(ctx, models.Podcast{Title: "Berlin traffic", AreaID: &area.ID})
	u, _ := s.CreateUser(ctx, models.User{Email: "a@b.c", AreaID: &area.ID})

	if err := s.DeleteArea(ctx, area.ID); err != nil {
		t.Fatalf("DeleteArea: %v", err)
	}
	if got, _ := s.GetCourse(ctx, c.ID); got.AreaID != nil {
		t.Fatalf("expected course to become public, got %v", got.AreaID)
	}
	if got, _ := s.GetCourse(ctx, keep.ID); got.AreaID == nil || *got.AreaID != other.ID {
		t.Fatalf("expected unrelated course to keep its area")
	}
	pods, _ := s.ListPodcasts(ctx)
	if pods[0].ID != p.ID || pods[0].AreaID != nil {
		t.Fatalf("expected podcast to become public")
	}
	if got, _ := s.GetUser(ctx, u.ID); got.AreaID != nil {
		t.Fatalf("expected user assignment cleared")
	}
	if err := s.DeleteArea(ctx, area.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestMemoryStorePodcastsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	s.PublishPodcast(ctx, models.Podcast{Title: "first"})
	s.PublishPodcast(ctx, models.Podcast{Title: "second"})
	pods, _ := s.ListPodcasts(ctx)
	if pods[0].Title != "second" || pods[1].Title != "first" {
		t.Fatalf("expected newest first, got %q, %q", pods[0].Title, pods[1].Title)
	}
}

func TestMemoryStoreSaveCourseUpserts(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	id := uuid.New()
	s.SaveCourse(ctx, models.Course{ID: id, Title: "v1"})
	s.SaveCourse(ctx, models.Course{ID: id, Title: "v2"})
	courses, _ := s.ListCourses(ctx)
	if len(courses) != 1 || courses[0].Title != "v2" {
		t.Fatalf("expected single upserted course, got %+v", courses)
	}
}

func TestMemoryStoreSaveCourseStoresSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	course := models.Course{Title: "x", Chapters: []models.Chapter{{ID: "c1", Title: "before"}}}
	saved, _ := s.SaveCourse(ctx, course)
	course.Chapters[0].Title = "after"
	got, _ := s.GetCourse(ctx, saved.ID)
	if got.Chapters[0].Title != "before" {
		t.Fatalf("store shares chapter slice with caller")
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	u, err := s.CreateUser(ctx, models.User{Email: "Alex@Example.com", Role: models.RoleLearner})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := s.CreateUser(ctx, models.User{Email: "alex@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	got, err := s.GetUserByEmail(ctx, "ALEX@example.com")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetUserByEmail: %v %+v", err, got)
	}
	area := uuid.New()
	updated, err := s.UpdateUserArea(ctx, u.ID, &area)
	if err != nil || updated.AreaID == nil || *updated.AreaID != area {
		t.Fatalf("UpdateUserArea: %v %+v", err, updated)
	}
	if _, err := s.GetUser(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRenderStatuses(t *testing.T) {
	m := NewMemoryRenderStatuses()
	ctx := context.Background()
	if _, err := m.Get(ctx, "op-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	m.Put(ctx, RenderStatus{Handle: "op-1", State: models.VideoLoading})
	m.Put(ctx, RenderStatus{Handle: "op-1", State: models.VideoReady, URL: "https://x"})
	st, err := m.Get(ctx, "op-1")
	if err != nil || st.State != models.VideoReady || st.URL != "https://x" {
		t.Fatalf("unexpected status %+v (%v)", st, err)
	}
}
