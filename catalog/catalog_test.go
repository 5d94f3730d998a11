package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
)

func ids(courses []models.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Title
	}
	return out
}

func sampleCourses(a1, a2 uuid.UUID) []models.Course {
	return []models.Course{
		{Title: "c1"},
		{Title: "c2", AreaID: &a1},
		{Title: "c3", AreaID: &a2},
	}
}

func TestFilterVisibleLearnerWithArea(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	got := ids(FilterVisible(sampleCourses(a1, a2), models.Viewer{Role: models.RoleLearner, AreaID: &a1}))
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Fatalf("expected [c1 c2], got %v", got)
	}
}

func TestFilterVisibleAdminSeesAll(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	for _, area := range []*uuid.UUID{nil, &a1, &a2} {
		got := ids(FilterVisible(sampleCourses(a1, a2), models.Viewer{Role: models.RoleAdmin, AreaID: area}))
		if len(got) != 3 || got[0] != "c1" || got[1] != "c2" || got[2] != "c3" {
			t.Fatalf("expected all three courses in order, got %v", got)
		}
	}
}

func TestFilterVisibleLearnerWithoutAreaSeesPublicOnly(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	got := ids(FilterVisible(sampleCourses(a1, a2), models.Anonymous))
	if len(got) != 1 || got[0] != "c1" {
		t.Fatalf("expected [c1], got %v", got)
	}
}

func TestFilterVisiblePredicate(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	viewers := []models.Viewer{
		models.Anonymous,
		{Role: models.RoleLearner, AreaID: &a1},
		{Role: models.RoleLearner, AreaID: &a2},
		{Role: models.RoleAdmin},
	}
	podcasts := []models.Podcast{{Title: "p0"}, {Title: "p1", AreaID: &a1}, {Title: "p2", AreaID: &a2}}
	for _, v := range viewers {
		visible := FilterVisible(podcasts, v)
		seen := map[string]bool{}
		for _, p := range visible {
			seen[p.Title] = true
		}
		for _, p := range podcasts {
			want := v.IsAdmin() || p.AreaID == nil || (v.AreaID != nil && *p.AreaID == *v.AreaID)
			if seen[p.Title] != want {
				t.Errorf("viewer %+v podcast %s: visible=%v want %v", v, p.Title, seen[p.Title], want)
			}
		}
	}
}

func TestFilterVisibleDoesNotMutateInput(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	in := sampleCourses(a1, a2)
	FilterVisible(in, models.Viewer{Role: models.RoleLearner, AreaID: &a2})
	if got := ids(in); got[0] != "c1" || got[1] != "c2" || got[2] != "c3" {
		t.Fatalf("input reordered: %v", got)
	}
}

func TestRegistryCreateArea(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore(), logger.Nop())
	ctx := context.Background()

	a, err := r.CreateArea(ctx, "Köln")
	if err != nil {
		t.Fatalf("CreateArea: %v", err)
	}
	if a.Code != "KÖ1" {
		t.Fatalf("expected KÖ1, got %s", a.Code)
	}
	b, _ := r.CreateArea(ctx, "Königsberg")
	if b.Code != "KÖ1" || b.ID == a.ID {
		t.Fatalf("expected duplicate code with distinct id, got %+v", b)
	}
	if _, err := r.CreateArea(ctx, "   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	areas, _ := r.ListAreas(ctx)
	if len(areas) != 2 || areas[0].ID != a.ID || areas[1].ID != b.ID {
		t.Fatalf("expected insertion order, got %+v", areas)
	}
}

func TestRegistryRenameRecomputesCode(t *testing.T) {
	r := NewRegistry(store.NewMemoryStore(), logger.Nop())
	ctx := context.Background()
	a, _ := r.CreateArea(ctx, "Berlin")
	renamed, err := r.RenameArea(ctx, a.ID, "Dresden")
	if err != nil {
		t.Fatalf("RenameArea: %v", err)
	}
	if renamed.Code != "DR1" || renamed.Name != "Dresden" {
		t.Fatalf("unexpected area %+v", renamed)
	}
	if _, err := r.RenameArea(ctx, uuid.New(), "x"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	ok, err := r.Exists(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("expected area to exist")
	}
}
