package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAreaCode(t *testing.T) {
	cases := map[string]string{
		"München":   "MÜ1",
		"Köln":      "KÖ1",
		"Berlin":    "BE1",
		"x":         "X1",
		" hamburg ": "HA1",
	}
	for name, want := range cases {
		if got := AreaCode(name); got != want {
			t.Errorf("AreaCode(%q) = %q, want %q", name, got, want)
		}
	}
	if AreaCode("Köln") != AreaCode("Köln") {
		t.Fatalf("expected deterministic code")
	}
}

func TestBlockValidate(t *testing.T) {
	ok := []ContentBlock{
		{ID: "1", Type: BlockText, Content: "x"},
		{ID: "2", Type: BlockAudio, Audio: &AudioMeta{Data: "AAA"}},
		{ID: "3", Type: BlockSlides, Slides: &SlidesMeta{Slides: []Slide{{Title: "t"}}}},
		{ID: "4", Type: BlockVideo, Video: &VideoMeta{State: VideoLoading}},
		{ID: "5", Type: BlockCallout, Refining: true},
	}
	for _, b := range ok {
		if err := b.Validate(); err != nil {
			t.Errorf("block %s: unexpected error %v", b.ID, err)
		}
	}

	bad := []ContentBlock{
		{ID: "a", Type: "table"},
		{ID: "b", Type: BlockText, Audio: &AudioMeta{}},
		{ID: "c", Type: BlockAudio, Slides: &SlidesMeta{}},
		{ID: "d", Type: BlockVideo, Video: &VideoMeta{State: "paused"}},
		{ID: "e", Type: BlockImage, Refining: true},
	}
	for _, b := range bad {
		if err := b.Validate(); !errors.Is(err, ErrInvalidBlock) {
			t.Errorf("block %s: expected ErrInvalidBlock, got %v", b.ID, err)
		}
	}
}

func TestCourseCloneIsDeep(t *testing.T) {
	area := uuid.New()
	c := Course{
		AreaID: &area,
		Chapters: []Chapter{{
			ID: "c1",
			Modules: []Module{{
				ID:     "m1",
				Blocks: []ContentBlock{{ID: "b1", Type: BlockSlides, Slides: &SlidesMeta{Slides: []Slide{{Title: "s", Bullets: []string{"a"}}}}}},
			}},
		}},
	}
	cp := c.Clone()
	cp.Chapters[0].Modules[0].Blocks[0].Slides.Slides[0].Bullets[0] = "changed"
	cp.Chapters[0].Title = "other"
	*cp.AreaID = uuid.New()

	if c.Chapters[0].Modules[0].Blocks[0].Slides.Slides[0].Bullets[0] != "a" {
		t.Fatalf("clone shares slide bullets with original")
	}
	if c.Chapters[0].Title != "" {
		t.Fatalf("clone shares chapters with original")
	}
	if *c.AreaID != area {
		t.Fatalf("clone shares area pointer with original")
	}
}
