package editor

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
)

type fakeGen struct {
	text     string
	script   string
	slides   []models.Slide
	refined  string
	err      error
	calls    atomic.Int32
	gotTopic string
	gotCtx   string
	onCall   func()
	mu       sync.Mutex
}

func (f *fakeGen) record(topic, src string) {
	f.calls.Add(1)
	f.mu.Lock()
	f.gotTopic, f.gotCtx = topic, src
	f.mu.Unlock()
	if f.onCall != nil {
		f.onCall()
	}
}

func (f *fakeGen) GenerateText(_ context.Context, topic, src string) (string, error) {
	f.record(topic, src)
	return f.text, f.err
}

func (f *fakeGen) DraftScript(_ context.Context, topic, src string) (string, error) {
	f.record(topic, src)
	return f.script, f.err
}

func (f *fakeGen) RenderSlides(_ context.Context, topic, src string) ([]models.Slide, error) {
	f.record(topic, src)
	return f.slides, f.err
}

func (f *fakeGen) Refine(_ context.Context, text string) (string, error) {
	f.record(text, "")
	return f.refined, f.err
}

type fakeSpeech struct {
	audio []byte
	err   error
	calls atomic.Int32
}

func (f *fakeSpeech) SynthesizeDialogue(context.Context, string) ([]byte, error) {
	f.calls.Add(1)
	return f.audio, f.err
}

func probeOK(b []byte) (float64, error) { return 42.5, nil }

func probeFail(b []byte) (float64, error) { return 0, errors.New("no frames") }

func newTestSession(t *testing.T) (*Sessions, *Session) {
	t.Helper()
	reg := NewSessions(time.Hour, nil, nil)
	return reg, reg.Create(uuid.New(), NewCourse())
}

func blockCount(s *Session) int {
	var n int
	s.Read(func(d *Document) {
		for _, ch := range d.course.Chapters {
			for _, m := range ch.Modules {
				n += len(m.Blocks)
			}
		}
	})
	return n
}

func TestGeneratePodcastNullScript(t *testing.T) {
	_, s := newTestSession(t)
	gen := &fakeGen{script: ""}
	speech := &fakeSpeech{audio: []byte("mp3")}
	e := NewEngine(gen, speech, nil, nil, probeOK, logger.Nop())

	before := blockCount(s)
	res := e.GeneratePodcastBlock(context.Background(), s)
	if res.OK {
		t.Fatal("expected failure")
	}
	if got := blockCount(s); got != before {
		t.Fatalf("blocks = %d, want %d", got, before)
	}
	if n := speech.calls.Load(); n != 0 {
		t.Fatalf("speech calls = %d, want 0", n)
	}
	if s.Status() != StatusScriptFailed {
		t.Fatalf("status = %q", s.Status())
	}
	if s.Generating() {
		t.Fatal("generating flag not cleared")
	}
}

func TestGeneratePodcastScriptError(t *testing.T) {
	_, s := newTestSession(t)
	speech := &fakeSpeech{audio: []byte("mp3")}
	e := NewEngine(&fakeGen{err: errors.New("quota")}, speech, nil, nil, probeOK, logger.Nop())
	e.GeneratePodcastBlock(context.Background(), s)
	if speech.calls.Load() != 0 {
		t.Fatal("speech must not be called after script failure")
	}
}

func TestGeneratePodcastSuccess(t *testing.T) {
	_, s := newTestSession(t)
	audio := []byte{0xff, 0xfb, 0x90, 0x00}
	e := NewEngine(&fakeGen{script: "Expert: Hi\nHost: Hello"}, &fakeSpeech{audio: audio}, nil, nil, probeOK, logger.Nop())

	res := e.GeneratePodcastBlock(context.Background(), s)
	if !res.OK || res.BlockID == "" {
		t.Fatalf("result = %+v", res)
	}
	var b models.ContentBlock
	s.Read(func(d *Document) { b, _ = d.Block(res.BlockID) })
	if b.Type != models.BlockAudio || b.Content != "Expert: Hi\nHost: Hello" {
		t.Fatalf("block = %+v", b)
	}
	if b.Audio == nil || b.Audio.DurationSeconds != 42.5 || b.Audio.Data != base64.StdEncoding.EncodeToString(audio) {
		t.Fatalf("audio meta = %+v", b.Audio)
	}
}

func TestGeneratePodcastDecodeFailure(t *testing.T) {
	_, s := newTestSession(t)
	e := NewEngine(&fakeGen{script: "Expert: Hi"}, &fakeSpeech{audio: []byte("junk")}, nil, nil, probeFail, logger.Nop())
	before := blockCount(s)
	res := e.GeneratePodcastBlock(context.Background(), s)
	if res.OK || res.Status != StatusDecodeFailed {
		t.Fatalf("result = %+v", res)
	}
	if blockCount(s) != before {
		t.Fatal("partial block retained after decode failure")
	}
}

func TestGenerateTextBlock(t *testing.T) {
	_, s := newTestSession(t)
	src := "Crane schedules are shared daily."
	s.Edit(func(d *Document) error {
		return d.UpdateChapter(d.Selection().ChapterID, ChapterPatch{SourceContent: &src})
	})
	gen := &fakeGen{text: "Generated paragraph."}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())

	before := blockCount(s)
	res := e.GenerateTextBlock(context.Background(), s)
	if !res.OK {
		t.Fatalf("result = %+v", res)
	}
	if blockCount(s) != before+1 {
		t.Fatal("expected exactly one new block")
	}
	if gen.gotTopic != "Welcome to Logistics" || gen.gotCtx != src {
		t.Fatalf("topic/context = %q / %q", gen.gotTopic, gen.gotCtx)
	}
	var last models.ContentBlock
	s.Read(func(d *Document) {
		blocks := d.activeModuleRef().Blocks
		last = blocks[len(blocks)-1]
	})
	if last.ID != res.BlockID || last.Content != "Generated paragraph." {
		t.Fatalf("last block = %+v", last)
	}
}

func TestGenerateTextFailureAddsNothing(t *testing.T) {
	_, s := newTestSession(t)
	e := NewEngine(&fakeGen{err: errors.New("boom")}, nil, nil, nil, probeOK, logger.Nop())
	before := blockCount(s)
	res := e.GenerateTextBlock(context.Background(), s)
	if res.OK || blockCount(s) != before || s.Status() != StatusTextFailed {
		t.Fatalf("result = %+v status = %q", res, s.Status())
	}

	unconfigured := NewEngine(nil, nil, nil, nil, probeOK, logger.Nop())
	if res := unconfigured.GenerateTextBlock(context.Background(), s); res.Status != StatusNotConfigured {
		t.Fatalf("status = %q", res.Status)
	}
}

func TestGenerateWithoutActiveModuleIsNoop(t *testing.T) {
	_, s := newTestSession(t)
	s.Edit(func(d *Document) error { return d.SelectChapter(d.Selection().ChapterID) })
	gen := &fakeGen{text: "x"}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())

	if res := e.GenerateTextBlock(context.Background(), s); res.OK || res.Status != "" {
		t.Fatalf("result = %+v", res)
	}
	if gen.calls.Load() != 0 {
		t.Fatal("gateway called without an active module")
	}
}

func TestGenerateSlidesEmptyDeckFails(t *testing.T) {
	_, s := newTestSession(t)
	before := blockCount(s)
	e := NewEngine(&fakeGen{slides: nil}, nil, nil, nil, probeOK, logger.Nop())
	if res := e.GenerateSlidesBlock(context.Background(), s); res.OK || res.Status != StatusSlidesFailed {
		t.Fatalf("result = %+v", res)
	}
	if blockCount(s) != before {
		t.Fatal("empty deck produced a block")
	}

	e = NewEngine(&fakeGen{slides: []models.Slide{{Title: "Intro", Bullets: []string{"a"}}}}, nil, nil, nil, probeOK, logger.Nop())
	res := e.GenerateSlidesBlock(context.Background(), s)
	var b models.ContentBlock
	s.Read(func(d *Document) { b, _ = d.Block(res.BlockID) })
	if b.Type != models.BlockSlides || b.Content != "Summary Deck" || len(b.Slides.Slides) != 1 {
		t.Fatalf("block = %+v", b)
	}
}

func TestOutcomeTargetsDispatchModule(t *testing.T) {
	_, s := newTestSession(t)
	origin := s.View()
	gen := &fakeGen{text: "late result"}
	gen.onCall = func() {
		// người dùng chuyển sang chương mới trong lúc chờ AI
		_ = s.Edit(func(d *Document) error {
			d.AddChapter()
			return nil
		})
	}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())
	res := e.GenerateTextBlock(context.Background(), s)
	if !res.OK {
		t.Fatalf("result = %+v", res)
	}

	course := s.View().Course
	var found bool
	for _, ch := range course.Chapters {
		for _, m := range ch.Modules {
			for _, b := range m.Blocks {
				if b.ID == res.BlockID {
					found = true
					if ch.ID != origin.ActiveChapterID || m.ID != origin.ActiveModuleID {
						t.Fatalf("block landed in %s/%s", ch.ID, m.ID)
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("block not found")
	}
}

func TestOutcomeDroppedWhenModuleDeleted(t *testing.T) {
	_, s := newTestSession(t)
	gen := &fakeGen{text: "orphan"}
	gen.onCall = func() {
		_ = s.Edit(func(d *Document) error {
			d.DeleteModule(d.Selection())
			return nil
		})
	}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())
	res := e.GenerateTextBlock(context.Background(), s)
	if res.OK || res.Status != StatusTargetRemoved {
		t.Fatalf("result = %+v", res)
	}
	if blockCount(s) != 0 {
		t.Fatal("block appended to a deleted module")
	}
	if got := s.Status(); got != StatusTargetRemoved {
		t.Fatalf("status = %q, want %q", got, StatusTargetRemoved)
	}
}

func TestRefineDroppedWhenBlockDeleted(t *testing.T) {
	_, s := newTestSession(t)
	var id string
	s.Edit(func(d *Document) error {
		id, _ = d.AddBlock(models.BlockText, "crane go up", BlockMeta{})
		return nil
	})
	gen := &fakeGen{refined: "The crane is raised."}
	gen.onCall = func() {
		_ = s.Edit(func(d *Document) error {
			d.DeleteBlock(id)
			return nil
		})
	}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())

	res, err := e.RefineBlock(context.Background(), s, id)
	if err != nil {
		t.Fatalf("RefineBlock error = %v", err)
	}
	if res.OK || res.Status != StatusTargetRemoved {
		t.Fatalf("result = %+v", res)
	}
	if got := s.Status(); got != StatusTargetRemoved {
		t.Fatalf("status = %q, want %q", got, StatusTargetRemoved)
	}
	s.Read(func(d *Document) {
		if _, ok := d.Block(id); ok {
			t.Fatal("deleted block came back")
		}
	})
}

func TestConcurrentGenerationsBothAppend(t *testing.T) {
	_, s := newTestSession(t)
	release := make(chan struct{})
	var inFlight sync.WaitGroup
	inFlight.Add(2)
	gen := &fakeGen{text: "parallel"}
	gen.onCall = func() {
		inFlight.Done()
		<-release
	}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())
	before := blockCount(s)

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.GenerateTextBlock(context.Background(), s)
		}()
	}
	inFlight.Wait()
	if !s.Generating() {
		t.Fatal("Generating should report in-flight work")
	}
	close(release)
	wg.Wait()

	if got := blockCount(s); got != before+2 {
		t.Fatalf("blocks = %d, want %d", got, before+2)
	}
	if s.Generating() {
		t.Fatal("Generating should be false after completion")
	}
}

func TestRefineBlock(t *testing.T) {
	_, s := newTestSession(t)
	var id string
	s.Edit(func(d *Document) error {
		id, _ = d.AddBlock(models.BlockText, "crane go up", BlockMeta{})
		return nil
	})

	gen := &fakeGen{refined: "The crane is raised."}
	var sawRefining bool
	gen.onCall = func() {
		s.Read(func(d *Document) {
			b, _ := d.Block(id)
			sawRefining = b.Refining
		})
	}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())

	res, err := e.RefineBlock(context.Background(), s, id)
	if err != nil || !res.OK {
		t.Fatalf("RefineBlock = %+v, %v", res, err)
	}
	if !sawRefining {
		t.Fatal("is_refining not set during the call")
	}
	var b models.ContentBlock
	s.Read(func(d *Document) { b, _ = d.Block(id) })
	if b.Content != "The crane is raised." || b.Refining {
		t.Fatalf("block = %+v", b)
	}
}

func TestRefineFailureKeepsContent(t *testing.T) {
	_, s := newTestSession(t)
	var id string
	s.Edit(func(d *Document) error {
		id, _ = d.AddBlock(models.BlockCallout, "keep me", BlockMeta{})
		return nil
	})
	e := NewEngine(&fakeGen{err: errors.New("down")}, nil, nil, nil, probeOK, logger.Nop())
	res, err := e.RefineBlock(context.Background(), s, id)
	if err != nil || res.OK || res.Status != StatusRefineFailed {
		t.Fatalf("RefineBlock = %+v, %v", res, err)
	}
	var b models.ContentBlock
	s.Read(func(d *Document) { b, _ = d.Block(id) })
	if b.Content != "keep me" || b.Refining {
		t.Fatalf("block = %+v", b)
	}

	if _, err := e.RefineBlock(context.Background(), s, "missing"); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestRefineRejectsNonTextBlocks(t *testing.T) {
	_, s := newTestSession(t)
	var id string
	s.Edit(func(d *Document) error {
		id, _ = d.AddBlock(models.BlockImage, "https://img", BlockMeta{})
		return nil
	})
	gen := &fakeGen{refined: "x"}
	e := NewEngine(gen, nil, nil, nil, probeOK, logger.Nop())
	if _, err := e.RefineBlock(context.Background(), s, id); !errors.Is(err, ErrBlockNotFound) {
		t.Fatalf("err = %v", err)
	}
	if gen.calls.Load() != 0 {
		t.Fatal("gateway called for image block")
	}
}
