package editor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
)

type fakeVideo struct {
	startErr  error
	readyAt   int32 // số lần poll trước khi xong; <0: không bao giờ xong
	url       string
	failFinal bool
	polls     atomic.Int32
	topic     string
}

func (f *fakeVideo) StartRender(_ context.Context, topic string) (string, error) {
	f.topic = topic
	if f.startErr != nil {
		return "", f.startErr
	}
	return "operations/abc", nil
}

func (f *fakeVideo) PollRender(ctx context.Context, handle string) (string, bool, error) {
	n := f.polls.Add(1)
	if f.readyAt < 0 || n < f.readyAt {
		return "", false, errors.New("transient")
	}
	if f.failFinal {
		return "", true, errors.New("safety filter")
	}
	return f.url, true, nil
}

func videoBlock(t *testing.T, s *Session, id string) models.ContentBlock {
	t.Helper()
	var b models.ContentBlock
	var ok bool
	s.Read(func(d *Document) { b, ok = d.Block(id) })
	if !ok {
		t.Fatalf("block %s not found", id)
	}
	return b
}

func TestGenerateVideoBlockReady(t *testing.T) {
	_, s := newTestSession(t)
	video := &fakeVideo{readyAt: 3, url: "https://cdn/v.mp4"}
	statuses := store.NewMemoryRenderStatuses()
	tracker := NewRenderTracker(video, statuses, time.Millisecond, time.Second, logger.Nop())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	res := e.GenerateVideoBlock(context.Background(), s)
	if !res.OK || res.BlockID == "" {
		t.Fatalf("result = %+v", res)
	}
	if video.topic != "Welcome to Logistics" {
		t.Fatalf("topic = %q", video.topic)
	}
	tracker.Wait()

	b := videoBlock(t, s, res.BlockID)
	if b.Video == nil || b.Video.State != models.VideoReady || b.Content != "https://cdn/v.mp4" {
		t.Fatalf("block = %+v video = %+v", b, b.Video)
	}
	st, err := tracker.Status(context.Background(), "operations/abc")
	if err != nil || st.State != models.VideoReady || st.BlockID != res.BlockID {
		t.Fatalf("status = %+v, %v", st, err)
	}
	if tracker.Active() != 0 {
		t.Fatal("job not removed")
	}
	if s.Status() != StatusVideoReady {
		t.Fatalf("session status = %q", s.Status())
	}
}

func TestGenerateVideoPlaceholderIsLoading(t *testing.T) {
	_, s := newTestSession(t)
	video := &fakeVideo{readyAt: -1}
	tracker := NewRenderTracker(video, nil, time.Hour, time.Hour, logger.Nop())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	res := e.GenerateVideoBlock(context.Background(), s)
	b := videoBlock(t, s, res.BlockID)
	if b.Video.State != models.VideoLoading || b.Video.Handle != "operations/abc" {
		t.Fatalf("video = %+v", b.Video)
	}

	if !tracker.Cancel("operations/abc") {
		t.Fatal("Cancel should find the job")
	}
	tracker.Wait()
	b = videoBlock(t, s, res.BlockID)
	if b.Video.State != models.VideoFailed || b.Video.Error != StatusVideoCancelled {
		t.Fatalf("after cancel video = %+v", b.Video)
	}
	if tracker.Cancel("operations/abc") {
		t.Fatal("second cancel should report false")
	}
}

func TestGenerateVideoStartFailure(t *testing.T) {
	_, s := newTestSession(t)
	video := &fakeVideo{startErr: errors.New("quota")}
	tracker := NewRenderTracker(video, nil, time.Millisecond, time.Second, logger.Nop())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	res := e.GenerateVideoBlock(context.Background(), s)
	if res.OK {
		t.Fatalf("result = %+v", res)
	}
	var blocks []models.ContentBlock
	s.Read(func(d *Document) { blocks = d.activeModuleRef().Blocks })
	last := blocks[len(blocks)-1]
	if last.Type != models.BlockVideo || last.Video.State != models.VideoFailed {
		t.Fatalf("placeholder = %+v", last)
	}
	if tracker.Active() != 0 {
		t.Fatal("no render should be tracked")
	}
}

func TestRenderTerminalFailure(t *testing.T) {
	_, s := newTestSession(t)
	video := &fakeVideo{readyAt: 1, failFinal: true}
	tracker := NewRenderTracker(video, nil, time.Millisecond, time.Second, logger.Nop())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	res := e.GenerateVideoBlock(context.Background(), s)
	tracker.Wait()
	b := videoBlock(t, s, res.BlockID)
	if b.Video.State != models.VideoFailed || b.Video.Error != StatusVideoFailed || b.Content != "" {
		t.Fatalf("video = %+v", b.Video)
	}
	if video.polls.Load() != 1 {
		t.Fatalf("polls = %d, want 1", video.polls.Load())
	}
}

func TestRenderTimeout(t *testing.T) {
	_, s := newTestSession(t)
	video := &fakeVideo{readyAt: -1}
	tracker := NewRenderTracker(video, nil, time.Millisecond, 20*time.Millisecond, logger.Nop())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	res := e.GenerateVideoBlock(context.Background(), s)
	tracker.Wait()
	b := videoBlock(t, s, res.BlockID)
	if b.Video.State != models.VideoFailed || b.Video.Error != StatusVideoTimedOut {
		t.Fatalf("video = %+v", b.Video)
	}
	st, _ := tracker.Status(context.Background(), "operations/abc")
	if st.State != models.VideoFailed {
		t.Fatalf("status = %+v", st)
	}
}

func TestClosingSessionCancelsRenders(t *testing.T) {
	video := &fakeVideo{readyAt: -1}
	tracker := NewRenderTracker(video, nil, time.Millisecond, time.Hour, logger.Nop())
	reg := NewSessions(time.Hour, tracker, nil)
	s := reg.Create(uuid.New(), NewCourse())
	e := NewEngine(nil, nil, video, tracker, probeOK, logger.Nop())

	e.GenerateVideoBlock(context.Background(), s)
	if tracker.Active() != 1 {
		t.Fatalf("active = %d", tracker.Active())
	}
	reg.Close(s.ID)
	tracker.Wait()
	if tracker.Active() != 0 {
		t.Fatal("render still tracked after session close")
	}
	if _, err := tracker.Status(context.Background(), "unknown"); !errors.Is(err, ErrRenderNotFound) {
		t.Fatalf("err = %v", err)
	}
}
