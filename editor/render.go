package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
)

const (
	StatusVideoReady     = "Video ready."
	StatusVideoTimedOut  = "Video render timed out."
	StatusVideoCancelled = "Video render cancelled."
)

var ErrRenderNotFound = errors.New("render not found")

type renderJob struct {
	sessionID string
	blockID   string
	cancel    context.CancelFunc
}

// RenderTracker theo dõi các lần render video: mỗi handle một goroutine poll,
// giới hạn bởi timeout và huỷ được bằng Cancel.
type RenderTracker struct {
	video    VideoRenderer
	statuses store.RenderStatuses
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger

	mu   sync.Mutex
	jobs map[string]*renderJob
	wg   sync.WaitGroup
}

func NewRenderTracker(video VideoRenderer, statuses store.RenderStatuses, interval, timeout time.Duration, log *logger.Logger) *RenderTracker {
	if statuses == nil {
		statuses = store.NewMemoryRenderStatuses()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &RenderTracker{
		video:    video,
		statuses: statuses,
		interval: interval,
		timeout:  timeout,
		log:      log.With("service", "RenderTracker"),
		jobs:     make(map[string]*renderJob),
	}
}

// Track bắt đầu poll handle ở nền; kết quả được áp vào khối blockID của phiên
func (t *RenderTracker) Track(s *Session, blockID, handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	job := &renderJob{sessionID: s.ID, blockID: blockID, cancel: cancel}

	t.mu.Lock()
	t.jobs[handle] = job
	t.mu.Unlock()

	t.put(handle, job, models.VideoLoading, "", "")

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()
		t.poll(ctx, s, handle, job)
	}()
}

func (t *RenderTracker) poll(ctx context.Context, s *Session, handle string, job *renderJob) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			reason := StatusVideoCancelled
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				reason = StatusVideoTimedOut
			}
			t.fail(s, handle, job, reason)
			return
		case <-ticker.C:
		}

		url, done, err := t.video.PollRender(ctx, handle)
		if !done {
			if err != nil && ctx.Err() == nil {
				t.log.Debug("video poll failed, retrying", "handle", handle, "error", err)
			}
			continue
		}
		if err != nil || url == "" {
			t.log.Warn("video render failed", "handle", handle, "error", err)
			t.fail(s, handle, job, StatusVideoFailed)
			return
		}

		t.finish(handle)
		t.put(handle, job, models.VideoReady, url, "")
		s.Apply(Patched(job.blockID, BlockPatch{
			Content: &url,
			Video:   &models.VideoMeta{State: models.VideoReady, Handle: handle},
		}, StatusVideoReady))
		return
	}
}

func (t *RenderTracker) fail(s *Session, handle string, job *renderJob, reason string) {
	t.finish(handle)
	t.put(handle, job, models.VideoFailed, "", reason)
	empty := ""
	s.Apply(Patched(job.blockID, BlockPatch{
		Content: &empty,
		Video:   &models.VideoMeta{State: models.VideoFailed, Handle: handle, Error: reason},
	}, "").FailedWith(reason))
}

func (t *RenderTracker) finish(handle string) {
	t.mu.Lock()
	delete(t.jobs, handle)
	t.mu.Unlock()
}

func (t *RenderTracker) put(handle string, job *renderJob, state models.VideoState, url, reason string) {
	err := t.statuses.Put(context.Background(), store.RenderStatus{
		Handle:    handle,
		SessionID: job.sessionID,
		BlockID:   job.blockID,
		State:     state,
		URL:       url,
		Error:     reason,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.log.Warn("save render status failed", "handle", handle, "error", err)
	}
}

// Cancel dừng poll của một handle; khối chuyển sang failed
func (t *RenderTracker) Cancel(handle string) bool {
	t.mu.Lock()
	job, ok := t.jobs[handle]
	t.mu.Unlock()
	if !ok {
		return false
	}
	job.cancel()
	return true
}

// CancelSession huỷ mọi render thuộc phiên
func (t *RenderTracker) CancelSession(sessionID string) int {
	t.mu.Lock()
	var cancels []context.CancelFunc
	for _, job := range t.jobs {
		if job.sessionID == sessionID {
			cancels = append(cancels, job.cancel)
		}
	}
	t.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	return len(cancels)
}

// CancelAll huỷ mọi render, dùng khi tắt server
func (t *RenderTracker) CancelAll() int {
	t.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(t.jobs))
	for _, job := range t.jobs {
		cancels = append(cancels, job.cancel)
	}
	t.mu.Unlock()
	for _, c := range cancels {
		c()
	}
	return len(cancels)
}

func (t *RenderTracker) Status(ctx context.Context, handle string) (store.RenderStatus, error) {
	st, err := t.statuses.Get(ctx, handle)
	if errors.Is(err, store.ErrNotFound) {
		return store.RenderStatus{}, ErrRenderNotFound
	}
	return st, err
}

func (t *RenderTracker) Active() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.jobs)
}

// Wait chờ mọi goroutine poll kết thúc (dùng khi tắt server)
func (t *RenderTracker) Wait() {
	t.wg.Wait()
}
