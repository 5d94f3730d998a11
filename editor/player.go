package editor

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/vnkhanh/scl-academy-backend/models"
)

var (
	ErrNoAudio     = errors.New("block has no audio")
	ErrAudioDecode = errors.New("audio payload is malformed")
)

// Playback là handle phát audio đang hoạt động
type Playback struct {
	SessionID string    `json:"session_id"`
	BlockID   string    `json:"block_id"`
	StartedAt time.Time `json:"started_at"`

	ctx    context.Context
	cancel context.CancelFunc
}

// Done đóng khi handle bị thay thế hoặc dừng
func (p *Playback) Done() <-chan struct{} {
	return p.ctx.Done()
}

// Player giữ tối đa một handle phát trong toàn process; phát mới thì dừng cái cũ
type Player struct {
	mu      sync.Mutex
	current *Playback
}

func NewPlayer() *Player {
	return &Player{}
}

// Toggle: cùng khối đang phát thì dừng (trả về nil), khác thì thay thế handle hiện tại
func (p *Player) Toggle(sessionID, blockID string) *Playback {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		same := p.current.SessionID == sessionID && p.current.BlockID == blockID
		p.current.cancel()
		p.current = nil
		if same {
			return nil
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.current = &Playback{SessionID: sessionID, BlockID: blockID, StartedAt: time.Now(), ctx: ctx, cancel: cancel}
	return p.current
}

// Finish gỡ handle khi phát xong, nếu nó vẫn là handle hiện tại
func (p *Player) Finish(h *Playback) {
	if h == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	h.cancel()
	if p.current == h {
		p.current = nil
	}
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.cancel()
		p.current = nil
	}
}

func (p *Player) Current() (Playback, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return Playback{}, false
	}
	return Playback{SessionID: p.current.SessionID, BlockID: p.current.BlockID, StartedAt: p.current.StartedAt}, true
}

// DecodeAudio lấy bytes MP3 từ khối audio
func DecodeAudio(b models.ContentBlock) ([]byte, error) {
	if b.Type != models.BlockAudio || b.Audio == nil || b.Audio.Data == "" {
		return nil, ErrNoAudio
	}
	data, err := base64.StdEncoding.DecodeString(b.Audio.Data)
	if err != nil || len(data) == 0 {
		return nil, ErrAudioDecode
	}
	return data, nil
}
