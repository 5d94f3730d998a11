package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
)

var (
	ErrSessionNotFound = errors.New("editor session not found")
	ErrSessionClosed   = errors.New("editor session is closed")
)

// Event được đẩy qua websocket cho phòng của phiên
type Event struct {
	Type       string `json:"type"`
	SessionID  string `json:"session_id"`
	Status     string `json:"status"`
	Generating bool   `json:"generating"`
	BlockID    string `json:"block_id,omitempty"`
}

const (
	EventStatus  = "status"
	EventChanged = "document_changed"
	EventClosed  = "closed"
)

// Notifier nhận sự kiện của phiên (ws hub)
type Notifier interface {
	Notify(sessionID string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, Event) {}

// View là ảnh chụp trạng thái phiên trả về cho client
type View struct {
	ID              string        `json:"id"`
	Course          models.Course `json:"course"`
	ActiveChapterID string        `json:"active_chapter_id"`
	ActiveModuleID  string        `json:"active_module_id"`
	Status          string        `json:"status"`
	Generating      bool          `json:"generating"`
}

// Session là một phiên soạn thảo: document + trạng thái tạm thời, có khoá riêng.
// Không gọi AI gateway khi đang giữ khoá.
type Session struct {
	ID      string
	OwnerID uuid.UUID

	mu         sync.Mutex
	doc        *Document
	status     string
	generating int
	lastActive time.Time
	closed     bool

	notify Notifier
	now    func() time.Time
}

func newSession(owner uuid.UUID, course models.Course, notify Notifier, now func() time.Time) *Session {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &Session{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		doc:        NewDocument(course),
		lastActive: now(),
		notify:     notify,
		now:        now,
	}
}

// Edit chạy fn trên document dưới khoá
func (s *Session) Edit(fn func(d *Document) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.lastActive = s.now()
	err := fn(s.doc)
	ev := s.eventLocked(EventChanged)
	s.mu.Unlock()

	if err == nil {
		s.notify.Notify(s.ID, ev)
	}
	return err
}

// Read chạy fn trên document dưới khoá, không đánh dấu hoạt động
func (s *Session) Read(fn func(d *Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := s.doc.Selection()
	return View{
		ID:              s.ID,
		Course:          s.doc.Snapshot(),
		ActiveChapterID: sel.ChapterID,
		ActiveModuleID:  sel.ModuleID,
		Status:          s.status,
		Generating:      s.generating > 0,
	}
}

// Generating chỉ dùng để UI tắt nút, không chặn yêu cầu trùng
func (s *Session) Generating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating > 0
}

func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) SetStatus(msg string) {
	s.mu.Lock()
	s.status = msg
	ev := s.eventLocked(EventStatus)
	s.mu.Unlock()
	s.notify.Notify(s.ID, ev)
}

// generation là ngữ cảnh chụp lúc gửi yêu cầu AI
type generation struct {
	target ModuleRef
	topic  string
	source string
}

// begin chụp ngữ cảnh trang đang chọn và tăng bộ đếm.
// Chưa chọn trang thì trả về ok=false và không làm gì.
func (s *Session) begin(status string) (generation, bool) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return generation{}, false
	}
	ref, topic, source, ok := s.doc.GenerationContext()
	if !ok {
		s.mu.Unlock()
		return generation{}, false
	}
	s.generating++
	s.status = status
	s.lastActive = s.now()
	ev := s.eventLocked(EventStatus)
	s.mu.Unlock()

	s.notify.Notify(s.ID, ev)
	return generation{target: ref, topic: topic, source: source}, true
}

// hold tăng bộ đếm cho thao tác không cần trang đang chọn (refine)
func (s *Session) hold() {
	s.mu.Lock()
	s.generating++
	s.lastActive = s.now()
	s.mu.Unlock()
}

func (s *Session) end() {
	s.mu.Lock()
	if s.generating > 0 {
		s.generating--
	}
	ev := s.eventLocked(EventStatus)
	s.mu.Unlock()
	s.notify.Notify(s.ID, ev)
}

// Apply là điểm ghi duy nhất cho kết quả AI. Trả về id khối vừa thêm (nếu có)
// và landed=false khi trang đích hoặc khối cần sửa không còn; khi đó status là lỗi.
func (s *Session) Apply(o Outcome) (string, bool) {
	s.mu.Lock()
	var added string
	landed := true
	if o.Block != nil {
		id, ok := s.doc.appendBlock(o.Target, *o.Block)
		added = id
		landed = ok
	}
	if o.Patch != nil && o.PatchID != "" {
		// khối có thể đã bị xoá trong lúc chờ
		if err := s.doc.patchBlock(o.PatchID, *o.Patch); err != nil {
			landed = false
		}
	}
	switch {
	case o.Failed != "":
		s.status = o.Failed
	case !landed:
		s.status = StatusTargetRemoved
	case o.Status != "":
		s.status = o.Status
	}
	ev := s.eventLocked(EventChanged)
	ev.BlockID = added
	if ev.BlockID == "" && landed {
		ev.BlockID = o.PatchID
	}
	s.mu.Unlock()

	s.notify.Notify(s.ID, ev)
	return added, landed
}

func (s *Session) eventLocked(typ string) Event {
	return Event{Type: typ, SessionID: s.ID, Status: s.status, Generating: s.generating > 0}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generating > 0 {
		return 0
	}
	return now.Sub(s.lastActive)
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	ev := s.eventLocked(EventClosed)
	s.mu.Unlock()
	s.notify.Notify(s.ID, ev)
}

// Sessions giữ các phiên soạn thảo đang mở
type Sessions struct {
	mu      sync.RWMutex
	items   map[string]*Session
	ttl     time.Duration
	renders *RenderTracker
	notify  Notifier
	now     func() time.Time
}

func NewSessions(ttl time.Duration, renders *RenderTracker, notify Notifier) *Sessions {
	return &Sessions{
		items:   make(map[string]*Session),
		ttl:     ttl,
		renders: renders,
		notify:  notify,
		now:     time.Now,
	}
}

func (r *Sessions) Create(owner uuid.UUID, course models.Course) *Session {
	s := newSession(owner, course, r.notify, r.now)
	r.mu.Lock()
	r.items[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.items[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close đóng phiên và huỷ các lần render còn chạy
func (r *Sessions) Close(id string) bool {
	r.mu.Lock()
	s, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if !ok {
		return false
	}
	if r.renders != nil {
		r.renders.CancelSession(id)
	}
	s.close()
	return true
}

func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Prune đóng các phiên không hoạt động quá ttl; phiên đang sinh nội dung được giữ lại
func (r *Sessions) Prune(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.RLock()
	var stale []string
	for id, s := range r.items {
		if s.idleSince(now) > r.ttl {
			stale = append(stale, id)
		}
	}
	r.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if r.Close(id) {
			n++
		}
	}
	return n
}
