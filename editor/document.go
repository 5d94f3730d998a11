package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
)

var (
	ErrBlockNotFound   = errors.New("block not found")
	ErrChapterNotFound = errors.New("chapter not found")
	ErrModuleNotFound  = errors.New("module not found")
	ErrInvalidPatch    = errors.New("invalid patch")
)

const DefaultTopic = "Logistics"

// ModuleRef trỏ tới một trang trong cây khoá học
type ModuleRef struct {
	ChapterID string `json:"chapter_id"`
	ModuleID  string `json:"module_id"`
}

// BlockMeta là metadata đi kèm khi thêm khối
type BlockMeta struct {
	Audio  *models.AudioMeta
	Slides *models.SlidesMeta
	Video  *models.VideoMeta
}

// BlockPatch: trường nil giữ nguyên giá trị cũ
type BlockPatch struct {
	Content  *string            `json:"content,omitempty"`
	Audio    *models.AudioMeta  `json:"audio,omitempty"`
	Slides   *models.SlidesMeta `json:"slides,omitempty"`
	Video    *models.VideoMeta  `json:"video,omitempty"`
	Refining *bool              `json:"is_refining,omitempty"`
}

type ChapterPatch struct {
	Title         *string `json:"title,omitempty"`
	SourceContent *string `json:"source_content,omitempty"`
}

type ModulePatch struct {
	Title     *string            `json:"title,omitempty"`
	Type      *models.ModuleType `json:"type,omitempty"`
	Duration  *string            `json:"duration,omitempty"`
	Completed *bool              `json:"completed,omitempty"`
}

type CoursePatch struct {
	Title       *string            `json:"title,omitempty"`
	Description *string            `json:"description,omitempty"`
	Category    *models.Category   `json:"category,omitempty"`
	Difficulty  *models.Difficulty `json:"difficulty,omitempty"`
	Duration    *string            `json:"duration,omitempty"`
}

// Document là bản nháp khoá học cùng lựa chọn chương/trang hiện tại.
// Không an toàn khi dùng đồng thời; Session giữ khoá.
type Document struct {
	course        models.Course
	activeChapter string
	activeModule  string
}

func newID() string {
	return uuid.NewString()
}

// NewCourse là khoá học mặc định khi mở trình soạn thảo
func NewCourse() models.Course {
	return models.Course{
		Title:      "Untitled Course",
		Category:   models.CategoryLogistics,
		Difficulty: models.DifficultyIntermediate,
		Status:     models.CourseDraft,
		Chapters: []models.Chapter{{
			ID:    newID(),
			Title: "Chapter 1: Foundations",
			Modules: []models.Module{{
				ID:       newID(),
				Title:    "Welcome to Logistics",
				Type:     models.ModuleMixed,
				Duration: "5 min",
				Blocks: []models.ContentBlock{
					{ID: newID(), Type: models.BlockHeading, Content: "Introduction to Sustainable Logistics"},
					{ID: newID(), Type: models.BlockText, Content: "This course covers the essential protocols for reducing waste and optimizing crane usage on urban sites."},
				},
			}},
		}},
	}
}

// NewDocument nhận một bản sao của course và chọn trang đầu tiên nếu có
func NewDocument(course models.Course) *Document {
	d := &Document{course: course.Clone()}
	if len(d.course.Chapters) > 0 {
		ch := d.course.Chapters[0]
		d.activeChapter = ch.ID
		if len(ch.Modules) > 0 {
			d.activeModule = ch.Modules[0].ID
		}
	}
	return d
}

// Snapshot trả về bản sao sâu của khoá học
func (d *Document) Snapshot() models.Course {
	return d.course.Clone()
}

// Selection trả về chương/trang đang chọn ("" nếu chưa chọn)
func (d *Document) Selection() ModuleRef {
	return ModuleRef{ChapterID: d.activeChapter, ModuleID: d.activeModule}
}

func (d *Document) chapter(id string) *models.Chapter {
	for i := range d.course.Chapters {
		if d.course.Chapters[i].ID == id {
			return &d.course.Chapters[i]
		}
	}
	return nil
}

func (d *Document) module(ref ModuleRef) *models.Module {
	ch := d.chapter(ref.ChapterID)
	if ch == nil {
		return nil
	}
	for i := range ch.Modules {
		if ch.Modules[i].ID == ref.ModuleID {
			return &ch.Modules[i]
		}
	}
	return nil
}

func (d *Document) activeModuleRef() *models.Module {
	if d.activeModule == "" {
		return nil
	}
	return d.module(d.Selection())
}

// GenerationContext trả về topic (tiêu đề trang, mặc định "Logistics") và tài liệu nguồn của chương.
// ok=false khi chưa chọn trang.
func (d *Document) GenerationContext() (ref ModuleRef, topic, source string, ok bool) {
	m := d.activeModuleRef()
	if m == nil {
		return ModuleRef{}, "", "", false
	}
	topic = strings.TrimSpace(m.Title)
	if topic == "" {
		topic = DefaultTopic
	}
	if ch := d.chapter(d.activeChapter); ch != nil {
		source = ch.SourceContent
	}
	return d.Selection(), topic, source, true
}

// AddBlock nối khối mới vào cuối trang đang chọn.
// Chưa chọn trang hoặc khối không hợp lệ thì không làm gì (ok=false).
func (d *Document) AddBlock(typ models.BlockType, content string, meta BlockMeta) (string, bool) {
	return d.appendBlock(d.Selection(), models.ContentBlock{
		Type:    typ,
		Content: content,
		Audio:   meta.Audio,
		Slides:  meta.Slides,
		Video:   meta.Video,
	})
}

func (d *Document) appendBlock(ref ModuleRef, b models.ContentBlock) (string, bool) {
	if ref.ModuleID == "" {
		return "", false
	}
	m := d.module(ref)
	if m == nil {
		return "", false
	}
	if err := b.Validate(); err != nil {
		return "", false
	}
	b.ID = newID()
	m.Blocks = append(m.Blocks, b.Clone())
	return b.ID, true
}

// Block tìm khối theo id trong toàn bộ khoá học
func (d *Document) Block(id string) (models.ContentBlock, bool) {
	if b := d.findBlock(id); b != nil {
		return b.Clone(), true
	}
	return models.ContentBlock{}, false
}

func (d *Document) findBlock(id string) *models.ContentBlock {
	for ci := range d.course.Chapters {
		for mi := range d.course.Chapters[ci].Modules {
			blocks := d.course.Chapters[ci].Modules[mi].Blocks
			for bi := range blocks {
				if blocks[bi].ID == id {
					return &blocks[bi]
				}
			}
		}
	}
	return nil
}

// UpdateBlock gộp patch vào khối thuộc trang đang chọn
func (d *Document) UpdateBlock(id string, patch BlockPatch) error {
	m := d.activeModuleRef()
	if m == nil {
		return ErrBlockNotFound
	}
	for i := range m.Blocks {
		if m.Blocks[i].ID == id {
			return applyPatch(&m.Blocks[i], patch)
		}
	}
	return ErrBlockNotFound
}

// patchBlock dùng cho kết quả AI: khối có thể không còn nằm ở trang đang chọn
func (d *Document) patchBlock(id string, patch BlockPatch) error {
	b := d.findBlock(id)
	if b == nil {
		return ErrBlockNotFound
	}
	return applyPatch(b, patch)
}

func applyPatch(b *models.ContentBlock, patch BlockPatch) error {
	next := b.Clone()
	if patch.Content != nil {
		next.Content = *patch.Content
	}
	if patch.Audio != nil {
		a := *patch.Audio
		next.Audio = &a
	}
	if patch.Slides != nil {
		next.Slides = models.ContentBlock{Slides: patch.Slides}.Clone().Slides
	}
	if patch.Video != nil {
		v := *patch.Video
		next.Video = &v
	}
	if patch.Refining != nil {
		next.Refining = *patch.Refining
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	*b = next
	return nil
}

// DeleteBlock xoá khối khỏi trang đang chọn, giữ thứ tự các khối còn lại.
// Gọi lại lần hai là no-op.
func (d *Document) DeleteBlock(id string) bool {
	m := d.activeModuleRef()
	if m == nil {
		return false
	}
	for i := range m.Blocks {
		if m.Blocks[i].ID == id {
			m.Blocks = append(m.Blocks[:i], m.Blocks[i+1:]...)
			return true
		}
	}
	return false
}

func defaultModule() models.Module {
	return models.Module{
		ID:       newID(),
		Title:    "New Page",
		Type:     models.ModuleMixed,
		Duration: "0 min",
		Blocks:   []models.ContentBlock{{ID: newID(), Type: models.BlockText}},
	}
}

// AddChapter thêm chương mới (một trang mặc định) và chọn trang đó
func (d *Document) AddChapter() string {
	m := defaultModule()
	ch := models.Chapter{
		ID:      newID(),
		Title:   "New Chapter",
		Modules: []models.Module{m},
	}
	d.course.Chapters = append(d.course.Chapters, ch)
	d.activeChapter = ch.ID
	d.activeModule = m.ID
	return ch.ID
}

// AddModule thêm trang mới (một khối text rỗng) vào chương và chọn trang đó
func (d *Document) AddModule(chapterID string) (string, error) {
	ch := d.chapter(chapterID)
	if ch == nil {
		return "", ErrChapterNotFound
	}
	m := defaultModule()
	ch.Modules = append(ch.Modules, m)
	d.activeChapter = ch.ID
	d.activeModule = m.ID
	return m.ID, nil
}

// DeleteChapter xoá chương cùng toàn bộ trang và khối bên trong
func (d *Document) DeleteChapter(id string) bool {
	for i := range d.course.Chapters {
		if d.course.Chapters[i].ID == id {
			d.course.Chapters = append(d.course.Chapters[:i], d.course.Chapters[i+1:]...)
			if d.activeChapter == id {
				d.activeChapter, d.activeModule = "", ""
			}
			return true
		}
	}
	return false
}

func (d *Document) DeleteModule(ref ModuleRef) bool {
	ch := d.chapter(ref.ChapterID)
	if ch == nil {
		return false
	}
	for i := range ch.Modules {
		if ch.Modules[i].ID == ref.ModuleID {
			ch.Modules = append(ch.Modules[:i], ch.Modules[i+1:]...)
			if d.activeModule == ref.ModuleID {
				d.activeModule = ""
			}
			return true
		}
	}
	return false
}

func (d *Document) UpdateChapter(id string, patch ChapterPatch) error {
	ch := d.chapter(id)
	if ch == nil {
		return ErrChapterNotFound
	}
	if patch.Title != nil {
		ch.Title = *patch.Title
	}
	if patch.SourceContent != nil {
		ch.SourceContent = *patch.SourceContent
	}
	return nil
}

func (d *Document) UpdateModule(ref ModuleRef, patch ModulePatch) error {
	m := d.module(ref)
	if m == nil {
		return ErrModuleNotFound
	}
	if patch.Type != nil && !patch.Type.Valid() {
		return fmt.Errorf("%w: unknown module type %q", ErrInvalidPatch, *patch.Type)
	}
	if patch.Title != nil {
		m.Title = *patch.Title
	}
	if patch.Type != nil {
		m.Type = *patch.Type
	}
	if patch.Duration != nil {
		m.Duration = *patch.Duration
	}
	if patch.Completed != nil {
		m.Completed = *patch.Completed
	}
	return nil
}

func (d *Document) UpdateCourse(patch CoursePatch) error {
	if patch.Category != nil && !patch.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidPatch, *patch.Category)
	}
	if patch.Difficulty != nil && !patch.Difficulty.Valid() {
		return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidPatch, *patch.Difficulty)
	}
	if patch.Title != nil {
		d.course.Title = *patch.Title
	}
	if patch.Description != nil {
		d.course.Description = *patch.Description
	}
	if patch.Category != nil {
		d.course.Category = *patch.Category
	}
	if patch.Difficulty != nil {
		d.course.Difficulty = *patch.Difficulty
	}
	if patch.Duration != nil {
		d.course.Duration = *patch.Duration
	}
	return nil
}

// SelectChapter chọn chương và bỏ chọn trang
func (d *Document) SelectChapter(id string) error {
	if d.chapter(id) == nil {
		return ErrChapterNotFound
	}
	d.activeChapter = id
	d.activeModule = ""
	return nil
}

func (d *Document) SelectModule(ref ModuleRef) error {
	if d.module(ref) == nil {
		return ErrModuleNotFound
	}
	d.activeChapter = ref.ChapterID
	d.activeModule = ref.ModuleID
	return nil
}

// SetCourseArea gắn khoá học vào khu vực; nil là Public
func (d *Document) SetCourseArea(areaID *uuid.UUID) {
	if areaID == nil || *areaID == uuid.Nil {
		d.course.AreaID = nil
		return
	}
	id := *areaID
	d.course.AreaID = &id
}
