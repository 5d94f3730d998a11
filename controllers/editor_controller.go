package controllers

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/services"
)

const statusOutlineFailed = "Could not generate an outline."

// ====== INPUT STRUCTS ======
type CreateSessionInput struct {
	CourseID *uuid.UUID     `json:"course_id"` // sửa khoá học đã có
	Topic    string         `json:"topic"`     // gợi ý khung bằng AI
	JobRole  models.JobRole `json:"job_role"`
}

type SelectInput struct {
	ChapterID string `json:"chapter_id" binding:"required"`
	ModuleID  string `json:"module_id"`
}

type AddBlockInput struct {
	Type    models.BlockType `json:"type" binding:"required"`
	Content string           `json:"content"`
}

// UpdateBlockInput: client chỉ sửa nội dung và slide; audio/video do AI quản lý
type UpdateBlockInput struct {
	Content *string            `json:"content"`
	Slides  *models.SlidesMeta `json:"slides"`
}

func (ctl *Controller) session(c *gin.Context) (*editor.Session, bool) {
	s, err := ctl.Sessions.Get(c.Param("id"))
	if err != nil {
		ctl.respondError(c, err)
		return nil, false
	}
	return s, true
}

// edit chạy fn trong phiên rồi trả về ảnh chụp phiên
func (ctl *Controller) edit(c *gin.Context, fn func(d *editor.Document) error) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	if err := s.Edit(fn); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s.View()})
}

func bindOptionalJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// POST /api/admin/editor/sessions
func (ctl *Controller) CreateSession(c *gin.Context) {
	var input CreateSessionInput
	if err := bindOptionalJSON(c, &input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ownerID, _ := middleware.UserIDFrom(c)
	ctx := c.Request.Context()

	course := editor.NewCourse()
	status := ""
	switch {
	case input.CourseID != nil:
		existing, err := ctl.Store.GetCourse(ctx, *input.CourseID)
		if err != nil {
			ctl.respondError(c, err)
			return
		}
		course = existing
	case strings.TrimSpace(input.Topic) != "" && ctl.Outliner != nil:
		role := input.JobRole
		if !role.Valid() {
			role = models.JobSiteEngineer
		}
		outline, err := ctl.Outliner.GenerateOutline(ctx, input.Topic, role)
		if err != nil || outline == nil {
			// không có khung thì vẫn mở phiên với khoá học trống
			ctl.Log.Warn("course outline failed", "topic", input.Topic, "error", err)
			status = statusOutlineFailed
			break
		}
		course = editor.CourseFromOutline(toOutline(*outline))
	}

	s := ctl.Sessions.Create(ownerID, course)
	if status != "" {
		s.SetStatus(status)
	}
	ctl.Log.Info("editor session opened", "session", s.ID, "owner", ownerID)
	c.JSON(http.StatusCreated, gin.H{"session": s.View()})
}

func toOutline(o services.CourseOutline) editor.Outline {
	out := editor.Outline{
		Title:       o.Title,
		Description: o.Description,
		Category:    o.Category,
		Difficulty:  o.Difficulty,
	}
	for _, m := range o.Modules {
		out.Modules = append(out.Modules, editor.OutlineModule{Title: m.Title, Duration: m.Duration})
	}
	return out
}

// GET /api/admin/editor/sessions/:id
func (ctl *Controller) GetSession(c *gin.Context) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s.View()})
}

// DELETE /api/admin/editor/sessions/:id: bỏ bản nháp, huỷ render đang chạy
func (ctl *Controller) CloseSession(c *gin.Context) {
	id := c.Param("id")
	if !ctl.Sessions.Close(id) {
		ctl.respondError(c, editor.ErrSessionNotFound)
		return
	}
	ctl.stopPlayback(id)
	c.JSON(http.StatusOK, gin.H{"message": "session closed"})
}

func (ctl *Controller) stopPlayback(sessionID string) {
	if cur, ok := ctl.Player.Current(); ok && cur.SessionID == sessionID {
		ctl.Player.Stop()
	}
}

// PATCH /sessions/:id/course
func (ctl *Controller) UpdateCourse(c *gin.Context) {
	var patch editor.CoursePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctl.edit(c, func(d *editor.Document) error {
		return d.UpdateCourse(patch)
	})
}

// PUT /sessions/:id/area: area_id null là Public
func (ctl *Controller) SetCourseArea(c *gin.Context) {
	var input UpdateAreaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	areaID, ok := ctl.areaRef(c, input.AreaID)
	if !ok {
		return
	}
	ctl.edit(c, func(d *editor.Document) error {
		d.SetCourseArea(areaID)
		return nil
	})
}

// ====== CHƯƠNG / TRANG ======

func (ctl *Controller) AddChapter(c *gin.Context) {
	ctl.edit(c, func(d *editor.Document) error {
		d.AddChapter()
		return nil
	})
}

func (ctl *Controller) UpdateChapter(c *gin.Context) {
	var patch editor.ChapterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	chapterID := c.Param("chapterId")
	ctl.edit(c, func(d *editor.Document) error {
		return d.UpdateChapter(chapterID, patch)
	})
}

// DeleteChapter xoá cả các trang bên trong; xoá id không tồn tại không lỗi
func (ctl *Controller) DeleteChapter(c *gin.Context) {
	chapterID := c.Param("chapterId")
	ctl.edit(c, func(d *editor.Document) error {
		d.DeleteChapter(chapterID)
		return nil
	})
}

func (ctl *Controller) AddModule(c *gin.Context) {
	chapterID := c.Param("chapterId")
	ctl.edit(c, func(d *editor.Document) error {
		_, err := d.AddModule(chapterID)
		return err
	})
}

func (ctl *Controller) UpdateModule(c *gin.Context) {
	var patch editor.ModulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ref := editor.ModuleRef{ChapterID: c.Param("chapterId"), ModuleID: c.Param("moduleId")}
	ctl.edit(c, func(d *editor.Document) error {
		return d.UpdateModule(ref, patch)
	})
}

func (ctl *Controller) DeleteModule(c *gin.Context) {
	ref := editor.ModuleRef{ChapterID: c.Param("chapterId"), ModuleID: c.Param("moduleId")}
	ctl.edit(c, func(d *editor.Document) error {
		d.DeleteModule(ref)
		return nil
	})
}

// PUT /sessions/:id/selection
func (ctl *Controller) Select(c *gin.Context) {
	var input SelectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctl.edit(c, func(d *editor.Document) error {
		// SelectModule đặt cả chương lẫn trang, lỗi thì giữ nguyên lựa chọn cũ
		if input.ModuleID != "" {
			return d.SelectModule(editor.ModuleRef{ChapterID: input.ChapterID, ModuleID: input.ModuleID})
		}
		return d.SelectChapter(input.ChapterID)
	})
}

// POST /sessions/:id/chapters/:chapterId/source: tài liệu nguồn (pdf/docx/txt) hoặc text
func (ctl *Controller) UploadSource(c *gin.Context) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	chapterID := c.Param("chapterId")

	var input services.InputSource
	if fh, err := c.FormFile("file"); err == nil {
		input, err = services.SourceFromUpload(fh, ctl.MaxUploadBytes)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	} else if text := c.PostForm("text"); strings.TrimSpace(text) != "" {
		input = services.InputSource{Type: services.InputText, Text: text}
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file or text is required"})
		return
	}

	// trích và làm sạch ngoài khoá phiên
	source, err := services.PrepareSource(c.Request.Context(), input, ctl.Cleaner)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err := s.Edit(func(d *editor.Document) error {
		return d.UpdateChapter(chapterID, editor.ChapterPatch{SourceContent: &source})
	}); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": len([]rune(source)), "session": s.View()})
}

// ====== KHỐI NỘI DUNG ======

// POST /sessions/:id/blocks: chưa chọn trang thì trả added=false
func (ctl *Controller) AddBlock(c *gin.Context) {
	var input AddBlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	switch input.Type {
	case models.BlockHeading, models.BlockSubheading, models.BlockText, models.BlockCallout, models.BlockImage:
	case models.BlockAudio, models.BlockSlides, models.BlockVideo:
		c.JSON(http.StatusBadRequest, gin.H{"error": "use the generate endpoints for " + string(input.Type) + " blocks"})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block type"})
		return
	}
	ctl.addBlock(c, input.Type, input.Content)
}

func (ctl *Controller) addBlock(c *gin.Context, typ models.BlockType, content string) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	var (
		id    string
		added bool
	)
	if err := s.Edit(func(d *editor.Document) error {
		id, added = d.AddBlock(typ, content, editor.BlockMeta{})
		return nil
	}); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "block_id": id, "session": s.View()})
}

// PATCH /sessions/:id/blocks/:blockId: chỉ khối thuộc trang đang chọn
func (ctl *Controller) UpdateBlock(c *gin.Context) {
	var input UpdateBlockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	blockID := c.Param("blockId")
	ctl.edit(c, func(d *editor.Document) error {
		return d.UpdateBlock(blockID, editor.BlockPatch{Content: input.Content, Slides: input.Slides})
	})
}

func (ctl *Controller) DeleteBlock(c *gin.Context) {
	blockID := c.Param("blockId")
	ctl.edit(c, func(d *editor.Document) error {
		d.DeleteBlock(blockID)
		return nil
	})
}

// POST /sessions/:id/images: tải ảnh lên storage rồi thêm khối image
func (ctl *Controller) UploadImage(c *gin.Context) {
	if ctl.Images == nil {
		notConfigured(c, "media storage")
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if _, err := ctl.Sessions.Get(c.Param("id")); err != nil {
		ctl.respondError(c, err)
		return
	}
	url, err := ctl.Images.UploadImage(c.Request.Context(), fh, ctl.MaxUploadBytes)
	if err != nil {
		ctl.Log.Warn("image upload failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctl.addBlock(c, models.BlockImage, url)
}

// ====== AI ======

// POST /sessions/:id/generate/:kind (text|podcast|slides|video)
func (ctl *Controller) Generate(c *gin.Context) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var res editor.Result
	switch c.Param("kind") {
	case "text":
		res = ctl.Engine.GenerateTextBlock(ctx, s)
	case "podcast":
		res = ctl.Engine.GeneratePodcastBlock(ctx, s)
	case "slides":
		res = ctl.Engine.GenerateSlidesBlock(ctx, s)
	case "video":
		res = ctl.Engine.GenerateVideoBlock(ctx, s)
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown generation kind"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": res.OK, "result": res, "session": s.View()})
}

// POST /sessions/:id/blocks/:blockId/refine
func (ctl *Controller) RefineBlock(c *gin.Context) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	res, err := ctl.Engine.RefineBlock(c.Request.Context(), s, c.Param("blockId"))
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res, "session": s.View()})
}

// GET /sessions/:id/renders?handle=
func (ctl *Controller) GetRender(c *gin.Context) {
	handle := c.Query("handle")
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}
	st, err := ctl.Renders.Status(c.Request.Context(), handle)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	if st.SessionID != c.Param("id") {
		ctl.respondError(c, editor.ErrRenderNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": st})
}

// DELETE /sessions/:id/renders?handle=
func (ctl *Controller) CancelRender(c *gin.Context) {
	handle := c.Query("handle")
	if handle == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "handle is required"})
		return
	}
	if st, err := ctl.Renders.Status(c.Request.Context(), handle); err == nil && st.SessionID != c.Param("id") {
		ctl.respondError(c, editor.ErrRenderNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": ctl.Renders.Cancel(handle)})
}

// ====== PHÁT AUDIO ======

// POST /sessions/:id/blocks/:blockId/play: bấm lại đúng khối đang phát thì dừng.
// Trả về luồng MP3 cho tới khi phát xong hoặc bị khối khác thay thế.
func (ctl *Controller) PlayAudio(c *gin.Context) {
	s, ok := ctl.session(c)
	if !ok {
		return
	}
	blockID := c.Param("blockId")

	var (
		block models.ContentBlock
		found bool
	)
	s.Read(func(d *editor.Document) {
		block, found = d.Block(blockID)
	})
	if !found {
		ctl.respondError(c, editor.ErrBlockNotFound)
		return
	}
	data, err := editor.DecodeAudio(block)
	if errors.Is(err, editor.ErrNoAudio) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.SetStatus(editor.StatusDecodeFailed)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": editor.StatusDecodeFailed})
		return
	}

	h := ctl.Player.Toggle(s.ID, blockID)
	if h == nil {
		c.JSON(http.StatusOK, gin.H{"playing": false})
		return
	}
	defer ctl.Player.Finish(h)

	mime := block.Audio.MimeType
	if mime == "" {
		mime = "audio/mpeg"
	}
	c.Header("Content-Type", mime)
	c.Status(http.StatusOK)

	reader := bytes.NewReader(data)
	buf := make([]byte, 32<<10)
	for {
		select {
		case <-h.Done():
			return
		case <-c.Request.Context().Done():
			return
		default:
		}
		n, err := reader.Read(buf)
		if n > 0 {
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				return
			}
			c.Writer.Flush()
		}
		if err != nil {
			return
		}
	}
}

// GET /api/admin/editor/player
func (ctl *Controller) CurrentPlayback(c *gin.Context) {
	cur, ok := ctl.Player.Current()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"playing": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"playing": true, "data": cur})
}

// DELETE /api/admin/editor/player
func (ctl *Controller) StopPlayback(c *gin.Context) {
	ctl.Player.Stop()
	c.JSON(http.StatusOK, gin.H{"playing": false})
}

// ====== XUẤT BẢN ======

// POST /sessions/:id/publish: lưu khoá học rồi đóng phiên
func (ctl *Controller) PublishCourse(c *gin.Context) {
	id := c.Param("id")
	course, err := editor.Publish(c.Request.Context(), ctl.Sessions, ctl.Store, id)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	ctl.stopPlayback(id)
	ctl.Log.Info("course published", "course_id", course.ID, "session", id)
	c.JSON(http.StatusCreated, gin.H{"message": "course published", "data": course})
}
