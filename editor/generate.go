package editor

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
)

// Generator là phần văn bản của AI gateway
type Generator interface {
	GenerateText(ctx context.Context, topic, sourceContext string) (string, error)
	DraftScript(ctx context.Context, topic, sourceContext string) (string, error)
	RenderSlides(ctx context.Context, topic, sourceContext string) ([]models.Slide, error)
	Refine(ctx context.Context, text string) (string, error)
}

// Synthesizer đọc kịch bản hai giọng thành MP3
type Synthesizer interface {
	SynthesizeDialogue(ctx context.Context, script string) ([]byte, error)
}

// VideoRenderer render video bất đồng bộ theo handle.
// PollRender: done=false kèm err là lỗi tạm thời; done=true kèm err là thất bại hẳn.
type VideoRenderer interface {
	StartRender(ctx context.Context, topic string) (string, error)
	PollRender(ctx context.Context, handle string) (url string, done bool, err error)
}

// DurationProbe tính thời lượng (giây) của audio
type DurationProbe func(audio []byte) (float64, error)

const (
	StatusWriting        = "Writing content..."
	StatusDrafting       = "Drafting script..."
	StatusRecording      = "Recording audio..."
	StatusDesigning      = "Designing slides..."
	StatusStartingVideo  = "Starting video render..."
	StatusRefining       = "Refining text..."
	StatusDone           = "Done."
	StatusTextFailed     = "Could not generate text."
	StatusScriptFailed   = "Could not draft a script."
	StatusAudioFailed    = "Could not record audio."
	StatusDecodeFailed   = "Error decoding audio."
	StatusSlidesFailed   = "Could not design slides."
	StatusVideoFailed    = "Video generation failed."
	StatusRefineFailed   = "Could not refine text."
	StatusNotConfigured  = "AI generation is not configured."
	StatusNothingToShape = "Block has no text to refine."
	StatusTargetRemoved  = "Target page was removed."
)

var errNotConfigured = errors.New("gateway not configured")

// Engine điều phối các lời gọi AI và áp kết quả vào phiên.
// Gateway nào nil thì thao tác tương ứng luôn thất bại với StatusNotConfigured.
type Engine struct {
	gen     Generator
	speech  Synthesizer
	video   VideoRenderer
	renders *RenderTracker
	probe   DurationProbe
	log     *logger.Logger
}

func NewEngine(gen Generator, speech Synthesizer, video VideoRenderer, renders *RenderTracker, probe DurationProbe, log *logger.Logger) *Engine {
	return &Engine{
		gen:     gen,
		speech:  speech,
		video:   video,
		renders: renders,
		probe:   probe,
		log:     log.With("service", "EditorEngine"),
	}
}

func (e *Engine) finish(s *Session, o Outcome) Result {
	id, landed := s.Apply(o)
	if o.Failed != "" {
		return Result{OK: false, Status: o.Failed}
	}
	if !landed {
		// trang đích hoặc khối đã bị xoá trong lúc chờ
		return Result{OK: false, Status: StatusTargetRemoved}
	}
	if id == "" {
		id = o.PatchID
	}
	return Result{OK: true, BlockID: id, Status: o.Status}
}

// GenerateTextBlock sinh một đoạn văn và nối vào trang đang chọn
func (e *Engine) GenerateTextBlock(ctx context.Context, s *Session) Result {
	g, ok := s.begin(StatusWriting)
	if !ok {
		return Result{}
	}
	defer s.end()

	text, err := e.generateText(ctx, g)
	if err != nil || strings.TrimSpace(text) == "" {
		e.log.Warn("text generation failed", "session", s.ID, "topic", g.topic, "error", err)
		return e.finish(s, Failed(failureStatus(err, StatusTextFailed)))
	}
	return e.finish(s, Appended(g.target, models.ContentBlock{Type: models.BlockText, Content: text}, StatusDone))
}

func (e *Engine) generateText(ctx context.Context, g generation) (string, error) {
	if e.gen == nil {
		return "", errNotConfigured
	}
	return e.gen.GenerateText(ctx, g.topic, g.source)
}

// GeneratePodcastBlock: kịch bản rồi audio. Kịch bản lỗi thì không gọi TTS.
func (e *Engine) GeneratePodcastBlock(ctx context.Context, s *Session) Result {
	g, ok := s.begin(StatusDrafting)
	if !ok {
		return Result{}
	}
	defer s.end()

	if e.gen == nil || e.speech == nil {
		return e.finish(s, Failed(StatusNotConfigured))
	}
	script, err := e.gen.DraftScript(ctx, g.topic, g.source)
	if err != nil || strings.TrimSpace(script) == "" {
		e.log.Warn("script drafting failed", "session", s.ID, "topic", g.topic, "error", err)
		return e.finish(s, Failed(StatusScriptFailed))
	}

	s.SetStatus(StatusRecording)
	audio, err := e.speech.SynthesizeDialogue(ctx, script)
	if err != nil || len(audio) == 0 {
		e.log.Warn("speech synthesis failed", "session", s.ID, "error", err)
		return e.finish(s, Failed(StatusAudioFailed))
	}

	duration, err := e.probe(audio)
	if err != nil {
		e.log.Warn("audio decode failed", "session", s.ID, "bytes", len(audio), "error", err)
		return e.finish(s, Failed(StatusDecodeFailed))
	}

	return e.finish(s, Appended(g.target, models.ContentBlock{
		Type:    models.BlockAudio,
		Content: script,
		Audio: &models.AudioMeta{
			Data:            base64.StdEncoding.EncodeToString(audio),
			DurationSeconds: duration,
			MimeType:        "audio/mpeg",
		},
	}, StatusDone))
}

// GenerateSlidesBlock: bộ slide rỗng coi như thất bại
func (e *Engine) GenerateSlidesBlock(ctx context.Context, s *Session) Result {
	g, ok := s.begin(StatusDesigning)
	if !ok {
		return Result{}
	}
	defer s.end()

	if e.gen == nil {
		return e.finish(s, Failed(StatusNotConfigured))
	}
	slides, err := e.gen.RenderSlides(ctx, g.topic, g.source)
	if err != nil || len(slides) == 0 {
		e.log.Warn("slide generation failed", "session", s.ID, "topic", g.topic, "error", err)
		return e.finish(s, Failed(StatusSlidesFailed))
	}
	return e.finish(s, Appended(g.target, models.ContentBlock{
		Type:    models.BlockSlides,
		Content: "Summary Deck",
		Slides:  &models.SlidesMeta{Slides: slides},
	}, StatusDone))
}

// GenerateVideoBlock thêm khối video "loading" ngay, rồi theo dõi render ở nền.
// Khối được cập nhật thành ready(url) hoặc failed khi render kết thúc.
func (e *Engine) GenerateVideoBlock(ctx context.Context, s *Session) Result {
	g, ok := s.begin(StatusStartingVideo)
	if !ok {
		return Result{}
	}
	defer s.end()

	blockID, landed := s.Apply(Appended(g.target, models.ContentBlock{
		Type:  models.BlockVideo,
		Video: &models.VideoMeta{State: models.VideoLoading},
	}, StatusStartingVideo))
	if !landed {
		return Result{Status: StatusTargetRemoved}
	}

	if e.video == nil || e.renders == nil {
		return e.finish(s, videoFailed(blockID, StatusNotConfigured))
	}
	handle, err := e.video.StartRender(ctx, g.topic)
	if err != nil || handle == "" {
		e.log.Warn("video render start failed", "session", s.ID, "topic", g.topic, "error", err)
		return e.finish(s, videoFailed(blockID, StatusVideoFailed))
	}

	if res := e.finish(s, Patched(blockID, BlockPatch{
		Video: &models.VideoMeta{State: models.VideoLoading, Handle: handle},
	}, StatusStartingVideo)); !res.OK {
		return res
	}
	e.renders.Track(s, blockID, handle)
	return Result{OK: true, BlockID: blockID, Status: StatusStartingVideo}
}

func videoFailed(blockID, reason string) Outcome {
	empty := ""
	return Patched(blockID, BlockPatch{
		Content: &empty,
		Video:   &models.VideoMeta{State: models.VideoFailed, Error: reason},
	}, "").FailedWith(reason)
}

// RefineBlock nhờ AI viết lại nội dung khối. Lỗi thì giữ nguyên nội dung.
// is_refining bật trong suốt lời gọi; không chặn yêu cầu lặp.
func (e *Engine) RefineBlock(ctx context.Context, s *Session, blockID string) (Result, error) {
	var (
		content string
		found   bool
	)
	s.Read(func(d *Document) {
		var b models.ContentBlock
		b, found = d.Block(blockID)
		content = b.Content
		if found && !b.Type.Refinable() {
			found = false
		}
	})
	if !found {
		return Result{}, ErrBlockNotFound
	}
	if strings.TrimSpace(content) == "" {
		return Result{Status: StatusNothingToShape}, nil
	}

	on, off := true, false
	if _, landed := s.Apply(Patched(blockID, BlockPatch{Refining: &on}, StatusRefining)); !landed {
		return Result{Status: StatusTargetRemoved}, nil
	}
	s.hold()
	defer s.end()

	var (
		refined string
		err     error
	)
	if e.gen == nil {
		err = errNotConfigured
	} else {
		refined, err = e.gen.Refine(ctx, content)
	}
	if err != nil || strings.TrimSpace(refined) == "" {
		e.log.Warn("refine failed", "session", s.ID, "block", blockID, "error", err)
		return e.finish(s, Patched(blockID, BlockPatch{Refining: &off}, "").
			FailedWith(failureStatus(err, StatusRefineFailed))), nil
	}
	return e.finish(s, Patched(blockID, BlockPatch{Content: &refined, Refining: &off}, StatusDone)), nil
}

func failureStatus(err error, fallback string) string {
	if errors.Is(err, errNotConfigured) {
		return StatusNotConfigured
	}
	return fallback
}
