package models

import (
	"errors"
	"fmt"
)

type BlockType string

const (
	BlockHeading    BlockType = "heading"
	BlockSubheading BlockType = "subheading"
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockAudio      BlockType = "audio"
	BlockSlides     BlockType = "slides"
	BlockCallout    BlockType = "callout"
	BlockVideo      BlockType = "video"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockHeading, BlockSubheading, BlockText, BlockImage, BlockAudio, BlockSlides, BlockCallout, BlockVideo:
		return true
	}
	return false
}

// Refinable: các khối văn bản có thể nhờ AI viết lại
func (t BlockType) Refinable() bool {
	switch t {
	case BlockHeading, BlockSubheading, BlockText, BlockCallout:
		return true
	}
	return false
}

// ContentBlock là một khối nội dung. Content là payload chính (văn bản, URL hoặc kịch bản);
// metadata theo từng loại khối nằm trong đúng một trong Audio/Slides/Video.
type ContentBlock struct {
	ID       string      `json:"id"`
	Type     BlockType   `json:"type"`
	Content  string      `json:"content"`
	Audio    *AudioMeta  `json:"audio,omitempty"`
	Slides   *SlidesMeta `json:"slides,omitempty"`
	Video    *VideoMeta  `json:"video,omitempty"`
	Refining bool        `json:"is_refining,omitempty"`
}

type AudioMeta struct {
	Data            string  `json:"data"` // base64
	DurationSeconds float64 `json:"duration_seconds"`
	MimeType        string  `json:"mime_type"`
}

type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
}

type SlidesMeta struct {
	Slides []Slide `json:"slides"`
}

type VideoState string

const (
	VideoLoading VideoState = "loading"
	VideoReady   VideoState = "ready"
	VideoFailed  VideoState = "failed"
)

type VideoMeta struct {
	State  VideoState `json:"state"`
	Handle string     `json:"handle,omitempty"` // mã thao tác render
	Error  string     `json:"error,omitempty"`
}

var ErrInvalidBlock = errors.New("invalid content block")

// Validate kiểm tra metadata khớp với loại khối
func (b ContentBlock) Validate() error {
	if !b.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidBlock, b.Type)
	}
	if b.Audio != nil && b.Type != BlockAudio {
		return fmt.Errorf("%w: audio metadata on %s block", ErrInvalidBlock, b.Type)
	}
	if b.Slides != nil && b.Type != BlockSlides {
		return fmt.Errorf("%w: slides metadata on %s block", ErrInvalidBlock, b.Type)
	}
	if b.Video != nil {
		if b.Type != BlockVideo {
			return fmt.Errorf("%w: video metadata on %s block", ErrInvalidBlock, b.Type)
		}
		switch b.Video.State {
		case VideoLoading, VideoReady, VideoFailed:
		default:
			return fmt.Errorf("%w: unknown video state %q", ErrInvalidBlock, b.Video.State)
		}
	}
	if b.Refining && !b.Type.Refinable() {
		return fmt.Errorf("%w: %s block cannot be refined", ErrInvalidBlock, b.Type)
	}
	return nil
}

func (b ContentBlock) Clone() ContentBlock {
	out := b
	if b.Audio != nil {
		a := *b.Audio
		out.Audio = &a
	}
	if b.Slides != nil {
		s := SlidesMeta{Slides: make([]Slide, len(b.Slides.Slides))}
		for i, sl := range b.Slides.Slides {
			s.Slides[i] = Slide{Title: sl.Title, Bullets: append([]string(nil), sl.Bullets...)}
		}
		out.Slides = &s
	}
	if b.Video != nil {
		v := *b.Video
		out.Video = &v
	}
	return out
}
