package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	texttospeechpb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/vnkhanh/scl-academy-backend/logger"
)

const (
	SpeakerExpert = "Expert"
	SpeakerHost   = "Host"

	// Dưới ngưỡng 5000 bytes của Cloud TTS
	maxChunkBytes  = 4500
	synthesisLimit = 4
)

var ErrEmptyScript = errors.New("script has no spoken lines")

// SpeechConfig chọn ngôn ngữ và giọng cho hai người nói
type SpeechConfig struct {
	CredentialsFile string
	LanguageCode    string
	ExpertVoice     string
	HostVoice       string
}

// SpeechService bọc Cloud Text-to-Speech
type SpeechService struct {
	client *texttospeech.Client
	cfg    SpeechConfig
	log    *logger.Logger
}

func NewSpeechService(ctx context.Context, cfg SpeechConfig, log *logger.Logger) (*SpeechService, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create tts client: %w", err)
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	if cfg.ExpertVoice == "" {
		cfg.ExpertVoice = "en-US-Chirp3-HD-Fenrir"
	}
	if cfg.HostVoice == "" {
		cfg.HostVoice = "en-US-Chirp3-HD-Kore"
	}
	return &SpeechService{client: client, cfg: cfg, log: log.With("service", "SpeechService")}, nil
}

func (s *SpeechService) Close() error {
	return s.client.Close()
}

// ScriptLine là một câu thoại đã tách người nói
type ScriptLine struct {
	Speaker string
	Text    string
}

var reSpeaker = regexp.MustCompile(`^\**\s*(Expert|Host)\s*\**\s*:\s*\**\s*(.*)$`)

// ParseScript tách kịch bản "Expert: ..." / "Host: ...".
// Dòng không có tiền tố được nối vào câu thoại trước (mặc định Expert).
func ParseScript(script string) []ScriptLine {
	var lines []ScriptLine
	for _, raw := range strings.Split(script, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if m := reSpeaker.FindStringSubmatch(line); m != nil {
			text := strings.TrimSpace(strings.Trim(m[2], "*"))
			if text != "" {
				lines = append(lines, ScriptLine{Speaker: m[1], Text: text})
			}
			continue
		}
		if len(lines) == 0 {
			lines = append(lines, ScriptLine{Speaker: SpeakerExpert, Text: line})
			continue
		}
		lines[len(lines)-1].Text += " " + line
	}
	return lines
}

// SynthesizeDialogue đọc kịch bản hai giọng, trả về MP3 đã nối
func (s *SpeechService) SynthesizeDialogue(ctx context.Context, script string) ([]byte, error) {
	lines := ParseScript(script)
	if len(lines) == 0 {
		return nil, ErrEmptyScript
	}

	parts := make([][]byte, len(lines))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(synthesisLimit)
	for i, l := range lines {
		voice := s.cfg.ExpertVoice
		if l.Speaker == SpeakerHost {
			voice = s.cfg.HostVoice
		}
		g.Go(func() error {
			audio, err := s.synthesize(gctx, l.Text, voice, 1.0)
			if err != nil {
				return fmt.Errorf("line %d (%s): %w", i+1, l.Speaker, err)
			}
			parts[i] = audio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("dialogue synthesis failed", "lines", len(lines), "error", err)
		return nil, err
	}

	var all []byte
	for _, p := range parts {
		all = append(all, p...)
	}
	return all, nil
}

// SynthesizeText đọc một đoạn text bằng một giọng
func (s *SpeechService) SynthesizeText(ctx context.Context, text, voice string, rate float64) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text is empty")
	}
	if voice == "" {
		voice = s.cfg.ExpertVoice
	}
	if rate <= 0 {
		rate = 1.0
	}
	return s.synthesize(ctx, text, voice, rate)
}

func (s *SpeechService) synthesize(ctx context.Context, text, voice string, rate float64) ([]byte, error) {
	chunks := splitTextToChunksByByte(text, maxChunkBytes)
	var allAudio []byte

	for idx, chunk := range chunks {
		s.log.Debug("synthesizing chunk", "chunk", idx+1, "of", len(chunks), "bytes", len(chunk))

		req := &texttospeechpb.SynthesizeSpeechRequest{
			Input: &texttospeechpb.SynthesisInput{
				InputSource: &texttospeechpb.SynthesisInput_Text{
					Text: chunk,
				},
			},
			Voice: &texttospeechpb.VoiceSelectionParams{
				LanguageCode: s.cfg.LanguageCode,
				Name:         voice,
			},
			AudioConfig: &texttospeechpb.AudioConfig{
				AudioEncoding: texttospeechpb.AudioEncoding_MP3,
				SpeakingRate:  rate,
			},
		}

		resp, err := s.client.SynthesizeSpeech(ctx, req)
		if err != nil {
			return nil, err
		}
		allAudio = append(allAudio, resp.AudioContent...)
	}

	return allAudio, nil
}

// splitTextToChunksByByte chia text theo giới hạn byte + dấu câu
func splitTextToChunksByByte(text string, maxBytes int) []string {
	var chunks []string
	remaining := text

	for len(remaining) > 0 {
		if len(remaining) <= maxBytes {
			chunks = append(chunks, remaining)
			break
		}

		cutPos := maxBytes
		// Tìm dấu câu trong đoạn cắt được
		for i := cutPos; i > 0; i-- {
			if remaining[i-1] == '.' || remaining[i-1] == '!' || remaining[i-1] == '?' || remaining[i-1] == '\n' {
				cutPos = i
				break
			}
		}

		// Không cắt giữa ký tự UTF-8
		for cutPos < len(remaining) && (remaining[cutPos]&0xC0) == 0x80 {
			cutPos++
		}

		chunks = append(chunks, remaining[:cutPos])
		remaining = remaining[cutPos:]
	}

	return chunks
}
