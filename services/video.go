package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	veo "google.golang.org/genai"

	"github.com/vnkhanh/scl-academy-backend/logger"
)

var ErrNoVideo = errors.New("video operation finished without a video")

// MediaUploader là nơi lưu video đã render (Supabase)
type MediaUploader interface {
	Upload(ctx context.Context, folder, ext string, data []byte, contentType string) (string, error)
}

// VideoService gọi Veo qua Gemini API, render dài nên tách start/poll
type VideoService struct {
	client   *veo.Client
	model    string
	apiKey   string
	prompts  *Prompts
	uploader MediaUploader
	http     *http.Client
	log      *logger.Logger
}

func NewVideoService(ctx context.Context, apiKey, model string, prompts *Prompts, uploader MediaUploader, log *logger.Logger) (*VideoService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := veo.NewClient(ctx, &veo.ClientConfig{
		APIKey:  apiKey,
		Backend: veo.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create video client: %w", err)
	}
	if model == "" {
		model = "veo-3.1-fast-generate-preview"
	}
	return &VideoService{
		client:   client,
		model:    model,
		apiKey:   apiKey,
		prompts:  prompts,
		uploader: uploader,
		http:     &http.Client{Timeout: 5 * time.Minute},
		log:      log.With("service", "VideoService"),
	}, nil
}

// StartRender gửi yêu cầu render theo topic, trả về handle của operation
func (v *VideoService) StartRender(ctx context.Context, topic string) (string, error) {
	prompt, err := v.prompts.Render("video", PromptInput{Topic: topic})
	if err != nil {
		return "", err
	}
	op, err := v.client.Models.GenerateVideos(ctx, v.model, prompt, nil, &veo.GenerateVideosConfig{
		NumberOfVideos: 1,
		AspectRatio:    "16:9",
	})
	if err != nil {
		return "", fmt.Errorf("start video render: %w", err)
	}
	if op == nil || op.Name == "" {
		return "", errors.New("video render returned no operation handle")
	}
	return op.Name, nil
}

// PollRender hỏi trạng thái một lần.
// done=false, err!=nil: lỗi tạm thời, có thể hỏi lại. done=true, err!=nil: render thất bại hẳn.
func (v *VideoService) PollRender(ctx context.Context, handle string) (string, bool, error) {
	op, err := v.client.Operations.GetVideosOperation(ctx, &veo.GenerateVideosOperation{Name: handle}, nil)
	if err != nil {
		return "", false, fmt.Errorf("poll video render: %w", err)
	}
	if !op.Done {
		return "", false, nil
	}
	if len(op.Error) > 0 {
		return "", true, fmt.Errorf("video render failed: %v", op.Error["message"])
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 ||
		op.Response.GeneratedVideos[0].Video == nil || op.Response.GeneratedVideos[0].Video.URI == "" {
		return "", true, ErrNoVideo
	}

	playable, err := v.playableURL(ctx, op.Response.GeneratedVideos[0].Video.URI)
	if err != nil {
		return "", true, err
	}
	return playable, true, nil
}

// playableURL tải video về (key đi trong header) rồi lưu lên storage.
// Không có storage thì gắn key vào URL để client phát trực tiếp.
func (v *VideoService) playableURL(ctx context.Context, uri string) (string, error) {
	if v.uploader == nil {
		v.log.Warn("media storage disabled, video url carries the api key")
		return withKey(uri, v.apiKey)
	}

	data, err := v.download(ctx, uri)
	if err != nil {
		return "", err
	}
	publicURL, err := v.uploader.Upload(ctx, "videos", ".mp4", data, "video/mp4")
	if err != nil {
		return "", fmt.Errorf("store video: %w", err)
	}
	return publicURL, nil
}

func (v *VideoService) download(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-goog-api-key", v.apiKey)
	resp, err := v.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download video: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download video: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func withKey(uri, key string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse video uri: %w", err)
	}
	q := u.Query()
	q.Set("key", key)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
