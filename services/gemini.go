package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
)

// ErrEmptyResponse khi Gemini trả về nhưng không có text dùng được
var ErrEmptyResponse = errors.New("gemini returned no usable content")

// GeminiService gom mọi lời gọi Gemini (text, script, slides, refine, chat, outline, clean)
type GeminiService struct {
	client  *genai.Client
	model   string
	prompts *Prompts
	log     *logger.Logger
}

func NewGeminiService(ctx context.Context, apiKey, model string, prompts *Prompts, log *logger.Logger) (*GeminiService, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiService{
		client:  client,
		model:   model,
		prompts: prompts,
		log:     log.With("service", "GeminiService"),
	}, nil
}

func (g *GeminiService) Close() error {
	return g.client.Close()
}

// GenerateText sinh một đoạn văn ~100 từ về topic
func (g *GeminiService) GenerateText(ctx context.Context, topic, sourceContext string) (string, error) {
	prompt, err := g.prompts.Render("text", PromptInput{Topic: topic, Context: sourceContext})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, g.client.GenerativeModel(g.model), prompt)
}

// DraftScript sinh kịch bản podcast dạng "Expert: ..." / "Host: ..."
func (g *GeminiService) DraftScript(ctx context.Context, topic, sourceContext string) (string, error) {
	prompt, err := g.prompts.Render("script", PromptInput{Topic: topic, Context: sourceContext})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, g.client.GenerativeModel(g.model), prompt)
}

// RenderSlides trả về danh sách slide theo JSON schema cố định
func (g *GeminiService) RenderSlides(ctx context.Context, topic, sourceContext string) ([]models.Slide, error) {
	prompt, err := g.prompts.Render("slides", PromptInput{Topic: topic, Context: sourceContext})
	if err != nil {
		return nil, err
	}
	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"slides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":   {Type: genai.TypeString},
						"bullets": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					},
					Required: []string{"title", "bullets"},
				},
			},
		},
		Required: []string{"slides"},
	}

	raw, err := g.generate(ctx, m, prompt)
	if err != nil {
		return nil, err
	}
	return ParseSlides(raw)
}

// ParseSlides đọc JSON {"slides":[{"title","bullets"}]}
func ParseSlides(raw string) ([]models.Slide, error) {
	var out struct {
		Slides []models.Slide `json:"slides"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("decode slides: %w", err)
	}
	return out.Slides, nil
}

// Refine viết lại text cho chuyên nghiệp hơn
func (g *GeminiService) Refine(ctx context.Context, text string) (string, error) {
	prompt, err := g.prompts.Render("refine", PromptInput{Text: text})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, g.client.GenerativeModel(g.model), prompt)
}

// ChatMessage là một lượt hội thoại với tutor; Role là "user" hoặc "model"
type ChatMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// Chat gửi tin nhắn mới kèm lịch sử, context đi vào system instruction
func (g *GeminiService) Chat(ctx context.Context, history []ChatMessage, message, userContext string) (string, error) {
	system, err := g.prompts.Render("chat_system", PromptInput{Context: userContext})
	if err != nil {
		return "", err
	}
	m := g.client.GenerativeModel(g.model)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	cs := m.StartChat()
	for _, h := range history {
		role := "user"
		if h.Role == "model" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(h.Text)}})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(message))
	if err != nil {
		return "", fmt.Errorf("gemini chat: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CourseOutline là khung khoá học do AI gợi ý
type CourseOutline struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Category    models.Category   `json:"category"`
	Difficulty  models.Difficulty `json:"difficulty"`
	Modules     []OutlineModule   `json:"modules"`
}

type OutlineModule struct {
	Title    string `json:"title"`
	Duration string `json:"duration"`
}

// GenerateOutline gợi ý khung khoá học theo topic và vai trò nghề nghiệp
func (g *GeminiService) GenerateOutline(ctx context.Context, topic string, role models.JobRole) (*CourseOutline, error) {
	prompt, err := g.prompts.Render("outline", PromptInput{Topic: topic, Role: string(role)})
	if err != nil {
		return nil, err
	}
	m := g.client.GenerativeModel(g.model)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString},
			"description": {Type: genai.TypeString},
			"category": {
				Type: genai.TypeString,
				Enum: []string{"Sustainability", "Logistics", "Safety", "Compliance", "Innovation"},
			},
			"difficulty": {
				Type: genai.TypeString,
				Enum: []string{"Beginner", "Intermediate", "Advanced"},
			},
			"modules": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":    {Type: genai.TypeString},
						"duration": {Type: genai.TypeString},
					},
				},
			},
		},
		Required: []string{"title", "modules"},
	}

	raw, err := g.generate(ctx, m, prompt)
	if err != nil {
		return nil, err
	}
	var out CourseOutline
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &out); err != nil {
		return nil, fmt.Errorf("decode outline: %w", err)
	}
	return &out, nil
}

// CleanSource nhờ Gemini làm sạch văn bản trích từ tài liệu
func (g *GeminiService) CleanSource(ctx context.Context, text string) (string, error) {
	prompt, err := g.prompts.Render("clean", PromptInput{Text: text})
	if err != nil {
		return "", err
	}
	return g.generate(ctx, g.client.GenerativeModel(g.model), prompt)
}

// VideoPrompt render prompt cho Veo
func (g *GeminiService) VideoPrompt(topic string) (string, error) {
	return g.prompts.Render("video", PromptInput{Topic: topic})
}

func (g *GeminiService) generate(ctx context.Context, m *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.log.Warn("gemini request failed", "model", g.model, "error", err)
		return "", fmt.Errorf("gemini: %w", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}

// Model đôi khi vẫn bọc JSON trong ```json ... ```
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
