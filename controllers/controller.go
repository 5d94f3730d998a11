package controllers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"cloud.google.com/go/auth/credentials/idtoken"
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/scl-academy-backend/catalog"
	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/services"
	"github.com/vnkhanh/scl-academy-backend/store"
	"github.com/vnkhanh/scl-academy-backend/utils"
	"github.com/vnkhanh/scl-academy-backend/ws"
)

// Tutor là phần chat của AI gateway
type Tutor interface {
	Chat(ctx context.Context, history []services.ChatMessage, message, userContext string) (string, error)
}

// Outliner gợi ý khung khoá học khi mở phiên mới
type Outliner interface {
	GenerateOutline(ctx context.Context, topic string, role models.JobRole) (*services.CourseOutline, error)
}

// Speech là dịch vụ đọc văn bản
type Speech interface {
	SynthesizeDialogue(ctx context.Context, script string) ([]byte, error)
	SynthesizeText(ctx context.Context, text, voice string, rate float64) ([]byte, error)
}

// ImageUploader lưu ảnh cho khối image
type ImageUploader interface {
	UploadImage(ctx context.Context, fh *multipart.FileHeader, maxBytes int64) (string, error)
}

// GoogleVerifier xác minh id_token Google, trả về email và tên
type GoogleVerifier func(ctx context.Context, token, audience string) (email, name string, err error)

// Deps là các thành phần controller cần. Gateway AI nào nil thì endpoint tương ứng trả 503.
type Deps struct {
	Store    store.Store
	Areas    *catalog.Registry
	Tokens   *utils.TokenIssuer
	Sessions *editor.Sessions
	Engine   *editor.Engine
	Renders  *editor.RenderTracker
	Player   *editor.Player
	Hub      *ws.Hub

	Scripts  editor.Generator
	Speech   Speech
	Tutor    Tutor
	Outliner Outliner
	Cleaner  services.SourceCleaner
	Images   ImageUploader
	Media    services.MediaUploader
	Probe    editor.DurationProbe

	Google         GoogleVerifier
	GoogleClientID string
	MaxUploadBytes int64

	Log *logger.Logger
}

type Controller struct {
	Deps
}

func New(d Deps) *Controller {
	if d.Google == nil {
		d.Google = VerifyGoogleToken
	}
	if d.Probe == nil {
		d.Probe = services.MP3Duration
	}
	if d.Player == nil {
		d.Player = editor.NewPlayer()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 20 << 20
	}
	if d.Log == nil {
		d.Log = logger.Nop()
	}
	return &Controller{Deps: d}
}

// VerifyGoogleToken dùng idtoken.Validate với đúng client id
func VerifyGoogleToken(ctx context.Context, token, audience string) (string, string, error) {
	payload, err := idtoken.Validate(ctx, token, audience)
	if err != nil {
		return "", "", fmt.Errorf("validate google token: %w", err)
	}
	email, _ := payload.Claims["email"].(string)
	name, _ := payload.Claims["name"].(string)
	if email == "" {
		return "", "", errors.New("google token has no email")
	}
	return email, name, nil
}

// respondError ánh xạ lỗi sentinel sang mã HTTP
func (ctl *Controller) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrSessionNotFound),
		errors.Is(err, editor.ErrSessionClosed),
		errors.Is(err, editor.ErrBlockNotFound),
		errors.Is(err, editor.ErrChapterNotFound),
		errors.Is(err, editor.ErrModuleNotFound),
		errors.Is(err, editor.ErrRenderNotFound),
		errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, editor.ErrInvalidPatch),
		errors.Is(err, models.ErrInvalidBlock),
		errors.Is(err, catalog.ErrEmptyName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ctl.Log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func notConfigured(c *gin.Context, what string) {
	c.JSON(http.StatusServiceUnavailable, gin.H{"error": what + " is not configured"})
}
