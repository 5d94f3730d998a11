package controllers

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/catalog"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/services"
)

const (
	studioScriptFailed = "Failed to generate script."
	studioAudioFailed  = "Failed to generate audio."
	studioDecodeFailed = "Error decoding audio."
	studioReady        = "Ready to play!"
	studioPublished    = "Published successfully!"

	// thời lượng mặc định khi không đọc được audio
	fallbackDuration = "05:00"
)

type PodcastDraftInput struct {
	Topic   string `json:"topic" binding:"required"`
	Context string `json:"context"`
}

type PublishPodcastInput struct {
	Title     string     `json:"title" binding:"required"`
	Script    string     `json:"script"`
	AudioData string     `json:"audio_data" binding:"required"` // base64 MP3
	AreaID    *uuid.UUID `json:"area_id"`
}

// GET /api/podcasts?search=&page=&limit=
func (ctl *Controller) GetPodcasts(c *gin.Context) {
	podcasts, err := ctl.Store.ListPodcasts(c.Request.Context())
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	podcasts = catalog.FilterVisible(podcasts, middleware.ViewerFrom(c))

	// --- Tìm kiếm theo tên ---
	if search := strings.ToLower(strings.TrimSpace(c.Query("search"))); search != "" {
		filtered := podcasts[:0:0]
		for _, p := range podcasts {
			if strings.Contains(strings.ToLower(p.Title), search) {
				filtered = append(filtered, p)
			}
		}
		podcasts = filtered
	}
	c.JSON(http.StatusOK, paginate(podcasts, readPage(c)))
}

// POST /api/admin/podcasts/generate: viết kịch bản rồi thu âm hai giọng, chưa lưu gì
func (ctl *Controller) GeneratePodcastDraft(c *gin.Context) {
	var input PodcastDraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ctl.Scripts == nil || ctl.Speech == nil {
		notConfigured(c, "podcast generation")
		return
	}
	ctx := c.Request.Context()

	script, err := ctl.Scripts.DraftScript(ctx, input.Topic, input.Context)
	if err != nil || strings.TrimSpace(script) == "" {
		ctl.Log.Warn("podcast script failed", "topic", input.Topic, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": studioScriptFailed, "status": studioScriptFailed})
		return
	}

	audio, err := ctl.Speech.SynthesizeDialogue(ctx, script)
	if err != nil || len(audio) == 0 {
		ctl.Log.Warn("podcast audio failed", "topic", input.Topic, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": studioAudioFailed, "status": studioAudioFailed, "script": script})
		return
	}

	seconds, err := ctl.Probe(audio)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": studioDecodeFailed, "status": studioDecodeFailed, "script": script})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           studioReady,
		"script":           script,
		"audio_data":       base64.StdEncoding.EncodeToString(audio),
		"duration":         services.FormatDuration(seconds),
		"duration_seconds": seconds,
		"suggested_title":  suggestTitle(input.Topic),
	})
}

// POST /api/admin/podcasts
func (ctl *Controller) PublishPodcast(c *gin.Context) {
	var input PublishPodcastInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	audio, err := base64.StdEncoding.DecodeString(input.AudioData)
	if err != nil || len(audio) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": studioDecodeFailed})
		return
	}
	areaID, ok := ctl.areaRef(c, input.AreaID)
	if !ok {
		return
	}

	duration := fallbackDuration
	if seconds, err := ctl.Probe(audio); err == nil {
		duration = services.FormatDuration(seconds)
	}

	audioData := input.AudioData
	if ctl.Media != nil {
		// có storage thì lưu file MP3, DB chỉ giữ URL
		url, err := ctl.Media.Upload(c.Request.Context(), "podcasts", ".mp3", audio, "audio/mpeg")
		if err != nil {
			ctl.Log.Warn("podcast audio upload failed, keeping base64", "error", err)
		} else {
			audioData = url
		}
	}

	podcast := models.Podcast{
		Title:       strings.TrimSpace(input.Title),
		Duration:    duration,
		Date:        time.Now().Format("Jan 2"),
		AreaID:      areaID,
		AudioData:   audioData,
		Script:      input.Script,
		Description: describe(input.Script),
	}
	if userID, ok := middleware.UserIDFrom(c); ok {
		podcast.CreatedBy = &userID
	}

	saved, err := ctl.Store.PublishPodcast(c.Request.Context(), podcast)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": studioPublished, "data": saved})
}

// suggestTitle lấy 5 từ đầu của chủ đề
func suggestTitle(topic string) string {
	words := strings.Fields(topic)
	if len(words) > 5 {
		words = words[:5]
	}
	return strings.Join(words, " ") + "..."
}

// describe lấy 100 ký tự đầu kịch bản làm mô tả
func describe(script string) string {
	runes := []rune(script)
	if len(runes) > 100 {
		runes = runes[:100]
	}
	return string(runes) + "..."
}
