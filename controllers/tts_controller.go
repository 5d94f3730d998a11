package controllers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
)

type TTSRequest struct {
	Text         string  `json:"text" binding:"required"`
	Voice        string  `json:"voice"`
	SpeakingRate float64 `json:"speaking_rate"`
}

// POST /api/admin/tts
func (ctl *Controller) TextToSpeechHandler(c *gin.Context) {
	var req TTSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if ctl.Speech == nil {
		notConfigured(c, "text to speech")
		return
	}

	audioContent, err := ctl.Speech.SynthesizeText(c.Request.Context(), req.Text, req.Voice, req.SpeakingRate)
	if err != nil {
		ctl.Log.Error("tts failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not synthesize speech"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"voice_used":    req.Voice,
		"audio_content": base64.StdEncoding.EncodeToString(audioContent),
		"message":       "text converted to speech",
	})
}
