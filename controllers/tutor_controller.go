package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/services"
)

const (
	maxTutorHistory = 20
	tutorFallback   = "I'm having trouble connecting to the site servers right now. Please try again later."
)

type TutorChatInput struct {
	Message string                 `json:"message" binding:"required"`
	History []services.ChatMessage `json:"history"`
}

// POST /api/tutor/chat: vai trò nghề nghiệp của user làm ngữ cảnh
func (ctl *Controller) TutorChat(c *gin.Context) {
	var input TutorChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ctl.Tutor == nil {
		notConfigured(c, "AI tutor")
		return
	}
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := ctl.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	history := input.History
	if len(history) > maxTutorHistory {
		history = history[len(history)-maxTutorHistory:]
	}
	userContext := fmt.Sprintf("User is a %s.", user.JobRole)

	reply, err := ctl.Tutor.Chat(c.Request.Context(), history, strings.TrimSpace(input.Message), userContext)
	if err != nil {
		// lỗi gateway không làm hỏng cuộc hội thoại, trả câu trả lời dự phòng
		ctl.Log.Warn("tutor chat failed", "user_id", userID, "error", err)
		reply = tutorFallback
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
