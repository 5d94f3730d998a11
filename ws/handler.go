package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/utils"
)

// Handler nâng cấp kết nối cho phòng của phiên soạn thảo
type Handler struct {
	hub      *Hub
	tokens   *utils.TokenIssuer
	users    middleware.UserLoader
	sessions *editor.Sessions
	upgrader websocket.Upgrader
	log      *logger.Logger
}

func NewHandler(hub *Hub, tokens *utils.TokenIssuer, users middleware.UserLoader, sessions *editor.Sessions, allowedOrigins []string, log *logger.Logger) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &Handler{
		hub:      hub,
		tokens:   tokens,
		users:    users,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed[origin]
			},
		},
		log: log.With("service", "WSHandler"),
	}
}

// HandleEditorWebSocket: GET /ws/editor/:id?token=...
func (h *Handler) HandleEditorWebSocket(c *gin.Context) {
	sessionID := c.Param("id")
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := h.tokens.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}
	// quyền lấy từ DB như middleware, không tin role trong token
	user, err := h.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	session, err := h.sessions.Get(sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := h.hub.Register(sessionID, conn)
	defer h.hub.Unregister(sessionID, client)
	h.log.Info("editor ws connected", "session", sessionID, "user_id", user.ID.String())

	view := session.View()
	hello, _ := json.Marshal(editor.Event{
		Type:       "connected",
		SessionID:  sessionID,
		Status:     view.Status,
		Generating: view.Generating,
	})
	client.Send <- hello

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.log.Info("editor ws disconnected", "session", sessionID, "user_id", user.ID.String())
}
