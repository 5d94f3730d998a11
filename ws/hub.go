package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub gom các kết nối theo phòng, mỗi phiên soạn thảo một phòng
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
	log   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]struct{}),
		log:   log.With("service", "WSHub"),
	}
}

// Register thêm kết nối vào phòng và chạy write pump
func (h *Hub) Register(room string, conn *websocket.Conn) *Client {
	client := &Client{Conn: conn, Send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	h.mu.Unlock()

	go h.writePump(client)
	return client
}

func (h *Hub) Unregister(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[room]
	if !ok {
		return
	}
	if _, ok := clients[client]; ok {
		close(client.Send)
		delete(clients, client)
	}
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast gửi tới mọi client trong phòng; client chậm bị bỏ qua message
func (h *Hub) Broadcast(room string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[room] {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Notify cài đặt editor.Notifier
func (h *Hub) Notify(sessionID string, ev editor.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Warn("marshal editor event failed", "error", err)
		return
	}
	h.Broadcast(sessionID, data)
}

// Stats dùng cho /health
type Stats struct {
	Rooms   int `json:"rooms"`
	Clients int `json:"clients"`
}

func (h *Hub) GetStats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Stats{Rooms: len(h.rooms)}
	for _, clients := range h.rooms {
		s.Clients += len(clients)
	}
	return s
}

func (h *Hub) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
