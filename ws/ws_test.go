package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/scl-academy-backend/editor"
	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
)

func setup(t *testing.T) (*httptest.Server, *Hub, *editor.Sessions, *utilsIssuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(logger.Nop())
	sessions := editor.NewSessions(time.Hour, nil, hub)
	issuer := newIssuer()
	h := NewHandler(hub, issuer.TokenIssuer, issuer.users, sessions, nil, logger.Nop())

	r := gin.New()
	r.GET("/ws/editor/:id", h.HandleEditorWebSocket)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, sessions, issuer
}

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func readEvent(t *testing.T, conn *websocket.Conn) editor.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev editor.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return ev
}

func TestEditorSocketReceivesSessionEvents(t *testing.T) {
	srv, hub, sessions, issuer := setup(t)
	s := sessions.Create(uuid.New(), editor.NewCourse())
	token := issuer.token(t, "admin")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/editor/"+s.ID+"?token="+token), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if ev := readEvent(t, conn); ev.Type != "connected" || ev.SessionID != s.ID {
		t.Fatalf("hello = %+v", ev)
	}
	if st := hub.GetStats(); st.Rooms != 1 || st.Clients != 1 {
		t.Fatalf("stats = %+v", st)
	}

	s.SetStatus("Drafting script...")
	ev := readEvent(t, conn)
	if ev.Type != editor.EventStatus || ev.Status != "Drafting script..." {
		t.Fatalf("event = %+v", ev)
	}
}

func TestEditorSocketRejects(t *testing.T) {
	srv, _, sessions, issuer := setup(t)
	s := sessions.Create(uuid.New(), editor.NewCourse())

	cases := []struct {
		name string
		path string
		want int
	}{
		{"no token", "/ws/editor/" + s.ID, http.StatusUnauthorized},
		{"bad token", "/ws/editor/" + s.ID + "?token=nope", http.StatusUnauthorized},
		{"learner", "/ws/editor/" + s.ID + "?token=" + issuer.token(t, "learner"), http.StatusForbidden},
		{"unknown session", "/ws/editor/missing?token=" + issuer.token(t, "admin"), http.StatusNotFound},
		{"unknown user", "/ws/editor/" + s.ID + "?token=" + issuer.tokenFor(t, uuid.New(), "admin"), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, tc.path), nil)
		if err == nil {
			t.Errorf("%s: expected dial failure", tc.name)
			continue
		}
		if resp == nil || resp.StatusCode != tc.want {
			t.Errorf("%s: status = %v, want %d", tc.name, resp, tc.want)
		}
	}
}

func TestEditorSocketUsesStoredRole(t *testing.T) {
	srv, _, sessions, issuer := setup(t)
	s := sessions.Create(uuid.New(), editor.NewCourse())

	// token cũ vẫn ghi admin nhưng user trong DB đã là learner
	learner, err := issuer.users.CreateUser(context.Background(), models.User{
		FullName: "Demoted",
		Email:    "demoted@scl.test",
		Role:     models.RoleLearner,
	})
	if err != nil {
		t.Fatal(err)
	}
	token := issuer.tokenFor(t, learner.ID, string(models.RoleAdmin))

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/editor/"+s.ID+"?token="+token), nil)
	if err == nil {
		t.Fatal("expected dial failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %v, want 403", resp)
	}
}

func TestUnregisterRemovesEmptyRoom(t *testing.T) {
	hub := NewHub(logger.Nop())
	c := &Client{Send: make(chan []byte, 1)}
	hub.rooms["r"] = map[*Client]struct{}{c: {}}
	hub.Broadcast("r", []byte("x"))
	if got := <-c.Send; string(got) != "x" {
		t.Fatalf("got %q", got)
	}
	hub.Unregister("r", c)
	if st := hub.GetStats(); st.Rooms != 0 {
		t.Fatalf("stats = %+v", st)
	}
	hub.Unregister("r", c) // lần hai không panic
}
