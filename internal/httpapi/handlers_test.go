package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/words"
)

func newTestServer(t *testing.T) (*httptest.Server, *hub.Hub) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := hub.NewHub(ctx, game.NewRegistry(), words.NewCatalog(nil), nil)
	srv := httptest.NewServer(SetupRoutes(h, nil))
	t.Cleanup(srv.Close)
	return srv, h
}

func createRoom(t *testing.T, h *hub.Hub) *game.Room {
	t.Helper()
	reply := make(chan hub.RoomReply, 1)
	h.Inbox() <- hub.CreateRoom{PlayerID: "p1", PlayerName: "Ann", Reply: reply}
	select {
	case r := <-reply:
		if r.Err != nil {
			t.Fatalf("create room: %v", r.Err)
		}
		return r.Room
	case <-time.After(time.Second):
		t.Fatalf("hub reply timed out")
		return nil // unreachable
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
}

func TestRoomInfo(t *testing.T) {
	srv, h := newTestServer(t)
	room := createRoom(t, h)

	// Codes get typed by hand; the lookup tolerates lowercase.
	resp, err := http.Get(srv.URL + "/rooms/" + strings.ToLower(room.Code))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}

	var info struct {
		Code        string `json:"code"`
		Status      string `json:"status"`
		PlayerCount int    `json:"playerCount"`
		Joinable    bool   `json:"joinable"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Code != room.Code || info.Status != string(game.StatusWaiting) {
		t.Fatalf("room info: %+v", info)
	}
	if info.PlayerCount != 1 || !info.Joinable {
		t.Fatalf("room info: %+v", info)
	}
}

func TestRoomInfoNotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/rooms/ZZZZ99")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status: got %d, want 404", resp.StatusCode)
	}
}
