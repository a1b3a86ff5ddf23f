package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/words"
	"github.com/wordrush/backend/pkg/types"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type fixedProvider []words.Entry

func (p fixedProvider) Words(context.Context, string) ([]words.Entry, error) { return p, nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	entries := make([]words.Entry, 20)
	for i := range entries {
		entries[i] = words.Entry{
			ID:         fmt.Sprintf("w%02d", i),
			Text:       fmt.Sprintf("testword%02d", i),
			Points:     7,
			Difficulty: words.Easy,
		}
	}
	catalog := words.NewCatalog(nil)
	if err := catalog.Load(ctx, fixedProvider(entries), ""); err != nil {
		t.Fatalf("catalog load: %v", err)
	}

	h := hub.NewHub(ctx, game.NewRegistry(), catalog, nil)
	srv := httptest.NewServer(Handler(h, nil))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg types.ClientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recvFrame(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("bad frame: %v", err)
	}
	return env
}

// recvFrameUntil skips frames until the named event shows up.
func recvFrameUntil(t *testing.T, conn *websocket.Conn, event string) envelope {
	t.Helper()
	for i := 0; i < 20; i++ {
		env := recvFrame(t, conn)
		if env.Type == event {
			return env
		}
	}
	t.Fatalf("event %q never arrived", event)
	return envelope{} // unreachable
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		t.Fatalf("decode %s payload: %v", env.Type, err)
	}
	return v
}

func createRoom(t *testing.T, conn *websocket.Conn, name string) types.RoomCreated {
	t.Helper()
	send(t, conn, types.ClientMessage{Type: types.EvtRoomCreate, PlayerName: name})
	created := decode[types.RoomCreated](t, recvFrameUntil(t, conn, types.EvtRoomCreated))
	recvFrameUntil(t, conn, types.EvtRoomState)
	return created
}

func TestHandler_CreateAndJoinFlow(t *testing.T) {
	srv := newTestServer(t)

	host := dial(t, srv)
	created := createRoom(t, host, "Ann")
	if created.RoomCode == "" || created.PlayerID == "" {
		t.Fatalf("room created ack incomplete: %+v", created)
	}

	// A second player joins with the code lowercased, as typed by hand.
	joiner := dial(t, srv)
	send(t, joiner, types.ClientMessage{
		Type:       types.EvtRoomJoin,
		RoomCode:   strings.ToLower(created.RoomCode),
		PlayerName: "Ben",
	})
	joined := decode[types.RoomCreated](t, recvFrameUntil(t, joiner, types.EvtRoomJoined))
	if joined.RoomCode != created.RoomCode {
		t.Fatalf("joined wrong room: %+v", joined)
	}
	state := decode[types.RoomState](t, recvFrameUntil(t, joiner, types.EvtRoomState))
	if state.Room == nil || state.Room.PlayerCount() != 2 {
		t.Fatalf("snapshot after join: %+v", state.Room)
	}

	// The host hears about the arrival.
	recvFrameUntil(t, host, types.EvtPlayerJoined)
}

func TestHandler_JoinUnknownRoom(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, types.ClientMessage{Type: types.EvtRoomJoin, RoomCode: "NOPE99", PlayerName: "Ben"})
	errPayload := decode[types.Error](t, recvFrameUntil(t, conn, types.EvtError))
	if errPayload.Code != types.CodeRoomNotFound {
		t.Fatalf("error code: got %s, want %s", errPayload.Code, types.CodeRoomNotFound)
	}
}

func TestHandler_NameLengthCountsRunes(t *testing.T) {
	srv := newTestServer(t)

	// One character is one character, even when it is two bytes long.
	conn := dial(t, srv)
	send(t, conn, types.ClientMessage{Type: types.EvtRoomCreate, PlayerName: "é"})
	errPayload := decode[types.Error](t, recvFrameUntil(t, conn, types.EvtError))
	if errPayload.Code != types.CodeInvalidName {
		t.Fatalf("error code: got %s, want %s", errPayload.Code, types.CodeInvalidName)
	}

	// Two multi-byte characters pass.
	conn2 := dial(t, srv)
	created := createRoom(t, conn2, "éé")
	if created.RoomCode == "" {
		t.Fatalf("two-rune name rejected")
	}
}

func TestHandler_AbandonedConnectionsLeakNothing(t *testing.T) {
	srv := newTestServer(t)
	base := runtime.NumGoroutine()

	// Connections that never join a room have no session to close their
	// outbox; dropping them must still wind the writer goroutine down.
	for i := 0; i < 8; i++ {
		conn := dial(t, srv)
		send(t, conn, types.ClientMessage{Type: "bogus"})
		recvFrameUntil(t, conn, types.EvtError)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
	}

	deadline := time.After(3 * time.Second)
	for {
		if runtime.NumGoroutine() <= base+2 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("goroutines: got %d, want to settle near %d", runtime.NumGoroutine(), base)
		case <-time.After(50 * time.Millisecond):
		}
	}
}
