package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/session"
	"github.com/wordrush/backend/pkg/types"
)

const writeTimeout = 3 * time.Second

// Handler is the event channel: one connection per player. The connection
// starts roomless; the first accepted room:create or room:join binds it to a
// session, and leaving the room (or the room dying) tears the connection
// down.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		playerID := uuid.NewString()
		out := make(chan []byte, 16)
		clog := log.With(zap.String("player", playerID))

		// Writer goroutine: pumps session frames until the outbox closes or
		// the handler returns. The ctx leg matters for connections that drop
		// before ever joining a room, where no session will close the outbox.
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			for {
				select {
				case frame, ok := <-out:
					if !ok {
						return
					}
					ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
					err := conn.Write(ctx, websocket.MessageText, frame)
					cancel()
					if err != nil {
						return
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		var sess *session.Session
		joined := false
		defer func() {
			if joined {
				sess.Inbox() <- session.Leave{PlayerID: playerID}
			}
		}()

		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				// Clean close or otherwise, the defer handles room removal.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				sendDirect(writeCtx, conn, types.EvtError, types.Error{Code: types.CodeBadRequest, Message: "bad json"})
				continue
			}

			if !joined {
				sess = handlePreJoin(writeCtx, conn, h, playerID, cm, out, clog)
				joined = sess != nil
				continue
			}

			if cm.Type == types.EvtRoomCreate || cm.Type == types.EvtRoomJoin {
				sendDirect(writeCtx, conn, types.EvtError, types.Error{Code: types.CodeBadRequest, Message: "already in a room"})
				continue
			}

			sess.Inbox() <- session.FromClient{PlayerID: playerID, Msg: cm}

			if cm.Type == types.EvtRoomLeave {
				// The session removes the player and closes the outbox;
				// nothing left to do on this connection.
				joined = false
				return
			}
		}
	}
}

// handlePreJoin processes the only events a roomless connection may send.
// Returns the bound session on success.
func handlePreJoin(ctx context.Context, conn *websocket.Conn, h *hub.Hub, playerID string, cm types.ClientMessage, out chan []byte, log *zap.Logger) *session.Session {
	name := strings.TrimSpace(cm.PlayerName)

	switch cm.Type {
	case types.EvtRoomCreate:
		if utf8.RuneCountInString(name) < 2 {
			sendDirect(ctx, conn, types.EvtError, types.Error{Code: types.CodeInvalidName, Message: "Name must be at least 2 characters"})
			return nil
		}
		reply := make(chan hub.RoomReply, 1)
		h.Inbox() <- hub.CreateRoom{PlayerID: playerID, PlayerName: name, Reply: reply}
		rep := <-reply
		if rep.Err != nil || rep.Session == nil {
			sendDirect(ctx, conn, types.EvtError, types.Error{Code: types.CodeBadRequest, Message: "failed to create room"})
			return nil
		}
		sendDirect(ctx, conn, types.EvtRoomCreated, types.RoomCreated{RoomCode: rep.Room.Code, PlayerID: playerID})
		rep.Session.Inbox() <- session.Join{PlayerID: playerID, Outbox: out}
		log.Info("room created over ws", zap.String("room", rep.Room.Code))
		return rep.Session

	case types.EvtRoomJoin:
		if utf8.RuneCountInString(name) < 2 {
			sendDirect(ctx, conn, types.EvtError, types.Error{Code: types.CodeInvalidName, Message: "Name must be at least 2 characters"})
			return nil
		}
		code := strings.ToUpper(strings.TrimSpace(cm.RoomCode))
		lookup := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: lookup}
		sess := <-lookup
		if sess == nil {
			sendDirect(ctx, conn, types.EvtError, joinError(game.ErrRoomNotFound))
			return nil
		}

		// The session admits the player from inside its own loop; this
		// goroutine only waits for the verdict.
		verdict := make(chan error, 1)
		select {
		case sess.Inbox() <- session.JoinRequest{PlayerID: playerID, PlayerName: name, Reply: verdict}:
		case <-sess.Done():
			sendDirect(ctx, conn, types.EvtError, joinError(game.ErrRoomNotFound))
			return nil
		}
		select {
		case err := <-verdict:
			if err != nil {
				sendDirect(ctx, conn, types.EvtError, joinError(err))
				return nil
			}
		case <-sess.Done():
			sendDirect(ctx, conn, types.EvtError, joinError(game.ErrRoomNotFound))
			return nil
		}

		sendDirect(ctx, conn, types.EvtRoomJoined, types.RoomCreated{RoomCode: code, PlayerID: playerID})
		sess.Inbox() <- session.Join{PlayerID: playerID, Outbox: out, Announce: true}
		log.Info("player joined over ws", zap.String("room", code))
		return sess

	default:
		sendDirect(ctx, conn, types.EvtError, types.Error{Code: types.CodeBadRequest, Message: "join or create a room first"})
		return nil
	}
}

func joinError(err error) types.Error {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return types.Error{Code: types.CodeRoomFull, Message: "Room is full"}
	case errors.Is(err, game.ErrGameAlreadyStarted):
		return types.Error{Code: types.CodeGameAlreadyStarted, Message: "Game has already started"}
	default:
		return types.Error{Code: types.CodeRoomNotFound, Message: "Room not found"}
	}
}

func sendDirect(ctx context.Context, conn *websocket.Conn, event string, payload any) {
	data, err := json.Marshal(types.ServerMessage{Type: event, Payload: payload})
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, data)
}
