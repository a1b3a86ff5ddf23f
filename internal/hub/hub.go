package hub

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/session"
	"github.com/wordrush/backend/internal/words"
)

type HubMsg interface{ isHubMsg() }

// CreateRoom makes a room for the host and spins up its session. The room is
// registered before its session starts, so the hub goroutine is still the
// only one touching it here; every later membership change goes through the
// session inbox (session.JoinRequest, session.Leave).
type CreateRoom struct {
	PlayerID   string
	PlayerName string
	Reply      chan RoomReply
}

// GetSession looks a running session up by room code.
type GetSession struct {
	Code  string
	Reply chan *session.Session
}

// RemoveSession drops a session whose room is gone. Posted by the session
// itself when its room empties out.
type RemoveSession struct{ Code string }

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()    {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type RoomReply struct {
	Room    *game.Room
	Session *session.Session
	Err     error
}

// Hub owns the registry and the running sessions, one per live room.
type Hub struct {
	inbox    chan HubMsg
	registry *game.Registry
	catalog  *words.Catalog
	sessions map[string]*session.Session
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, registry *game.Registry, catalog *words.Catalog, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		registry: registry,
		catalog:  catalog,
		sessions: make(map[string]*session.Session),
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Registry exposes the index for existence checks. Room contents must be
// read through the owning session, not through the pointers returned here.
func (h *Hub) Registry() *game.Registry { return h.registry }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				room, err := h.registry.CreateRoom(msg.PlayerID, msg.PlayerName)
				if err != nil {
					msg.Reply <- RoomReply{Err: err}
					break
				}
				sess := h.spawn(room)
				h.log.Info("room created",
					zap.String("room", room.Code),
					zap.String("host", msg.PlayerName))
				msg.Reply <- RoomReply{Room: room, Session: sess}

			case GetSession:
				msg.Reply <- h.sessions[strings.ToUpper(msg.Code)] // may be nil

			case RemoveSession:
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) spawn(room *game.Room) *session.Session {
	onClose := func(code string) {
		select {
		case h.inbox <- RemoveSession{Code: code}:
		case <-h.ctx.Done():
		}
	}
	sess := session.New(h.ctx, room, h.registry, h.catalog, onClose, h.log)
	h.sessions[room.Code] = sess
	return sess
}

func (h *Hub) shutdown() {
	for _, sess := range h.sessions {
		sess.Inbox() <- session.Shutdown{}
	}
	clear(h.sessions)
	h.cancel()
}
