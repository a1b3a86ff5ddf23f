package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/wordrush/backend/internal/game"
	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/session"
)

type roomInfo struct {
	Code        string      `json:"code"`
	Status      game.Status `json:"status"`
	PlayerCount int         `json:"playerCount"`
	Joinable    bool        `json:"joinable"`
}

// RoomInfo serves the join page a cheap joinability check without opening a
// websocket. The summary comes from the room's session loop, the only place
// its state may be read.
func RoomInfo(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(chi.URLParam(r, "code"))

		lookup := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: lookup}
		sess := <-lookup
		if sess == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		reply := make(chan session.Summary, 1)
		select {
		case sess.Inbox() <- session.GetSummary{Reply: reply}:
		case <-sess.Done():
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		var sum session.Summary
		select {
		case sum = <-reply:
		case <-sess.Done():
			http.Error(w, "room not found", http.StatusNotFound)
			return
		case <-r.Context().Done():
			return
		}

		info := roomInfo{
			Code:        sum.Code,
			Status:      sum.Status,
			PlayerCount: sum.PlayerCount,
			Joinable:    sum.Status == game.StatusWaiting && sum.PlayerCount < game.MaxPlayersPerRoom,
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
