package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wordrush/backend/internal/hub"
	"github.com/wordrush/backend/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", Healthz)
	r.Get("/rooms/{code}", RoomInfo(h))
	r.Get("/ws", ws.Handler(h, log))
	return r
}
